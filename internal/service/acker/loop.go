package acker

import (
	"context"
	"fmt"

	"github.com/oshokin/alarm-ack/internal/domain/event"
	"github.com/oshokin/alarm-ack/internal/logger"
)

// EventStore queries and updates controller events.
type EventStore interface {
	QueryEvents(ctx context.Context, count int) ([]event.Event, error)
	UpdateEvent(ctx context.Context, ev event.Event) error
}

// acknowledge pages through unacknowledged alarms and acknowledges each one.
// The countdown drops by a full batch per round even for short batches; an
// empty batch pins it to one last batch so the loop ends after this round.
// It returns how many events were submitted, also on error.
func acknowledge(ctx context.Context, store EventStore, requested int) (int, error) {
	var (
		limit    = event.EffectiveLimit(requested)
		ackCount = 0
	)

	for limit >= event.BatchSize {
		events, err := store.QueryEvents(ctx, event.BatchSize)
		if err != nil {
			return ackCount, fmt.Errorf("%w: %w", ErrQueryFailed, err)
		}

		if len(events) == 0 {
			limit = event.BatchSize
		}

		if ackCount, err = clearEvents(ctx, store, events, ackCount); err != nil {
			return ackCount, err
		}

		limit -= event.BatchSize
	}

	// The remainder is always queried, also when the countdown reached zero.
	events, err := store.QueryEvents(ctx, limit)
	if err != nil {
		return ackCount, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	return clearEvents(ctx, store, events, ackCount)
}

// clearEvents acknowledges a batch and returns the updated running count.
// Update failures are logged and do not stop the batch.
func clearEvents(ctx context.Context, store EventStore, events []event.Event, ackCount int) (int, error) {
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return ackCount, err
		}

		ackCount++

		ev.Acknowledge()

		if err := store.UpdateEvent(ctx, ev); err != nil {
			logger.WarnKV(ctx, "Event update failed", "count", ackCount, "event_id", ev.ID(), "error", err)
			continue
		}

		logger.InfoKV(ctx, "Cleared event", "count", ackCount, "event_id", ev.ID())
	}

	return ackCount, nil
}
