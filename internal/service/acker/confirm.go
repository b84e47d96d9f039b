package acker

import (
	"context"
	"fmt"

	"github.com/oshokin/alarm-ack/internal/prompt"
)

// TenantLookup fetches the tenant display name.
type TenantLookup interface {
	TenantName(ctx context.Context) (string, error)
}

// Console prints messages and reads prompted answers.
type Console interface {
	prompt.LineReader
	Println(args ...any)
}

// confirm shows what is about to happen and waits for yes or no.
func confirm(ctx context.Context, tenants TenantLookup, console Console, limit int) error {
	tenantName, err := tenants.TenantName(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTenantLookup, err)
	}

	console.Println(confirmationMessage(tenantName, limit))

	ok, err := prompt.AskYesNo(console)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	if !ok {
		return ErrCancelled
	}

	return nil
}

// confirmationMessage renders the confirmation line for a limit.
func confirmationMessage(tenantName string, limit int) string {
	if limit == 0 {
		return fmt.Sprintf("CONFIRMATION: This will acknowledge ALL events for %s", tenantName)
	}

	return fmt.Sprintf("CONFIRMATION: This will acknowledge %d events for %s", limit, tenantName)
}
