package acker

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/alarm-ack/internal/logger"
)

// Operator identifies the local account running the acknowledgment.
type Operator struct {
	Hostname string
	Username string
}

// DetectOperator gathers host and user information for the audit log.
func DetectOperator() (Operator, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return Operator{}, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return Operator{}, fmt.Errorf("current user: %w", err)
	}

	return Operator{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// logOperator records who started the run. Detection failures are not fatal.
func logOperator(ctx context.Context, controllerURL string) {
	operator, err := DetectOperator()
	if err != nil {
		logger.WarnKV(ctx, "Cannot detect local operator", "error", err)
		operator = Operator{Hostname: "unknown", Username: "unknown"}
	}

	logger.InfoKV(ctx, "Connecting to controller",
		"controller_url", controllerURL,
		"hostname", operator.Hostname,
		"username", operator.Username,
	)
}
