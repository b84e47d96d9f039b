package acker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/alarm-ack/internal/config"
	"github.com/oshokin/alarm-ack/internal/controller"
	"github.com/oshokin/alarm-ack/internal/logger"
	"github.com/oshokin/alarm-ack/internal/prompt"
	"github.com/oshokin/alarm-ack/internal/service/auth"
)

// Options configures a single acknowledgment run.
type Options struct {
	// ConfigPath to the YAML settings file; the default file is optional.
	ConfigPath string
	// ControllerURL overrides the controller URL from settings when set.
	ControllerURL string
	// Token is an explicit auth token.
	Token string
	// TokenFile is a file holding the auth token.
	TokenFile string
	// Limit is the maximum number of events to acknowledge, 0 for all.
	Limit int
	// Debug enables debug logging and HTTP tracing.
	Debug bool

	// Stdin is read for confirmation and login prompts; os.Stdin when nil.
	Stdin io.Reader
	// Stdout receives prompts; os.Stdout when nil.
	Stdout io.Writer
	// LookupEnv reads token environment variables; os.LookupEnv when nil.
	LookupEnv func(key string) (string, bool)
}

var (
	// ErrTenantLookup is returned when the tenant name cannot be fetched.
	ErrTenantLookup = errors.New("API call failure when enumerating tenant name")
	// ErrQueryFailed is returned when an event query fails mid-run.
	ErrQueryFailed = errors.New("API error while querying events")
	// ErrCancelled is returned when the operator declines the confirmation.
	ErrCancelled = errors.New("cancelling due to user response")

	// errNegativeLimit is returned for a limit below zero.
	errNegativeLimit = errors.New("limit must not be negative")
)

// Run authenticates, confirms with the operator and acknowledges events.
// Logout runs once on every path after the session is created.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-ack")

	if opts.Limit < 0 {
		return fmt.Errorf("%w: %d", errNegativeLimit, opts.Limit)
	}

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyLogLevel(cfg.LogLevel, opts.Debug)

	// Command line overrides the settings file.
	controllerURL := cfg.ControllerURL
	if opts.ControllerURL != "" {
		controllerURL = opts.ControllerURL
	}

	client, err := controller.New(
		controllerURL,
		controller.WithCallTimeout(cfg.Timeout),
		controller.WithAPIVersions(cfg.API),
		controller.WithDebug(opts.Debug),
	)
	if err != nil {
		return fmt.Errorf("create controller client: %w", err)
	}

	// Release the server-side session whatever happens next.
	defer logout(ctx, client)

	stdin, stdout := opts.Stdin, opts.Stdout
	if stdin == nil {
		stdin = os.Stdin
	}

	if stdout == nil {
		stdout = os.Stdout
	}

	console := prompt.NewTerminal(stdin, stdout)

	logOperator(ctx, controllerURL)

	err = auth.Authenticate(ctx, client, console, &auth.Options{
		Token:     opts.Token,
		TokenFile: opts.TokenFile,
		LookupEnv: opts.LookupEnv,
	})
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "tenant_id", client.TenantID())

	if err = confirm(ctx, client, console, opts.Limit); err != nil {
		return err
	}

	acknowledged, err := acknowledge(ctx, client, opts.Limit)
	if err != nil {
		logger.ErrorKV(ctx, "Stopped after partial progress", "acknowledged", acknowledged, "error", err)
		return err
	}

	report(ctx, acknowledged)

	return nil
}

// applyLogLevel sets the global level from settings unless debug is forced.
func applyLogLevel(level string, debug bool) {
	if debug {
		logger.SetLevel(zapcore.DebugLevel)
		return
	}

	// Settings were validated, the level is known.
	parsed, _ := logger.ParseLogLevel(level)
	logger.SetLevel(parsed)
}

// logout ends the session on a context that outlives cancellation.
func logout(ctx context.Context, client *controller.Client) {
	logger.Info(ctx, "Logging out")

	if err := client.Logout(context.WithoutCancel(ctx)); err != nil {
		logger.WarnKV(ctx, "Logout failed", "error", err)
	}
}

// report logs the run summary.
func report(ctx context.Context, acknowledged int) {
	if acknowledged == 0 {
		logger.Warn(ctx, "No unacknowledged alerts were found")
		return
	}

	logger.Infof(ctx, "Acknowledged %d event IDs", acknowledged)
}
