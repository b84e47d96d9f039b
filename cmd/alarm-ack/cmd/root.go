package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-ack/internal/config"
	"github.com/oshokin/alarm-ack/internal/logger"
	"github.com/oshokin/alarm-ack/internal/service/acker"
	"github.com/oshokin/alarm-ack/internal/version"
)

// newRootCommand builds the alarm-ack command bound to opts.
func newRootCommand(opts *acker.Options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alarm-ack",
		Short: "Acknowledge all outstanding alarm events on the SD-WAN controller.",
		Long: `Acknowledges un-acknowledged alarm events of a tenant, newest first,
in batches of 100 per API request until the limit is reached or no alarms remain.

Authentication sources, first match wins:
  1) --token / -t
  2) --authtokenfile / -f (file containing the token)
  3) environment variable X_AUTH_TOKEN
  4) environment variable AUTH_TOKEN
  5) interactive email/password login

The operator must confirm with YES before anything is changed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts.Stdin = cmd.InOrStdin()
			opts.Stdout = cmd.OutOrStdout()

			return acker.Run(ctx, opts)
		},
	}

	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Token, "token", "t", "", "auth token to use for controller authentication")
	flags.StringVarP(&opts.TokenFile, "authtokenfile", "f", "", "file containing the auth token")
	flags.IntVarP(&opts.Limit, "limit", "l", 0, "max number of events to acknowledge (0 = unlimited)")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "",
		"path to settings file (default "+config.DefaultConfigFilename+" if present)")
	flags.StringVar(&opts.ControllerURL, "controller", "", "controller URL, overrides the settings file")

	// Hidden debug flag for HTTP tracing.
	flags.BoolVarP(&opts.Debug, "debug", "d", false, "log debug output and HTTP traces")

	err := flags.MarkHidden("debug")
	if err != nil {
		panic(err)
	}

	version.AttachCobraVersionCommand(rootCmd)

	return rootCmd
}

// Execute runs the alarm-ack CLI and exits with non-zero status on error.
func Execute() {
	rootCmd := newRootCommand(new(acker.Options))

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error(context.Background(), err)
		os.Exit(1)
	}
}
