package integration

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-ack/internal/controller/controllertest"
	"github.com/oshokin/alarm-ack/internal/service/acker"
	"github.com/oshokin/alarm-ack/internal/service/auth"
)

const validToken = "valid-token"

// writeSettings stores a settings file pointing at the fake controller.
func writeSettings(t *testing.T, srv *controllertest.Server) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "alarm-ack-settings.yaml")
	content := "controller_url: " + srv.URL + "\ntimeout: 5s\nlog_level: warn\n"

	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// env builds a LookupEnv function backed by a map.
func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// runAck executes a full run with the given stdin and returns the prompt output.
func runAck(t *testing.T, srv *controllertest.Server, opts *acker.Options, stdin string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	if opts.ConfigPath == "" && opts.ControllerURL == "" {
		opts.ConfigPath = writeSettings(t, srv)
	}

	if opts.LookupEnv == nil {
		opts.LookupEnv = env(nil)
	}

	opts.Stdin = strings.NewReader(stdin)
	opts.Stdout = &out

	err := acker.Run(context.Background(), opts)

	return out.String(), err
}

// TestAck_Unbounded acknowledges everything and stops at the empty-batch fixed point.
func TestAck_Unbounded(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken), controllertest.WithAlarms(250))

	out, err := runAck(t, srv, &acker.Options{Token: validToken}, "yes\n")
	require.NoError(t, err)

	require.Contains(t, out, "CONFIRMATION: This will acknowledge ALL events for "+controllertest.DefaultTenantName)
	require.Equal(t, []int{100, 100, 100, 100, 0}, srv.Queries())
	require.Len(t, srv.Updates(), 250)
	require.Zero(t, srv.Unacknowledged())
	require.Equal(t, 1, srv.Logouts())

	for _, ev := range srv.Updates() {
		require.True(t, ev.IsAcknowledged())
		require.Equal(t, "alarm", ev["type"])
	}

	for _, id := range srv.RequestIDs() {
		require.NotEmpty(t, id)
	}
}

// TestAck_FewerThanOneBatch handles an unbounded run with less than 100 events.
func TestAck_FewerThanOneBatch(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken), controllertest.WithAlarms(42))

	_, err := runAck(t, srv, &acker.Options{Token: validToken}, "YES\n")
	require.NoError(t, err)

	require.Equal(t, []int{100, 100, 0}, srv.Queries())
	require.Len(t, srv.Updates(), 42)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_NoEvents finishes cleanly when nothing is pending.
func TestAck_NoEvents(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken))

	_, err := runAck(t, srv, &acker.Options{Token: validToken}, "yes\n")
	require.NoError(t, err)

	require.Equal(t, []int{100, 0}, srv.Queries())
	require.Empty(t, srv.Updates())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_ExplicitLimit queries 100, 100 and a final partial page.
func TestAck_ExplicitLimit(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken), controllertest.WithAlarms(300))

	out, err := runAck(t, srv, &acker.Options{Token: validToken, Limit: 250}, "maybe\nyes\n")
	require.NoError(t, err)

	require.Equal(t, 2, strings.Count(out, "Please enter YES or NO: "))
	require.Contains(t, out, "acknowledge 250 events for "+controllertest.DefaultTenantName)
	require.Equal(t, []int{100, 100, 50}, srv.Queries())
	require.Len(t, srv.Updates(), 250)
	require.Equal(t, 50, srv.Unacknowledged())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_ControllerFlag uses the command line URL instead of a settings file.
func TestAck_ControllerFlag(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken), controllertest.WithAlarms(3))

	_, err := runAck(t, srv, &acker.Options{Token: validToken, ControllerURL: srv.URL}, "yes\n")
	require.NoError(t, err)

	require.Len(t, srv.Updates(), 3)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_Declined leaves events untouched and still logs out.
func TestAck_Declined(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken), controllertest.WithAlarms(5))

	_, err := runAck(t, srv, &acker.Options{Token: validToken}, "No\n")
	require.ErrorIs(t, err, acker.ErrCancelled)

	require.Empty(t, srv.Queries())
	require.Equal(t, 5, srv.Unacknowledged())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_InvalidToken fails without retrying and still logs out.
func TestAck_InvalidToken(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken))

	out, err := runAck(t, srv, &acker.Options{Token: "expired"}, "yes\n")
	require.ErrorIs(t, err, auth.ErrAuthFailure)

	require.Empty(t, out)
	require.Zero(t, srv.LoginAttempts())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_TenantLookupFailure aborts before confirmation.
func TestAck_TenantLookupFailure(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t,
		controllertest.WithToken(validToken),
		controllertest.WithAlarms(5),
		controllertest.WithFailingTenant(),
	)

	out, err := runAck(t, srv, &acker.Options{Token: validToken}, "yes\n")
	require.ErrorIs(t, err, acker.ErrTenantLookup)

	require.NotContains(t, out, "CONFIRMATION")
	require.Empty(t, srv.Queries())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_QueryFailureKeepsProgress stops on the failing page.
func TestAck_QueryFailureKeepsProgress(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t,
		controllertest.WithToken(validToken),
		controllertest.WithAlarms(250),
		controllertest.WithFailingQuery(2),
	)

	_, err := runAck(t, srv, &acker.Options{Token: validToken}, "yes\n")
	require.ErrorIs(t, err, acker.ErrQueryFailed)

	require.Equal(t, []int{100, 100}, srv.Queries())
	require.Len(t, srv.Updates(), 100)
	require.Equal(t, 150, srv.Unacknowledged())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_FinalQueryFailure fails the run when the zero-sized remainder query fails.
func TestAck_FinalQueryFailure(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t,
		controllertest.WithToken(validToken),
		controllertest.WithAlarms(30),
		controllertest.WithFailingQuery(3),
	)

	_, err := runAck(t, srv, &acker.Options{Token: validToken}, "yes\n")
	require.ErrorIs(t, err, acker.ErrQueryFailed)

	require.Equal(t, []int{100, 100, 0}, srv.Queries())
	require.Len(t, srv.Updates(), 30)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_UpdateFailuresAreNotFatal counts failed updates and finishes.
func TestAck_UpdateFailuresAreNotFatal(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t,
		controllertest.WithToken(validToken),
		controllertest.WithAlarms(10),
		controllertest.WithFailingUpdates(),
	)

	_, err := runAck(t, srv, &acker.Options{Token: validToken, Limit: 10}, "yes\n")
	require.NoError(t, err)

	require.Equal(t, []int{10}, srv.Queries())
	require.Len(t, srv.Updates(), 10)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_LogoutFailureDoesNotFailRun ignores logout errors.
func TestAck_LogoutFailureDoesNotFailRun(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t,
		controllertest.WithToken(validToken),
		controllertest.WithAlarms(1),
		controllertest.WithFailingLogout(),
	)

	_, err := runAck(t, srv, &acker.Options{Token: validToken}, "yes\n")
	require.NoError(t, err)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_TokenPriority checks which credential source reaches the controller.
func TestAck_TokenPriority(t *testing.T) {
	t.Parallel()

	tokenFile := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  "+validToken+"\n"), 0o600))

	tests := []struct {
		name    string
		opts    acker.Options
		vars    map[string]string
		wantErr bool
	}{
		{
			name: "flag beats AUTH_TOKEN",
			opts: acker.Options{Token: validToken},
			vars: map[string]string{auth.EnvAuthToken: "bogus"},
		},
		{
			name: "file beats environment",
			opts: acker.Options{TokenFile: tokenFile},
			vars: map[string]string{auth.EnvXAuthToken: "bogus", auth.EnvAuthToken: "bogus"},
		},
		{
			name: "X_AUTH_TOKEN beats AUTH_TOKEN",
			vars: map[string]string{auth.EnvXAuthToken: validToken, auth.EnvAuthToken: "bogus"},
		},
		{
			name: "AUTH_TOKEN",
			vars: map[string]string{auth.EnvAuthToken: validToken},
		},
		{
			name:    "invalid flag is not rescued by environment",
			opts:    acker.Options{Token: "bogus"},
			vars:    map[string]string{auth.EnvXAuthToken: validToken},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := controllertest.NewServer(t, controllertest.WithToken(validToken), controllertest.WithAlarms(2))

			opts := tt.opts
			opts.LookupEnv = env(tt.vars)

			_, err := runAck(t, srv, &opts, "yes\n")
			if tt.wantErr {
				require.ErrorIs(t, err, auth.ErrAuthFailure)
				require.Equal(t, 1, srv.Logouts())

				return
			}

			require.NoError(t, err)
			require.Len(t, srv.Updates(), 2)
			require.Zero(t, srv.LoginAttempts())
			require.Equal(t, 1, srv.Logouts())
		})
	}
}

// TestAck_InteractiveLogin retries bad credentials and then acknowledges.
func TestAck_InteractiveLogin(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t,
		controllertest.WithUser("operator@example.com", "s3cret"),
		controllertest.WithAlarms(4),
	)

	stdin := "operator@example.com\nwrong\n operator@example.com \ns3cret\nyes\n"

	out, err := runAck(t, srv, &acker.Options{}, stdin)
	require.NoError(t, err)

	require.Equal(t, 2, srv.LoginAttempts())
	require.Equal(t, 2, strings.Count(out, "email: "))
	require.Len(t, srv.Updates(), 4)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_BlankTokenFileGoesInteractive logs in with credentials when the token file is blank.
func TestAck_BlankTokenFileGoesInteractive(t *testing.T) {
	t.Parallel()

	tokenFile := filepath.Join(t.TempDir(), "token.txt")
	require.NoError(t, os.WriteFile(tokenFile, []byte("\n"), 0o600))

	srv := controllertest.NewServer(t,
		controllertest.WithToken(validToken),
		controllertest.WithUser("operator@example.com", "s3cret"),
		controllertest.WithAlarms(2),
	)

	opts := &acker.Options{
		TokenFile: tokenFile,
		LookupEnv: env(map[string]string{auth.EnvAuthToken: validToken}),
	}

	out, err := runAck(t, srv, opts, "operator@example.com\ns3cret\nyes\n")
	require.NoError(t, err)

	require.Contains(t, out, "email: ")
	require.Equal(t, 1, srv.LoginAttempts())
	require.Len(t, srv.Updates(), 2)
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_InteractiveLoginInputClosed stops when stdin runs out.
func TestAck_InteractiveLoginInputClosed(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithUser("operator@example.com", "s3cret"))

	_, err := runAck(t, srv, &acker.Options{}, "operator@example.com\nwrong\n")
	require.Error(t, err)

	require.Equal(t, 1, srv.LoginAttempts())
	require.Equal(t, 1, srv.Logouts())
}

// TestAck_NegativeLimit is rejected before any call.
func TestAck_NegativeLimit(t *testing.T) {
	t.Parallel()

	srv := controllertest.NewServer(t, controllertest.WithToken(validToken))

	_, err := runAck(t, srv, &acker.Options{Token: validToken, Limit: -1}, "yes\n")
	require.Error(t, err)

	require.Zero(t, srv.Logouts())
	require.Empty(t, srv.RequestIDs())
}
