package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/alarm-ack/internal/logger"
	"github.com/oshokin/alarm-ack/internal/prompt"
)

const (
	// EnvXAuthToken is checked first among environment variables.
	EnvXAuthToken = "X_AUTH_TOKEN"
	// EnvAuthToken is checked after EnvXAuthToken.
	EnvAuthToken = "AUTH_TOKEN"
)

// Source names where the credentials came from.
type Source string

// Credential sources in priority order.
const (
	SourceFlag        Source = "Auth-Token from CLI arguments"
	SourceFile        Source = "Auth-Token from file"
	SourceEnvXAuth    Source = "environment variable " + EnvXAuthToken
	SourceEnvAuth     Source = "environment variable " + EnvAuthToken
	SourceInteractive Source = "interactive login"
)

// ErrAuthFailure is returned when a supplied token does not authenticate.
var ErrAuthFailure = errors.New("AUTH_TOKEN login failure, please check token")

// Session is the part of the controller client used to authenticate.
type Session interface {
	UseToken(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) error
}

// Options carries the credential inputs.
type Options struct {
	// Token is the --token flag value.
	Token string
	// TokenFile is the --authtokenfile flag value.
	TokenFile string
	// LookupEnv reads environment variables; os.LookupEnv when nil.
	LookupEnv func(key string) (string, bool)
}

// Credential is a resolved token and its source. Token is empty for
// interactive login.
type Credential struct {
	Token  string
	Source Source
	// Skipped is the source that was set but held an empty token.
	Skipped Source
}

// ResolveToken picks the first credential source that is set.
// A source that is set but holds an empty token (an empty file, an exported
// but empty variable) still wins and leads to interactive login.
func ResolveToken(opts *Options) (Credential, error) {
	lookupEnv := opts.LookupEnv
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}

	if opts.Token != "" {
		return Credential{Token: opts.Token, Source: SourceFlag}, nil
	}

	if opts.TokenFile != "" {
		contents, err := os.ReadFile(filepath.Clean(opts.TokenFile))
		if err != nil {
			return Credential{}, fmt.Errorf("read token file: %w", err)
		}

		return selectToken(strings.TrimSpace(string(contents)), SourceFile), nil
	}

	if token, ok := lookupEnv(EnvXAuthToken); ok {
		return selectToken(token, SourceEnvXAuth), nil
	}

	if token, ok := lookupEnv(EnvAuthToken); ok {
		return selectToken(token, SourceEnvAuth), nil
	}

	return Credential{Source: SourceInteractive}, nil
}

// selectToken falls back to interactive login for an empty token.
func selectToken(token string, source Source) Credential {
	if token == "" {
		return Credential{Source: SourceInteractive, Skipped: source}
	}

	return Credential{Token: token, Source: source}
}

// Authenticate establishes the session from the first available source.
// Interactive login re-prompts after every failure until it succeeds, the
// context is cancelled, or input ends.
func Authenticate(ctx context.Context, session Session, reader prompt.SecretReader, opts *Options) error {
	logger.Info(ctx, "Authenticating...")

	credential, err := ResolveToken(opts)
	if err != nil {
		return err
	}

	if credential.Skipped != "" {
		logger.Warnf(ctx, "Empty token in %s, falling back to %s", credential.Skipped, credential.Source)
	}

	logger.Infof(ctx, "Authenticating using %s", credential.Source)

	if credential.Source != SourceInteractive {
		if err := session.UseToken(ctx, credential.Token); err != nil {
			return fmt.Errorf("%w: %w", ErrAuthFailure, err)
		}

		logger.Info(ctx, "Authentication complete")

		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// Credentials are read fresh on every attempt.
		email, password, err := prompt.ReadCredentials(reader)
		if err != nil {
			return fmt.Errorf("interactive login: %w", err)
		}

		if err := session.Login(ctx, email, password); err != nil {
			logger.WarnKV(ctx, "Login failed, please try again", "email", email, "error", err)
			continue
		}

		logger.Info(ctx, "Authentication complete")

		return nil
	}
}
