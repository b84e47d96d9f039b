// Package auth establishes the controller session for alarm-ack.
//
// Credentials are taken from the first available source: the --token flag,
// the --authtokenfile file, X_AUTH_TOKEN, AUTH_TOKEN, and finally an
// interactive email/password prompt. Tokens are validated once and never
// retried; interactive login repeats until it succeeds.
package auth
