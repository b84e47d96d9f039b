// Package version exposes build metadata for alarm-ack.
//
// Version, Commit and BuildTime are injected via -ldflags and default to
// local-build values. UserAgent renders the identifier sent to the controller.
package version
