// Package logger wraps zap with a process-wide sugared logger.
//
// The logger is carried through context.Context: callers name their scope
// with WithName, attach fields with WithKV, and log through the package
// helpers (Info, InfoKV, WarnKV, ...) which pick the logger from the context.
// The same sugared logger satisfies resty's request logger interface, so the
// HTTP client logs through it as well.
package logger
