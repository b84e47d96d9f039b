// Package integration runs alarm-ack end to end against the fake controller.
package integration
