// Package acker bulk-acknowledges unacknowledged alarm events.
//
// Run loads settings, authenticates, asks the operator to confirm, then
// pages through the controller's event query in batches of 100 and
// re-submits every returned event with its acknowledged flag set. The
// session is logged out on every exit path.
package acker
