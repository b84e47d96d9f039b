// Package event contains the domain types for controller alarm events.
//
// An Event is kept as an opaque JSON object: only the id and the
// acknowledged flag are interpreted, everything else is passed back to the
// controller as received. Query builds the fixed event-query body and
// EffectiveLimit/BatchSize carry the pagination arithmetic.
package event
