package event

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	// FieldID is the event identifier attribute.
	FieldID = "id"
	// FieldAcknowledged is the attribute flipped to acknowledge an event.
	FieldAcknowledged = "acknowledged"

	// AcknowledgedValue is written into FieldAcknowledged on acknowledgment.
	AcknowledgedValue = "true"
)

// Codec decodes numbers as json.Number so that attributes the program does
// not touch are re-submitted with their exact original value.
//
//nolint:gochecknoglobals // Frozen jsoniter configs are meant to be shared.
var Codec = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// Event is a controller event record.
type Event map[string]any

// ID returns the event identifier or an empty string when absent.
func (e Event) ID() string {
	value, ok := e[FieldID]
	if !ok || value == nil {
		return ""
	}

	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprint(value)
}

// IsAcknowledged reports whether the acknowledged flag is set.
// The controller has been seen to send both booleans and "true"/"false" strings.
func (e Event) IsAcknowledged() bool {
	switch v := e[FieldAcknowledged].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}

// Acknowledge sets the acknowledged flag in place.
// The flag is submitted as the string "true", the form the events API accepts on update.
func (e Event) Acknowledge() {
	e[FieldAcknowledged] = AcknowledgedValue
}

// Clone returns a shallow copy of the record.
func (e Event) Clone() Event {
	if e == nil {
		return nil
	}

	cloned := make(Event, len(e))
	for k, v := range e {
		cloned[k] = v
	}

	return cloned
}
