package event

const (
	// BatchSize is the largest page the event-query API returns per call.
	BatchSize = 100

	// UnboundedLimit stands in for "no limit" in the countdown.
	UnboundedLimit = 999999

	typeAlarm      = "alarm"
	sortOnTime     = "time"
	sortDescending = "descending"
)

// Query is the event-query request body. The shape is fixed; only the
// count varies between calls.
type Query struct {
	Limit        QueryLimit  `json:"limit"`
	Query        QueryFilter `json:"query"`
	View         QueryView   `json:"view"`
	Severity     []string    `json:"severity"`
	Priority     []string    `json:"priority"`
	Acknowledged bool        `json:"acknowledged"`
	Suppressed   bool        `json:"suppressed"`
}

// QueryLimit sets the page size and ordering.
type QueryLimit struct {
	Count     int    `json:"count"`
	SortOn    string `json:"sort_on"`
	SortOrder string `json:"sort_order"`
}

// QueryFilter restricts the event types returned.
type QueryFilter struct {
	Type []string `json:"type"`
}

// QueryView controls whether the controller returns summaries or records.
type QueryView struct {
	Summary bool `json:"summary"`
}

// QueryResult is the part of the event-query response the program reads.
type QueryResult struct {
	Items []Event `json:"items"`
}

// NewQuery returns a query for up to count unacknowledged, unsuppressed
// alarm events, newest first.
func NewQuery(count int) Query {
	return Query{
		Limit: QueryLimit{
			Count:     count,
			SortOn:    sortOnTime,
			SortOrder: sortDescending,
		},
		Query: QueryFilter{
			Type: []string{typeAlarm},
		},
		View:         QueryView{Summary: false},
		Severity:     []string{},
		Priority:     []string{},
		Acknowledged: false,
		Suppressed:   false,
	}
}

// EffectiveLimit maps the requested limit onto the countdown start value.
func EffectiveLimit(requested int) int {
	if requested == 0 {
		return UnboundedLimit
	}

	return requested
}
