package core

import (
	"fmt"
	"time"
)

// EventTime is the start or end of an event as the calendar service sends it.
// Exactly one of Date (all-day, "2006-01-02") or DateTime (RFC 3339) is set.
type EventTime struct {
	Date     string
	DateTime string
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Time parses the wall-clock instant of t. The UTC offset of DateTime is
// ignored: only the first 19 characters are read.
func (t EventTime) Time() (time.Time, error) {
	if t.DateTime != "" {
		s := t.DateTime
		if len(s) > len(dateTimeLayout) {
			s = s[:len(dateTimeLayout)]
		}
		return time.Parse(dateTimeLayout, s)
	}
	if t.Date != "" {
		return time.Parse(dateLayout, t.Date)
	}
	return time.Time{}, fmt.Errorf("event time has neither date nor dateTime")
}

// Event is the part of a calendar entry the sweeper inspects.
// Adapters (Google, Outlook) convert their data to this format.
type Event struct {
	// Unique ID (provided by the source)
	ID string
	// Series this instance belongs to, empty for non-recurring events
	RecurringEventID string
	// RFC 5545 recurrence lines (RRULE, EXRULE, RDATE, EXDATE).
	// Only set on the series definition itself.
	Recurrence []string
	Start      EventTime
	End        EventTime
	Summary    string
}

// IsInstance reports whether e is an occurrence of a recurring series.
func (e Event) IsInstance() bool {
	return e.RecurringEventID != ""
}

// IsSeries reports whether e is a recurring series definition.
func (e Event) IsSeries() bool {
	return len(e.Recurrence) > 0
}

// Window is the sweep boundary, passed to the service in UTC.
type Window struct {
	Min time.Time
	Max time.Time
}

// NewWindow returns the window [min, max] normalised to UTC.
func NewWindow(min, max time.Time) Window {
	return Window{Min: min.UTC(), Max: max.UTC()}
}
