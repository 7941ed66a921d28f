package sweep

import (
	"regexp"
	"strings"
	"time"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
)

// RFC 5545 §3.3.10 UNTIL in UTC form, e.g. UNTIL=20170317T083000Z.
var untilRe = regexp.MustCompile(`UNTIL=(\d{8}T\d{6}Z)`)

// untilLayout reads date, hour and minute; seconds and Z are dropped.
const untilLayout = "20060102T1504"

// ruleUntil extracts the UNTIL instant of a single recurrence line.
// ok is false for non-RRULE lines and open-ended rules.
func ruleUntil(rule string) (until time.Time, ok bool) {
	if !strings.Contains(rule, "RRULE") {
		return time.Time{}, false
	}
	m := untilRe.FindStringSubmatch(rule)
	if m == nil {
		return time.Time{}, false
	}
	until, err := time.Parse(untilLayout, m[1][:len(untilLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return until, true
}

// IsPassed reports whether event ended strictly before max.
//
// A series definition is passed as soon as one of its RRULEs has an UNTIL
// before max; a series without UNTIL never is. Other events compare their
// end instant.
func IsPassed(event core.Event, max time.Time) (bool, error) {
	if event.IsSeries() {
		for _, rule := range event.Recurrence {
			if until, ok := ruleUntil(rule); ok && until.Before(max) {
				return true, nil
			}
		}
		return false, nil
	}

	end, err := event.End.Time()
	if err != nil {
		return false, err
	}
	return end.Before(max), nil
}
