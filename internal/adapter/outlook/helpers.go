package outlook

import (
	"fmt"
	"strings"
	"time"

	"github.com/microsoftgraph/msgraph-sdk-go/models"
)

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

// recurrenceRules renders a Graph patternedRecurrence as a single RFC 5545
// RRULE line. Only end-dated ranges get an UNTIL, set to the last second of
// the (inclusive) end date in UTC.
func recurrenceRules(r models.PatternedRecurrenceable) []string {
	if r == nil || r.GetPattern() == nil {
		return nil
	}
	pattern := r.GetPattern()

	parts := []string{"FREQ=" + frequency(pattern.GetTypeEscaped())}
	if interval := pattern.GetInterval(); interval != nil && *interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", *interval))
	}

	if rng := r.GetRangeEscaped(); rng != nil {
		switch rangeType := rng.GetTypeEscaped(); {
		case rangeType != nil && *rangeType == models.ENDDATE_RECURRENCERANGETYPE && rng.GetEndDate() != nil:
			if end, err := time.Parse("2006-01-02", rng.GetEndDate().String()); err == nil {
				parts = append(parts, "UNTIL="+end.Format("20060102")+"T235959Z")
			}
		case rangeType != nil && *rangeType == models.NUMBERED_RECURRENCERANGETYPE:
			if n := rng.GetNumberOfOccurrences(); n != nil {
				parts = append(parts, fmt.Sprintf("COUNT=%d", *n))
			}
		}
	}

	return []string{"RRULE:" + strings.Join(parts, ";")}
}

func frequency(t *models.RecurrencePatternType) string {
	if t == nil {
		return "DAILY"
	}
	switch *t {
	case models.WEEKLY_RECURRENCEPATTERNTYPE:
		return "WEEKLY"
	case models.ABSOLUTEMONTHLY_RECURRENCEPATTERNTYPE, models.RELATIVEMONTHLY_RECURRENCEPATTERNTYPE:
		return "MONTHLY"
	case models.ABSOLUTEYEARLY_RECURRENCEPATTERNTYPE, models.RELATIVEYEARLY_RECURRENCEPATTERNTYPE:
		return "YEARLY"
	default:
		return "DAILY"
	}
}
