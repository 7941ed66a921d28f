package outlook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoft/kiota-abstractions-go/serialization"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/models/odataerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
)

func ptr[T any](v T) *T { return &v }

func graphTime(s string) models.DateTimeTimeZoneable {
	dt := models.NewDateTimeTimeZone()
	dt.SetDateTime(ptr(s))
	dt.SetTimeZone(ptr("UTC"))
	return dt
}

func weeklyUntil(end time.Time) models.PatternedRecurrenceable {
	pattern := models.NewRecurrencePattern()
	pattern.SetTypeEscaped(ptr(models.WEEKLY_RECURRENCEPATTERNTYPE))
	pattern.SetInterval(ptr(int32(2)))

	rng := models.NewRecurrenceRange()
	rng.SetTypeEscaped(ptr(models.ENDDATE_RECURRENCERANGETYPE))
	rng.SetEndDate(serialization.NewDateOnly(end))

	rec := models.NewPatternedRecurrence()
	rec.SetPattern(pattern)
	rec.SetRangeEscaped(rng)
	return rec
}

func TestParseGraphEvent_Occurrence(t *testing.T) {
	item := models.NewEvent()
	item.SetId(ptr("occ1"))
	item.SetSeriesMasterId(ptr("master1"))
	item.SetSubject(ptr("1:1"))
	item.SetStart(graphTime("2024-03-04T09:00:00.0000000"))
	item.SetEnd(graphTime("2024-03-04T09:30:00.0000000"))

	event := parseGraphEvent(item)

	assert.Equal(t, "occ1", event.ID)
	assert.Equal(t, "master1", event.RecurringEventID)
	assert.True(t, event.IsInstance())
	assert.False(t, event.IsSeries())

	end, err := event.End.Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), end)
}

func TestParseGraphEvent_AllDay(t *testing.T) {
	item := models.NewEvent()
	item.SetId(ptr("holiday"))
	item.SetIsAllDay(ptr(true))
	item.SetStart(graphTime("2024-12-25T00:00:00.0000000"))
	item.SetEnd(graphTime("2024-12-26T00:00:00.0000000"))

	event := parseGraphEvent(item)

	assert.Equal(t, core.EventTime{Date: "2024-12-25"}, event.Start)
	assert.Equal(t, core.EventTime{Date: "2024-12-26"}, event.End)
}

func TestParseGraphEvent_Nil(t *testing.T) {
	assert.Equal(t, core.Event{}, parseGraphEvent(nil))
	assert.Equal(t, core.EventTime{}, parseSDKDateTime(nil, false))
}

func TestRecurrenceRules(t *testing.T) {
	t.Run("end date", func(t *testing.T) {
		rules := recurrenceRules(weeklyUntil(time.Date(2017, 3, 17, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;INTERVAL=2;UNTIL=20170317T235959Z"}, rules)
	})

	t.Run("no end", func(t *testing.T) {
		pattern := models.NewRecurrencePattern()
		pattern.SetTypeEscaped(ptr(models.ABSOLUTEMONTHLY_RECURRENCEPATTERNTYPE))
		pattern.SetInterval(ptr(int32(1)))
		rng := models.NewRecurrenceRange()
		rng.SetTypeEscaped(ptr(models.NOEND_RECURRENCERANGETYPE))
		rec := models.NewPatternedRecurrence()
		rec.SetPattern(pattern)
		rec.SetRangeEscaped(rng)

		assert.Equal(t, []string{"RRULE:FREQ=MONTHLY"}, recurrenceRules(rec))
	})

	t.Run("numbered", func(t *testing.T) {
		pattern := models.NewRecurrencePattern()
		pattern.SetTypeEscaped(ptr(models.DAILY_RECURRENCEPATTERNTYPE))
		rng := models.NewRecurrenceRange()
		rng.SetTypeEscaped(ptr(models.NUMBERED_RECURRENCERANGETYPE))
		rng.SetNumberOfOccurrences(ptr(int32(10)))
		rec := models.NewPatternedRecurrence()
		rec.SetPattern(pattern)
		rec.SetRangeEscaped(rng)

		assert.Equal(t, []string{"RRULE:FREQ=DAILY;COUNT=10"}, recurrenceRules(rec))
	})

	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, recurrenceRules(nil))
	})
}

func TestParseGraphEvent_SeriesMaster(t *testing.T) {
	item := models.NewEvent()
	item.SetId(ptr("master1"))
	item.SetSubject(ptr("Sprint review"))
	item.SetStart(graphTime("2017-01-06T10:00:00.0000000"))
	item.SetEnd(graphTime("2017-01-06T11:00:00.0000000"))
	item.SetRecurrence(weeklyUntil(time.Date(2017, 3, 17, 0, 0, 0, 0, time.UTC)))

	event := parseGraphEvent(item)

	assert.True(t, event.IsSeries())
	assert.Contains(t, event.Recurrence[0], "UNTIL=20170317T235959Z")
}

func TestIsGone(t *testing.T) {
	notFound := odataerrors.NewODataError()
	notFound.ResponseStatusCode = http.StatusNotFound

	forbidden := odataerrors.NewODataError()
	forbidden.ResponseStatusCode = http.StatusForbidden

	assert.True(t, isGone(fmt.Errorf("wrapped: %w", notFound)))
	assert.False(t, isGone(forbidden))
	assert.True(t, isGone(&abstractions.ApiError{ResponseStatusCode: http.StatusGone}))
	assert.False(t, isGone(errors.New("connection reset")))
}

func TestTokenCredential(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	cred := &tokenCredential{source: oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: "graph-token",
		Expiry:      expiry,
	})}

	tok, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "graph-token", tok.Token)
	assert.True(t, tok.ExpiresOn.Equal(expiry))
}

func TestOAuthConfig(t *testing.T) {
	config := OAuthConfig("client-id", "")

	assert.Equal(t, "client-id", config.ClientID)
	assert.Contains(t, config.Endpoint.AuthURL, "/common/")
	assert.Contains(t, config.Scopes, "offline_access")
}
