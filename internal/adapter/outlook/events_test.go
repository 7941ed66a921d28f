package outlook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/microsoft/kiota-abstractions-go/authentication"
	msgraphsdk "github.com/microsoftgraph/msgraph-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
)

// graphRequest is what the fake Graph server saw.
type graphRequest struct {
	Method string
	Path   string
	Query  url.Values
	Prefer []string
}

type graphLog struct {
	mu       sync.Mutex
	requests []graphRequest
}

func (l *graphLog) record(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.requests = append(l.requests, graphRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Prefer: r.Header.Values("Prefer"),
	})
}

func (l *graphLog) all() []graphRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]graphRequest(nil), l.requests...)
}

func newTestAdapter(t *testing.T, mux *http.ServeMux) *OutlookAdapter {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	adapter, err := msgraphsdk.NewGraphRequestAdapter(&authentication.AnonymousAuthenticationProvider{})
	require.NoError(t, err)
	adapter.SetBaseUrl(srv.URL + "/v1.0")

	return &OutlookAdapter{client: msgraphsdk.NewGraphServiceClient(adapter)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func graphEvent(id, end string, extra map[string]any) map[string]any {
	e := map[string]any{
		"id":      id,
		"subject": id,
		"start":   map[string]any{"dateTime": end, "timeZone": "UTC"},
		"end":     map[string]any{"dateTime": end, "timeZone": "UTC"},
	}
	for k, v := range extra {
		e[k] = v
	}
	return e
}

func TestListEvents_PagesAndFilters(t *testing.T) {
	var log graphLog
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/me/calendarView", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		if r.URL.Query().Get("$skiptoken") == "page2" {
			writeJSON(w, http.StatusOK, map[string]any{
				"value": []any{
					graphEvent("occ1", "2017-03-10T08:30:00.0000000", map[string]any{"seriesMasterId": "master1"}),
				},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"value": []any{
				graphEvent("e1", "2017-02-01T10:00:00.0000000", nil),
				graphEvent("cancelled", "2017-02-02T10:00:00.0000000", map[string]any{"isCancelled": true}),
			},
			"@odata.nextLink": "http://" + r.Host + "/v1.0/me/calendarView?$skiptoken=page2",
		})
	})
	a := newTestAdapter(t, mux)

	w := core.NewWindow(
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2017, 3, 18, 0, 0, 0, 0, time.UTC),
	)

	first, err := a.ListEvents(context.Background(), w, "")
	require.NoError(t, err)
	require.Len(t, first.Events, 1)
	assert.Equal(t, "e1", first.Events[0].ID)
	assert.Contains(t, first.NextPageToken, "$skiptoken=page2")

	second, err := a.ListEvents(context.Background(), w, first.NextPageToken)
	require.NoError(t, err)
	require.Len(t, second.Events, 1)
	assert.Equal(t, "master1", second.Events[0].RecurringEventID)
	assert.Empty(t, second.NextPageToken)

	requests := log.all()
	require.Len(t, requests, 2)

	q := requests[0].Query
	assert.Equal(t, "100", q.Get("$top"))
	assert.Equal(t, "2000-01-01T00:00:00Z", q.Get("startDateTime"))
	assert.Equal(t, "2017-03-18T00:00:00Z", q.Get("endDateTime"))
	assert.Equal(t, "start/dateTime", q.Get("$orderby"))
	assert.Contains(t, requests[0].Prefer, `outlook.timezone="UTC"`)

	assert.Equal(t, "page2", requests[1].Query.Get("$skiptoken"))
	assert.Empty(t, requests[1].Query.Get("$top"))
	assert.Contains(t, requests[1].Prefer, `outlook.timezone="UTC"`)
}

func TestListEvents_Error(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/me/calendarView", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error": map[string]any{"code": "ErrorAccessDenied", "message": "Access is denied."},
		})
	})
	a := newTestAdapter(t, mux)

	_, err := a.ListEvents(context.Background(), core.Window{}, "")

	assert.ErrorContains(t, err, "fetch calendar view")
}

func TestGetEvent_SelectsRecurrence(t *testing.T) {
	var log graphLog
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/me/events/{id}", func(w http.ResponseWriter, r *http.Request) {
		log.record(r)
		writeJSON(w, http.StatusOK, graphEvent(r.PathValue("id"), "2017-01-06T11:00:00.0000000", map[string]any{
			"recurrence": map[string]any{
				"pattern": map[string]any{"type": "weekly", "interval": 1, "daysOfWeek": []string{"friday"}},
				"range":   map[string]any{"type": "endDate", "startDate": "2017-01-06", "endDate": "2017-03-17"},
			},
		}))
	})
	a := newTestAdapter(t, mux)

	event, err := a.GetEvent(context.Background(), "master1")
	require.NoError(t, err)

	assert.Equal(t, "master1", event.ID)
	assert.Equal(t, []string{"RRULE:FREQ=WEEKLY;UNTIL=20170317T235959Z"}, event.Recurrence)

	requests := log.all()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Query.Get("$select"), "recurrence")
	assert.Contains(t, requests[0].Prefer, `outlook.timezone="UTC"`)
}

func TestDeleteEvent_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   core.DeleteStatus
	}{
		{"deleted", http.StatusNoContent, core.StatusDeleted},
		{"not found", http.StatusNotFound, core.StatusAlreadyDeleted},
		{"forbidden", http.StatusForbidden, core.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var log graphLog
			mux := http.NewServeMux()
			mux.HandleFunc("DELETE /v1.0/me/events/{id}", func(w http.ResponseWriter, r *http.Request) {
				log.record(r)
				if tt.status == http.StatusNoContent {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				writeJSON(w, tt.status, map[string]any{
					"error": map[string]any{"code": "ErrorItemNotFound", "message": "The specified object was not found in the store."},
				})
			})
			a := newTestAdapter(t, mux)

			result := a.DeleteEvent(context.Background(), "evt1")

			assert.Equal(t, tt.want, result.Status)
			if tt.want == core.StatusFailed {
				assert.ErrorContains(t, result.Err, "delete event evt1")
			}
			requests := log.all()
			require.Len(t, requests, 1)
			assert.Equal(t, "/v1.0/me/events/evt1", requests[0].Path)
		})
	}
}
