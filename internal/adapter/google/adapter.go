package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
)

// PrimaryCalendar is the signed-in user's main calendar.
const PrimaryCalendar = "primary"

// Scope grants read/write access to events, nothing else.
const Scope = calendar.CalendarEventsScope

// GoogleAdapter implements core.Service over the Google Calendar API v3.
type GoogleAdapter struct {
	service    *calendar.Service
	calendarID string
}

// NewGoogleAdapter builds the Calendar service. Credentials are supplied
// through opts, typically option.WithTokenSource.
func NewGoogleAdapter(ctx context.Context, calendarID string, opts ...option.ClientOption) (*GoogleAdapter, error) {
	if calendarID == "" {
		calendarID = PrimaryCalendar
	}
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleAdapter{service: service, calendarID: calendarID}, nil
}

// ListEvents fetches one page of expanded events inside w.
func (g *GoogleAdapter) ListEvents(ctx context.Context, w core.Window, pageToken string) (core.Page, error) {
	// Google API requires RFC3339 format
	req := g.service.Events.List(g.calendarID).
		TimeMin(w.Min.UTC().Format(time.RFC3339)).
		TimeMax(w.Max.UTC().Format(time.RFC3339)).
		MaxResults(core.PageSize).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	if pageToken != "" {
		req = req.PageToken(pageToken)
	}

	eventsResult, err := req.Do()
	if err != nil {
		return core.Page{}, fmt.Errorf("api call failed for calendar %s: %w", g.calendarID, err)
	}

	page := core.Page{
		Events:        make([]core.Event, 0, len(eventsResult.Items)),
		NextPageToken: eventsResult.NextPageToken,
	}
	for _, item := range eventsResult.Items {
		page.Events = append(page.Events, parseEvent(item))
	}
	return page, nil
}

// GetEvent fetches a single event, usually the definition of a series.
func (g *GoogleAdapter) GetEvent(ctx context.Context, id string) (core.Event, error) {
	item, err := g.service.Events.Get(g.calendarID, id).Context(ctx).Do()
	if err != nil {
		return core.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return parseEvent(item), nil
}

// DeleteEvent deletes an event without sending cancellation emails.
func (g *GoogleAdapter) DeleteEvent(ctx context.Context, id string) core.DeleteResult {
	err := g.service.Events.Delete(g.calendarID, id).
		SendUpdates("none").
		Context(ctx).
		Do()
	if err == nil {
		return core.Deleted()
	}
	if isGone(err) {
		return core.AlreadyDeleted()
	}
	return core.Failed(fmt.Errorf("delete event %s: %w", id, err))
}

// isGone reports a 410 response. It is expected when an instance's series
// was deleted just before.
func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusGone
}

// parseEvent converts a Google Calendar event to our unified Event type.
func parseEvent(item *calendar.Event) core.Event {
	if item == nil {
		return core.Event{}
	}
	return core.Event{
		ID:               item.Id,
		RecurringEventID: item.RecurringEventId,
		Recurrence:       item.Recurrence,
		Start:            parseEventTime(item.Start),
		End:              parseEventTime(item.End),
		Summary:          item.Summary,
	}
}

func parseEventTime(dt *calendar.EventDateTime) core.EventTime {
	if dt == nil {
		return core.EventTime{}
	}
	return core.EventTime{Date: dt.Date, DateTime: dt.DateTime}
}
