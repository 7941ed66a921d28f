package outlook

import (
	"context"
	"fmt"
	"time"

	abstractions "github.com/microsoft/kiota-abstractions-go"
	"github.com/microsoftgraph/msgraph-sdk-go/models"
	"github.com/microsoftgraph/msgraph-sdk-go/users"

	"github.com/b0uh/Google-Calendar-events-deletion/internal/core"
)

var (
	listFields = []string{
		"id", "subject", "start", "end", "isAllDay", "isCancelled", "seriesMasterId",
	}
	getFields = append(append([]string{}, listFields...), "recurrence")
)

func utcHeaders() *abstractions.RequestHeaders {
	headers := abstractions.NewRequestHeaders()
	headers.Add("Prefer", `outlook.timezone="UTC"`)
	return headers
}

// ListEvents fetches one page of the calendar view, which expands recurring
// series into occurrences. The page token is Graph's @odata.nextLink.
func (o *OutlookAdapter) ListEvents(ctx context.Context, w core.Window, pageToken string) (core.Page, error) {
	var result models.EventCollectionResponseable
	var err error

	if pageToken == "" {
		startStr := w.Min.UTC().Format(time.RFC3339)
		endStr := w.Max.UTC().Format(time.RFC3339)
		top := int32(core.PageSize)
		config := &users.ItemCalendarViewRequestBuilderGetRequestConfiguration{
			QueryParameters: &users.ItemCalendarViewRequestBuilderGetQueryParameters{
				StartDateTime: &startStr,
				EndDateTime:   &endStr,
				Select:        listFields,
				Orderby:       []string{"start/dateTime"},
				Top:           &top,
			},
			Headers: utcHeaders(),
		}
		result, err = o.client.Me().CalendarView().Get(ctx, config)
	} else {
		// The next link already carries every query parameter.
		config := &users.ItemCalendarViewRequestBuilderGetRequestConfiguration{
			Headers: utcHeaders(),
		}
		result, err = o.client.Me().CalendarView().WithUrl(pageToken).Get(ctx, config)
	}
	if err != nil {
		return core.Page{}, fmt.Errorf("fetch calendar view: %w", err)
	}

	page := core.Page{NextPageToken: derefStr(result.GetOdataNextLink())}
	for _, item := range result.GetValue() {
		if derefBool(item.GetIsCancelled()) {
			continue
		}
		page.Events = append(page.Events, parseGraphEvent(item))
	}
	return page, nil
}

// GetEvent fetches an event with its recurrence, used for series masters.
func (o *OutlookAdapter) GetEvent(ctx context.Context, id string) (core.Event, error) {
	config := &users.ItemEventsEventItemRequestBuilderGetRequestConfiguration{
		QueryParameters: &users.ItemEventsEventItemRequestBuilderGetQueryParameters{
			Select: getFields,
		},
		Headers: utcHeaders(),
	}
	item, err := o.client.Me().Events().ByEventId(id).Get(ctx, config)
	if err != nil {
		return core.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return parseGraphEvent(item), nil
}

// DeleteEvent moves an event to Deleted Items. Deleting a series master
// removes every occurrence.
func (o *OutlookAdapter) DeleteEvent(ctx context.Context, id string) core.DeleteResult {
	err := o.client.Me().Events().ByEventId(id).Delete(ctx, nil)
	if err == nil {
		return core.Deleted()
	}
	if isGone(err) {
		return core.AlreadyDeleted()
	}
	return core.Failed(fmt.Errorf("delete event %s: %w", id, err))
}

// parseGraphEvent converts a Graph SDK event into our unified core.Event.
func parseGraphEvent(item models.Eventable) core.Event {
	if item == nil {
		return core.Event{}
	}
	allDay := derefBool(item.GetIsAllDay())
	return core.Event{
		ID:               derefStr(item.GetId()),
		RecurringEventID: derefStr(item.GetSeriesMasterId()),
		Recurrence:       recurrenceRules(item.GetRecurrence()),
		Start:            parseSDKDateTime(item.GetStart(), allDay),
		End:              parseSDKDateTime(item.GetEnd(), allDay),
		Summary:          derefStr(item.GetSubject()),
	}
}

// parseSDKDateTime converts a Graph SDK DateTimeTimeZone to an EventTime.
// Times are in UTC because we set the Prefer: outlook.timezone="UTC" header.
func parseSDKDateTime(dt models.DateTimeTimeZoneable, allDay bool) core.EventTime {
	if dt == nil {
		return core.EventTime{}
	}
	s := derefStr(dt.GetDateTime())
	if s == "" {
		return core.EventTime{}
	}
	if allDay && len(s) >= len("2006-01-02") {
		return core.EventTime{Date: s[:len("2006-01-02")]}
	}
	return core.EventTime{DateTime: s}
}
