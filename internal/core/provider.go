package core

import (
	"context"
)

// PageSize bounds the number of events requested per listing page.
const PageSize = 100

// Page is one page of an event listing.
type Page struct {
	Events []Event
	// Empty when the listing is exhausted.
	NextPageToken string
}

// DeleteStatus tags the outcome of a single delete request.
type DeleteStatus int

const (
	StatusDeleted DeleteStatus = iota
	// The service reports the event no longer exists
	StatusAlreadyDeleted
	// Any other failure, see DeleteResult.Err
	StatusFailed
)

func (s DeleteStatus) String() string {
	switch s {
	case StatusDeleted:
		return "DELETED"
	case StatusAlreadyDeleted:
		return "ALREADY DELETED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// DeleteResult is returned by Service.DeleteEvent instead of an error so
// callers match on the outcome explicitly.
type DeleteResult struct {
	Status DeleteStatus
	Err    error
}

// Deleted reports a successful deletion.
func Deleted() DeleteResult { return DeleteResult{Status: StatusDeleted} }

// AlreadyDeleted reports that the event was already gone.
func AlreadyDeleted() DeleteResult { return DeleteResult{Status: StatusAlreadyDeleted} }

// Failed reports a failed deletion with its reason.
func Failed(err error) DeleteResult { return DeleteResult{Status: StatusFailed, Err: err} }

// Service is the calendar backend the sweeper works against.
// Google and Outlook adapters implement it; tests substitute a fake.
type Service interface {
	// ListEvents returns one page of single-occurrence events inside w,
	// ordered by start time. An empty pageToken requests the first page.
	ListEvents(ctx context.Context, w Window, pageToken string) (Page, error)
	// GetEvent fetches a single event, typically a recurring series.
	GetEvent(ctx context.Context, id string) (Event, error)
	// DeleteEvent removes an event without notifying attendees.
	DeleteEvent(ctx context.Context, id string) DeleteResult
}
