package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CalendarProvider is a remote calendar the local backend syncs with.
// Events are all-day: Start is the event date at midnight UTC and End is
// the following day.
type CalendarProvider interface {
	GetCalendar(calendarID string) error
	AddEvent(calendarID string, event *Event) (string, error)
	UpdateEvent(calendarID string, eventID string, event *Event) error
	DeleteEvent(calendarID string, eventID string) error
	ListEvents(calendarID string, timeMin, timeMax time.Time) ([]*Event, error)
	GetEvent(calendarID string, eventID string) (*Event, error)
}

type Event struct {
	ID      string
	Summary string
	Start   time.Time
	End     time.Time
	Status  string
}

func newAllDayEvent(id string, date time.Time, summary string) *Event {
	start := truncateDate(date)
	return &Event{
		ID:      id,
		Summary: summary,
		Start:   start,
		End:     start.AddDate(0, 0, 1),
		Status:  "confirmed",
	}
}

// RemoteError is a request the remote calendar answered with an HTTP error
// status.
type RemoteError struct {
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote calendar answered %d %s: %v", e.Status, http.StatusText(e.Status), e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Rejected reports whether the remote refused the request itself. Timeouts,
// rate limits and server errors are not rejections.
func (e *RemoteError) Rejected() bool {
	switch e.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return e.Status >= 400 && e.Status < 500
}

// isRejection reports whether err is a definite refusal from the remote
// calendar. Anything else may succeed when retried.
func isRejection(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Rejected()
}

// isRemoteNotFound reports whether the remote has no such event.
func isRemoteNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && (re.Status == http.StatusNotFound || re.Status == http.StatusGone)
}
