package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
)

const caldavProductID = "-//bobuk//gcalweek//EN"

type CalDAVProvider struct {
	client    *caldav.Client
	ctx       context.Context
	serverURL string
}

func NewCalDAVProvider(ctx context.Context, serverURL, username, password string) (*CalDAVProvider, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid CalDAV server URL: %w", err)
	}

	var httpClient webdav.HTTPClient = http.DefaultClient
	if username != "" && password != "" {
		httpClient = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}

	c, err := caldav.NewClient(statusClient{next: httpClient}, baseURL.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create CalDAV client: %w", err)
	}

	// Empty path means server root
	if _, err := c.FindCalendars(ctx, ""); err != nil {
		return nil, fmt.Errorf("failed to connect to CalDAV server: %w", err)
	}

	return &CalDAVProvider{
		client:    c,
		ctx:       ctx,
		serverURL: serverURL,
	}, nil
}

func (c *CalDAVProvider) GetCalendar(calendarID string) error {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return fmt.Errorf("invalid calendar URL: %w", err)
	}

	// The calendar home set is usually the parent path
	homeSetPath := "/"
	if calURL.Path != "" {
		parts := strings.Split(strings.TrimRight(calURL.Path, "/"), "/")
		if len(parts) > 1 {
			homeSetPath = strings.Join(parts[:len(parts)-1], "/") + "/"
		}
	}

	var calendars []caldav.Calendar
	err = c.call(func(ctx context.Context) error {
		calendars, err = c.client.FindCalendars(ctx, homeSetPath)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to find calendars: %w", err)
	}

	want := strings.TrimRight(calURL.Path, "/")
	for _, cal := range calendars {
		if strings.TrimRight(cal.Path, "/") == want {
			return nil
		}
	}

	return fmt.Errorf("calendar not found at path: %s", calURL.Path)
}

func (c *CalDAVProvider) AddEvent(calendarID string, event *Event) (string, error) {
	eventUID := "gcalweek-" + uuid.New().String()
	if err := c.putEvent(calendarID, eventUID, event); err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	return eventUID, nil
}

func (c *CalDAVProvider) UpdateEvent(calendarID string, eventID string, event *Event) error {
	if err := c.putEvent(calendarID, eventID, event); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return nil
}

// putEvent creates or replaces <calendar>/<uid>.ics.
func (c *CalDAVProvider) putEvent(calendarID, uid string, event *Event) error {
	path, err := eventPath(calendarID, uid)
	if err != nil {
		return err
	}

	icalEvent := ical.NewEvent()
	icalEvent.Props.SetText(ical.PropUID, uid)
	icalEvent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	icalEvent.Props.SetText(ical.PropSummary, event.Summary)
	icalEvent.Props.SetDate(ical.PropDateTimeStart, event.Start)
	icalEvent.Props.SetDate(ical.PropDateTimeEnd, event.End)
	if event.Status != "" {
		icalEvent.Props.SetText(ical.PropStatus, strings.ToUpper(event.Status))
	} else {
		icalEvent.Props.SetText(ical.PropStatus, "CONFIRMED")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, caldavProductID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Children = append(cal.Children, icalEvent.Component)

	return c.call(func(ctx context.Context) error {
		_, err := c.client.PutCalendarObject(ctx, path, cal)
		return err
	})
}

func (c *CalDAVProvider) DeleteEvent(calendarID string, eventID string) error {
	path, err := eventPath(calendarID, eventID)
	if err != nil {
		return err
	}

	err = c.call(func(ctx context.Context) error {
		return c.client.Client.RemoveAll(ctx, path)
	})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

func (c *CalDAVProvider) ListEvents(calendarID string, timeMin, timeMax time.Time) ([]*Event, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar URL: %w", err)
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			AllComps: true,
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: timeMin,
				End:   timeMax,
			}},
		},
	}

	var objects []caldav.CalendarObject
	err = c.call(func(ctx context.Context) error {
		objects, err = c.client.QueryCalendar(ctx, calURL.Path, query)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	var result []*Event
	for _, obj := range objects {
		if obj.Data == nil {
			continue
		}
		for _, comp := range obj.Data.Children {
			if comp.Name != ical.CompEvent {
				continue
			}
			result = append(result, fromICalEvent(comp))
		}
	}

	return result, nil
}

func (c *CalDAVProvider) GetEvent(calendarID string, eventID string) (*Event, error) {
	path, err := eventPath(calendarID, eventID)
	if err != nil {
		return nil, err
	}

	var object *caldav.CalendarObject
	err = c.call(func(ctx context.Context) error {
		object, err = c.client.GetCalendarObject(ctx, path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	for _, comp := range object.Data.Children {
		if comp.Name == ical.CompEvent {
			return fromICalEvent(comp), nil
		}
	}

	return nil, fmt.Errorf("no VEVENT component found in calendar object")
}

type statusKey struct{}

// statusClient stores the status of each response in the *int the request
// context carries under statusKey. go-webdav keeps its HTTP error type
// internal, so this is how failures get their status.
type statusClient struct {
	next webdav.HTTPClient
}

func (c statusClient) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.next.Do(req)
	if slot, ok := req.Context().Value(statusKey{}).(*int); ok && resp != nil {
		*slot = resp.StatusCode
	}
	return resp, err
}

// call runs fn and tags its error with the last HTTP error status seen.
func (c *CalDAVProvider) call(fn func(ctx context.Context) error) error {
	status := 0
	err := fn(context.WithValue(c.ctx, statusKey{}, &status))
	if err != nil && status >= 400 {
		return &RemoteError{Status: status, Err: err}
	}
	return err
}

func eventPath(calendarID, uid string) (string, error) {
	calURL, err := url.Parse(calendarID)
	if err != nil {
		return "", fmt.Errorf("invalid calendar URL: %w", err)
	}
	return strings.TrimRight(calURL.Path, "/") + "/" + uid + ".ics", nil
}

func fromICalEvent(comp *ical.Component) *Event {
	status := getTextProp(comp.Props, ical.PropStatus)
	if status == "" {
		status = "confirmed"
	} else {
		// iCalendar uses upper case (CONFIRMED, CANCELLED)
		status = strings.ToLower(status)
	}

	start, _ := comp.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	end, _ := comp.Props.DateTime(ical.PropDateTimeEnd, time.UTC)

	return &Event{
		ID:      getTextProp(comp.Props, ical.PropUID),
		Summary: getTextProp(comp.Props, ical.PropSummary),
		Start:   start,
		End:     end,
		Status:  status,
	}
}

func getTextProp(props ical.Props, name string) string {
	prop := props.Get(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}
