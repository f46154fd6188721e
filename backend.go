package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/samber/mo"
)

// LoginRequest carries everything a backend needs to open a calendar.
type LoginRequest struct {
	Identity   string // calendar ID or CalDAV calendar URL
	GMTOffset  int    // minutes east of UTC
	Username   string
	Password   string
	RangeStart time.Time
	RangeEnd   time.Time
	Fresh      bool // discard the local cache before loading
}

// CalendarBackend owns persistence and synchronisation of events. Event
// payloads are JSON documents shaped like EventRecord.
type CalendarBackend interface {
	Login(ctx context.Context, req LoginRequest) error
	GoOffline(ctx context.Context) error
	GoOnline(ctx context.Context) error
	IsOnline() bool
	Refresh(ctx context.Context) ([]byte, error)
	AddEvent(ctx context.Context, id string, date time.Time, title string) ([]byte, error)
	UpdateEvent(ctx context.Context, id string, title string) error
	DeleteEvent(ctx context.Context, id string) error
	GetConflicts(ctx context.Context) (mo.Option[string], error)
}

// EventRecord is the wire representation of an event.
type EventRecord struct {
	EventID string `json:"eventid"`
	Day     string `json:"day"`
	Date    string `json:"date"`
	Title   string `json:"title"`
}

// rawEventRecord detects missing fields while decoding.
type rawEventRecord struct {
	EventID *string `json:"eventid"`
	Day     *string `json:"day"`
	Date    *string `json:"date"`
	Title   *string `json:"title"`
}

func newEventRecord(id string, date time.Time, title string) EventRecord {
	return EventRecord{
		EventID: id,
		Day:     weekdayName(date),
		Date:    FormatDate(date),
		Title:   title,
	}
}

// ParsedDate returns the record's date.
func (r EventRecord) ParsedDate() (time.Time, error) {
	return ParseDate(r.Date)
}

// DecodeEventList decodes a JSON array of event records. Anything that does
// not match the schema is rejected with a *BackendError.
func DecodeEventList(payload []byte) ([]EventRecord, error) {
	if first := firstByte(payload); first != '[' {
		return nil, &BackendError{Op: "decode", Err: errors.New("event list must be a JSON array")}
	}

	var raw []rawEventRecord
	if err := decodeStrict(payload, &raw); err != nil {
		return nil, &BackendError{Op: "decode", Err: err}
	}

	records := make([]EventRecord, 0, len(raw))
	for i, r := range raw {
		rec, err := r.validate()
		if err != nil {
			return nil, &BackendError{Op: "decode", Err: fmt.Errorf("event %d: %w", i, err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

// DecodeEvent decodes a single JSON event record.
func DecodeEvent(payload []byte) (EventRecord, error) {
	if first := firstByte(payload); first != '{' {
		return EventRecord{}, &BackendError{Op: "decode", Err: errors.New("event must be a JSON object")}
	}

	var raw rawEventRecord
	if err := decodeStrict(payload, &raw); err != nil {
		return EventRecord{}, &BackendError{Op: "decode", Err: err}
	}
	rec, err := raw.validate()
	if err != nil {
		return EventRecord{}, &BackendError{Op: "decode", Err: err}
	}
	return rec, nil
}

func encodeEventList(records []EventRecord) ([]byte, error) {
	if records == nil {
		records = []EventRecord{}
	}
	return json.Marshal(records)
}

func encodeEvent(record EventRecord) ([]byte, error) {
	return json.Marshal(record)
}

func (r rawEventRecord) validate() (EventRecord, error) {
	switch {
	case r.EventID == nil || *r.EventID == "":
		return EventRecord{}, errors.New("missing eventid")
	case r.Day == nil:
		return EventRecord{}, errors.New("missing day")
	case r.Date == nil:
		return EventRecord{}, errors.New("missing date")
	case r.Title == nil:
		return EventRecord{}, errors.New("missing title")
	}

	if !isWeekdayName(*r.Day) {
		return EventRecord{}, fmt.Errorf("invalid day %q", *r.Day)
	}
	if _, err := ParseDate(*r.Date); err != nil {
		return EventRecord{}, fmt.Errorf("invalid date %q: %w", *r.Date, err)
	}

	return EventRecord{
		EventID: *r.EventID,
		Day:     *r.Day,
		Date:    *r.Date,
		Title:   *r.Title,
	}, nil
}

func decodeStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func firstByte(payload []byte) byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func isWeekdayName(name string) bool {
	for _, n := range weekdayNames {
		if n == name {
			return true
		}
	}
	return false
}
