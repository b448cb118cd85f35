package groupmeet

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DateLayout is the ISO calendar date format the backend expects.
const DateLayout = "2006-01-02"

// localDateTimeLayout is how the backend serializes LocalDateTime. Fractional
// seconds are accepted when parsing.
const localDateTimeLayout = "2006-01-02T15:04:05"

// EventFormat is how a meeting takes place.
type EventFormat string

const (
	FormatOnline  EventFormat = "ONLINE"
	FormatOffline EventFormat = "OFFLINE"
	FormatHybrid  EventFormat = "HYBRID"
)

// Valid reports whether f is one of the known formats.
func (f EventFormat) Valid() bool {
	switch f {
	case FormatOnline, FormatOffline, FormatHybrid:
		return true
	}
	return false
}

// LocalDateTime is a zone-less backend timestamp, interpreted in the local
// zone. RFC 3339 values with an explicit offset are accepted as well.
type LocalDateTime struct {
	time.Time
}

func (t *LocalDateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		if string(data) == "null" {
			t.Time = time.Time{}
			return nil
		}
		return fmt.Errorf("datetime: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(localDateTimeLayout, s, time.Local)
	if err != nil {
		var rfcErr error
		parsed, rfcErr = time.Parse(time.RFC3339Nano, s)
		if rfcErr != nil {
			return fmt.Errorf("datetime %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(localDateTimeLayout))
}

// DateRange is an inclusive pair of ISO dates.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Validate checks both ends parse and StartDate <= EndDate.
func (r DateRange) Validate() error {
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	end, err := ParseDate(r.EndDate)
	if err != nil {
		return fmt.Errorf("end date: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s", r.EndDate, r.StartDate)
	}
	return nil
}

// Query encodes the range as startDate/endDate query parameters.
func (r DateRange) Query() string {
	v := url.Values{}
	v.Set("startDate", r.StartDate)
	v.Set("endDate", r.EndDate)
	return v.Encode()
}

// Contains reports whether the ISO date falls within the range.
func (r DateRange) Contains(date string) bool {
	return date >= r.StartDate && date <= r.EndDate
}

// CalendarEvent is a meeting as shown on a calendar.
type CalendarEvent struct {
	ID               int64         `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	DateTime         LocalDateTime `json:"dateTime"`
	Location         string        `json:"location,omitempty"`
	Format           EventFormat   `json:"format"`
	IsOrganizer      bool          `json:"isOrganizer"`
	ParticipantCount int           `json:"participantCount"`
}

func (e CalendarEvent) Validate() error {
	if e.DateTime.IsZero() {
		return fmt.Errorf("event %d: missing dateTime", e.ID)
	}
	if !e.Format.Valid() {
		return fmt.Errorf("event %d: unknown format %q", e.ID, e.Format)
	}
	return nil
}

// PersonalNote is a user's note for one date. The backend keeps at most one
// note per user and date.
type PersonalNote struct {
	ID        int64         `json:"id"`
	NoteDate  string        `json:"noteDate"`
	Content   string        `json:"content"`
	CreatedAt LocalDateTime `json:"createdAt"`
	UpdatedAt LocalDateTime `json:"updatedAt"`
}

func (n PersonalNote) Validate() error {
	if _, err := ParseDate(n.NoteDate); err != nil {
		return fmt.Errorf("note %d: %w", n.ID, err)
	}
	return nil
}

// PersonalNoteRequest creates or replaces the note for NoteDate.
type PersonalNoteRequest struct {
	NoteDate string `json:"noteDate"`
	Content  string `json:"content"`
}

// CalendarData is everything needed to render a user's calendar for a range.
type CalendarData struct {
	Events         []CalendarEvent `json:"events"`
	Notes          []PersonalNote  `json:"notes"`
	DatesWithNotes []string        `json:"datesWithNotes"`
}

func (d *CalendarData) Validate() error {
	var errs []error
	for _, e := range d.Events {
		errs = append(errs, e.Validate())
	}
	for _, n := range d.Notes {
		errs = append(errs, n.Validate())
	}
	for _, date := range d.DatesWithNotes {
		if _, err := ParseDate(date); err != nil {
			errs = append(errs, fmt.Errorf("datesWithNotes: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NoteFor returns the note for date, or nil.
func (d CalendarData) NoteFor(date string) *PersonalNote {
	for i := range d.Notes {
		if d.Notes[i].NoteDate == date {
			return &d.Notes[i]
		}
	}
	return nil
}

// HasNote reports whether date is marked as having a note.
func (d CalendarData) HasNote(date string) bool {
	for _, marked := range d.DatesWithNotes {
		if marked == date {
			return true
		}
	}
	return d.NoteFor(date) != nil
}

// EventsOn returns the events whose local date is date, in payload order.
func (d CalendarData) EventsOn(date string) []CalendarEvent {
	var out []CalendarEvent
	for _, e := range d.Events {
		if FormatDate(e.DateTime.Time) == date {
			out = append(out, e)
		}
	}
	return out
}

// duplicateNoteDates lists dates that carry more than one note.
func (d CalendarData) duplicateNoteDates() []string {
	seen := make(map[string]int, len(d.Notes))
	var dups []string
	for _, n := range d.Notes {
		seen[n.NoteDate]++
		if seen[n.NoteDate] == 2 {
			dups = append(dups, n.NoteDate)
		}
	}
	return dups
}

// DayDetails is the content of a single calendar day.
type DayDetails struct {
	Date         string          `json:"date"`
	EventsForDay []CalendarEvent `json:"eventsForDay"`
	NoteForDay   *PersonalNote   `json:"noteForDay"`
}

func (d *DayDetails) Validate() error {
	var errs []error
	if _, err := ParseDate(d.Date); err != nil {
		errs = append(errs, err)
	}
	for _, e := range d.EventsForDay {
		errs = append(errs, e.Validate())
	}
	if d.NoteForDay != nil {
		errs = append(errs, d.NoteForDay.Validate())
	}
	return errors.Join(errs...)
}

// WidgetEvent is a calendar event projected for rendering. Resource points
// back at the raw event.
type WidgetEvent struct {
	ID       int64
	Title    string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Resource *CalendarEvent
}

// ParseDate parses an ISO calendar date at local midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats t's own calendar fields as an ISO date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
