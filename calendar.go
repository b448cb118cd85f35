package groupmeet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultEventDuration is the synthetic length of a projected event; the
// backend does not supply end times.
const DefaultEventDuration = 2 * time.Hour

// maxConcurrentMonths caps parallel month requests in FetchMonths.
const maxConcurrentMonths = 4

const (
	calendarPath      = "/api/calendar"
	calendarNotesPath = "/api/calendar/notes"
)

// MonthRange returns the first and last day of the month containing ref,
// using ref's own calendar fields rather than UTC.
func MonthRange(ref time.Time) DateRange {
	year, month, _ := ref.Date()
	loc := ref.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Day 0 of the next month normalizes to the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
	return DateRange{StartDate: FormatDate(first), EndDate: FormatDate(last)}
}

// NextMonth returns the first day of the month after ref.
func NextMonth(ref time.Time) time.Time {
	year, month, _ := ref.Date()
	return time.Date(year, month+1, 1, 0, 0, 0, 0, ref.Location())
}

// PrevMonth returns the first day of the month before ref.
func PrevMonth(ref time.Time) time.Time {
	year, month, _ := ref.Date()
	return time.Date(year, month-1, 1, 0, 0, 0, 0, ref.Location())
}

// ProjectToWidgetEvents turns raw events into widget events with a fixed
// two hour duration. It is a pure function of data.
func ProjectToWidgetEvents(data CalendarData) []WidgetEvent {
	events := make([]WidgetEvent, 0, len(data.Events))
	for i := range data.Events {
		raw := data.Events[i]
		start := raw.DateTime.Time
		events = append(events, WidgetEvent{
			ID:       raw.ID,
			Title:    raw.Title,
			Start:    start,
			End:      start.Add(DefaultEventDuration),
			AllDay:   false,
			Resource: &raw,
		})
	}
	return events
}

// FindConflicts reports, per event, whether it overlaps any other event.
// Touching events (one ends as the next starts) do not conflict.
func FindConflicts(events []WidgetEvent) []bool {
	conflicts := make([]bool, len(events))
	for i := range events {
		for j := i + 1; j < len(events); j++ {
			if events[i].End.After(events[j].Start) && events[i].Start.Before(events[j].End) {
				conflicts[i] = true
				conflicts[j] = true
			}
		}
	}
	return conflicts
}

// Calendar fetches calendar data and manages personal notes.
type Calendar struct {
	client *Client
}

// NewCalendar creates a Calendar over client.
func NewCalendar(client *Client) *Calendar {
	return &Calendar{client: client}
}

// calendarEndpoint returns the month endpoint; userID 0 is the caller's own.
func calendarEndpoint(userID int64) string {
	if userID == 0 {
		return calendarPath
	}
	return "/api/users/" + strconv.FormatInt(userID, 10) + "/calendar"
}

func dayEndpoint(userID int64, date string) string {
	return calendarEndpoint(userID) + "/day/" + url.PathEscape(date)
}

// FetchCalendarData returns the raw calendar payload for rng. userID 0
// selects the caller's own calendar; any other value a friend's, which the
// server only allows between friends.
func (c *Calendar) FetchCalendarData(ctx context.Context, rng DateRange, userID int64) (CalendarData, error) {
	if err := rng.Validate(); err != nil {
		return CalendarData{}, invalidRequest(fmt.Sprintf("invalid date range: %v", err), err)
	}

	data, err := Fetch[CalendarData](ctx, c.client, calendarEndpoint(userID)+"?"+rng.Query(), RequestOptions{
		Method:          http.MethodGet,
		WithCredentials: true,
	})
	if err != nil {
		return CalendarData{}, err
	}

	// One note per date is enforced server-side; report rather than repair.
	if dups := data.duplicateNoteDates(); len(dups) > 0 {
		c.client.logger.Warn("calendar payload has several notes for one date",
			zap.Strings("dates", dups),
			zap.Int64("user_id", userID),
		)
	}
	return data, nil
}

// FetchDayDetails returns the events and note for one date exactly as the
// server filtered them.
func (c *Calendar) FetchDayDetails(ctx context.Context, date string, userID int64) (DayDetails, error) {
	if _, err := ParseDate(date); err != nil {
		return DayDetails{}, invalidRequest(err.Error(), err)
	}
	return Fetch[DayDetails](ctx, c.client, dayEndpoint(userID, date), RequestOptions{
		Method:          http.MethodGet,
		WithCredentials: true,
	})
}

// SavePersonalNote creates or replaces the note for req.NoteDate. Notes are
// keyed by date, never by id.
func (c *Calendar) SavePersonalNote(ctx context.Context, req PersonalNoteRequest) (PersonalNote, error) {
	if _, err := ParseDate(req.NoteDate); err != nil {
		return PersonalNote{}, invalidRequest(err.Error(), err)
	}
	return Fetch[PersonalNote](ctx, c.client, calendarNotesPath, RequestOptions{
		Method:          http.MethodPost,
		Body:            req,
		WithCredentials: true,
	})
}

// DeletePersonalNote removes the note for date.
func (c *Calendar) DeletePersonalNote(ctx context.Context, date string) error {
	if _, err := ParseDate(date); err != nil {
		return invalidRequest(err.Error(), err)
	}
	_, err := c.client.Do(ctx, calendarNotesPath+"/"+url.PathEscape(date), RequestOptions{
		Method:          http.MethodDelete,
		WithCredentials: true,
		DiscardBody:     true,
	})
	return err
}

// FetchMonths fetches count consecutive months starting with the month of
// from, one request per month, and merges them in order.
func (c *Calendar) FetchMonths(ctx context.Context, from time.Time, count int, userID int64) (CalendarData, error) {
	if count < 1 {
		count = 1
	}
	months := make([]CalendarData, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMonths)
	month := from
	for i := 0; i < count; i++ {
		i, rng := i, MonthRange(month)
		g.Go(func() error {
			data, err := c.FetchCalendarData(gctx, rng, userID)
			if err != nil {
				return err
			}
			months[i] = data
			return nil
		})
		month = NextMonth(month)
	}
	if err := g.Wait(); err != nil {
		return CalendarData{}, err
	}

	var merged CalendarData
	for _, m := range months {
		merged.Events = append(merged.Events, m.Events...)
		merged.Notes = append(merged.Notes, m.Notes...)
		merged.DatesWithNotes = append(merged.DatesWithNotes, m.DatesWithNotes...)
	}
	return merged, nil
}
