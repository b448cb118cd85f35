package groupmeet

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"
)

const icsProductID = "-//groupmeet//calendar export//EN"

// ICSOptions controls WriteICS.
type ICSOptions struct {
	// Name is the calendar's display name.
	Name string
	// SkipNotes leaves personal notes out of the export.
	SkipNotes bool
	// Now stamps every component. Defaults to time.Now.
	Now time.Time
}

// WriteICS writes data as an iCalendar document: one timed VEVENT per
// projected meeting and one all-day VEVENT per personal note.
func WriteICS(w io.Writer, data CalendarData, opts ICSOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, we := range ProjectToWidgetEvents(data) {
		ev := cal.AddEvent(fmt.Sprintf("meeting-%d@groupmeet", we.ID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(we.Start)
		ev.SetEndAt(we.End)
		ev.SetSummary(we.Title)
		if raw := we.Resource; raw != nil {
			if raw.Location != "" {
				ev.SetLocation(raw.Location)
			}
			if raw.Description != "" {
				ev.SetDescription(raw.Description)
			}
			if link := MeetingURL(*raw); link != "" {
				ev.SetURL(link)
			}
		}
	}

	if !opts.SkipNotes {
		for _, n := range data.Notes {
			day, err := ParseDate(n.NoteDate)
			if err != nil {
				return fmt.Errorf("note %d: %w", n.ID, err)
			}
			ev := cal.AddEvent(fmt.Sprintf("note-%s@groupmeet", n.NoteDate))
			ev.SetDtStampTime(now)
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
			ev.SetSummary("Note")
			ev.SetDescription(n.Content)
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("write ics: %w", err)
	}
	return nil
}
