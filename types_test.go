package groupmeet

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLocalDateTimeUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "zone-less backend value",
			input: `"2024-03-05T18:30:00"`,
			want:  time.Date(2024, 3, 5, 18, 30, 0, 0, time.Local),
		},
		{
			name:  "fractional seconds",
			input: `"2024-03-05T18:30:00.123456"`,
			want:  time.Date(2024, 3, 5, 18, 30, 0, 123456000, time.Local),
		},
		{
			name:  "explicit offset",
			input: `"2024-03-05T18:30:00+02:00"`,
			want:  time.Date(2024, 3, 5, 16, 30, 0, 0, time.UTC),
		},
		{name: "null", input: `null`},
		{name: "empty string", input: `""`},
		{name: "not a date", input: `"next tuesday"`, wantErr: true},
		{name: "number", input: `1709659800`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt // Capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got LocalDateTime
			err := json.Unmarshal([]byte(tt.input), &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("Unmarshal(%s) = %v, want %v", tt.input, got.Time, tt.want)
			}
		})
	}
}

func TestLocalDateTimeMarshal(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		At    LocalDateTime `json:"at"`
		Unset LocalDateTime `json:"unset"`
	}{At: LocalDateTime{time.Date(2024, 3, 5, 18, 30, 0, 0, time.Local)}})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if diff := cmp.Diff(string(data), `{"at":"2024-03-05T18:30:00","unset":null}`); diff != "" {
		t.Errorf("Marshal() mismatch (-got +want):\n%s", diff)
	}
}

func TestDateRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rng     DateRange
		wantErr string
	}{
		{name: "month", rng: DateRange{StartDate: "2024-02-01", EndDate: "2024-02-29"}},
		{name: "single day", rng: DateRange{StartDate: "2024-02-01", EndDate: "2024-02-01"}},
		{name: "reversed", rng: DateRange{StartDate: "2024-02-10", EndDate: "2024-02-01"}, wantErr: "before start date"},
		{name: "bad start", rng: DateRange{StartDate: "2024-2-1", EndDate: "2024-02-01"}, wantErr: "start date"},
		{name: "bad end", rng: DateRange{StartDate: "2024-02-01", EndDate: "2024-02-30"}, wantErr: "end date"},
	}
	for _, tt := range tests {
		tt := tt // Capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rng.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}

	rng := DateRange{StartDate: "2024-02-01", EndDate: "2024-02-29"}
	if got, want := rng.Query(), "endDate=2024-02-29&startDate=2024-02-01"; got != want {
		t.Errorf("Query() = %q, want %q", got, want)
	}
	for date, want := range map[string]bool{
		"2024-01-31": false,
		"2024-02-01": true,
		"2024-02-15": true,
		"2024-02-29": true,
		"2024-03-01": false,
	} {
		if got := rng.Contains(date); got != want {
			t.Errorf("Contains(%s) = %v, want %v", date, got, want)
		}
	}
}

func TestCalendarDataValidate(t *testing.T) {
	t.Parallel()

	at := LocalDateTime{time.Date(2024, 3, 5, 18, 0, 0, 0, time.Local)}
	tests := []struct {
		name    string
		data    CalendarData
		wantErr bool
	}{
		{name: "empty", data: CalendarData{}},
		{
			name: "valid",
			data: CalendarData{
				Events:         []CalendarEvent{{ID: 1, Title: "Hike", DateTime: at, Format: FormatOffline}},
				Notes:          []PersonalNote{{ID: 1, NoteDate: "2024-03-05", Content: "bring water"}},
				DatesWithNotes: []string{"2024-03-05"},
			},
		},
		{name: "event without time", data: CalendarData{Events: []CalendarEvent{{ID: 1, Format: FormatOnline}}}, wantErr: true},
		{name: "unknown format", data: CalendarData{Events: []CalendarEvent{{ID: 1, DateTime: at, Format: "VIRTUAL"}}}, wantErr: true},
		{name: "bad note date", data: CalendarData{Notes: []PersonalNote{{ID: 1, NoteDate: "05.03.2024"}}}, wantErr: true},
		{name: "bad marked date", data: CalendarData{DatesWithNotes: []string{"tomorrow"}}, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt // Capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.data.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDayDetailsValidate(t *testing.T) {
	t.Parallel()

	var day DayDetails
	if err := json.Unmarshal([]byte(`{"date":"2024-03-05","eventsForDay":[],"noteForDay":null}`), &day); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := day.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if day.NoteForDay != nil {
		t.Errorf("NoteForDay = %+v, want nil", day.NoteForDay)
	}

	day.Date = ""
	if err := day.Validate(); err == nil {
		t.Error("Validate() accepted an empty date")
	}
}

func TestCalendarDataLookups(t *testing.T) {
	t.Parallel()

	data := CalendarData{
		Events: []CalendarEvent{
			{ID: 1, Title: "Breakfast", DateTime: LocalDateTime{time.Date(2024, 3, 5, 8, 0, 0, 0, time.Local)}},
			{ID: 2, Title: "Climbing", DateTime: LocalDateTime{time.Date(2024, 3, 6, 18, 0, 0, 0, time.Local)}},
			{ID: 3, Title: "Dinner", DateTime: LocalDateTime{time.Date(2024, 3, 5, 20, 0, 0, 0, time.Local)}},
		},
		Notes: []PersonalNote{
			{ID: 10, NoteDate: "2024-03-05", Content: "call mum"},
			{ID: 11, NoteDate: "2024-03-07", Content: "first"},
			{ID: 12, NoteDate: "2024-03-07", Content: "second"},
		},
		DatesWithNotes: []string{"2024-03-05", "2024-03-07", "2024-03-09"},
	}

	if n := data.NoteFor("2024-03-05"); n == nil || n.Content != "call mum" {
		t.Errorf("NoteFor(2024-03-05) = %+v, want call mum", n)
	}
	if n := data.NoteFor("2024-03-06"); n != nil {
		t.Errorf("NoteFor(2024-03-06) = %+v, want nil", n)
	}
	if !data.HasNote("2024-03-09") {
		t.Error("HasNote(2024-03-09) = false, want true from datesWithNotes")
	}
	if data.HasNote("2024-03-06") {
		t.Error("HasNote(2024-03-06) = true, want false")
	}

	var titles []string
	for _, e := range data.EventsOn("2024-03-05") {
		titles = append(titles, e.Title)
	}
	if diff := cmp.Diff(titles, []string{"Breakfast", "Dinner"}); diff != "" {
		t.Errorf("EventsOn() mismatch (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(data.duplicateNoteDates(), []string{"2024-03-07"}); diff != "" {
		t.Errorf("duplicateNoteDates() mismatch (-got +want):\n%s", diff)
	}
}

func TestEventFormatValid(t *testing.T) {
	t.Parallel()

	for _, f := range []EventFormat{FormatOnline, FormatOffline, FormatHybrid} {
		if !f.Valid() {
			t.Errorf("%s.Valid() = false, want true", f)
		}
	}
	for _, f := range []EventFormat{"", "online", "VIRTUAL"} {
		if f.Valid() {
			t.Errorf("%q.Valid() = true, want false", f)
		}
	}
}

func TestParseAndFormatDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Location() != time.Local || d.Hour() != 0 {
		t.Errorf("ParseDate() = %v, want local midnight", d)
	}
	if got := FormatDate(d); got != "2024-02-29" {
		t.Errorf("FormatDate() = %q, want 2024-02-29", got)
	}
	if _, err := ParseDate("2023-02-29"); err == nil {
		t.Error("ParseDate(2023-02-29) accepted a non-existent date")
	}
}
