package groupmeet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// googleEventPrefix makes exported event ids deterministic so re-running
	// an export updates instead of duplicating. Google ids allow only a-v and 0-9.
	googleEventPrefix    = "groupmeet"
	googleIDProperty     = "groupmeetId"
	eventStatusConfirmed = "confirmed"
)

// Meeting URL patterns
var meetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://[a-z0-9.-]*zoom\.us/[^\s<>"]+`),
	regexp.MustCompile(`https://meet\.google\.com/[a-z0-9-]+`),
	regexp.MustCompile(`https://teams\.microsoft\.com/[^\s<>"]+`),
	regexp.MustCompile(`https://[a-z0-9.-]*webex\.com/[^\s<>"]+`),
	regexp.MustCompile(`https://[a-z0-9.-]*jit\.si/[^\s<>"]+`),
}

// MeetingURL finds a video-call link in an online or hybrid event's
// location or description.
func MeetingURL(e CalendarEvent) string {
	if e.Format == FormatOffline {
		return ""
	}
	searchIn := e.Location + " " + e.Description
	for _, pattern := range meetingPatterns {
		if match := pattern.FindString(searchIn); match != "" {
			return strings.TrimSpace(match)
		}
	}
	return ""
}

// CalendarInfo represents a Google calendar for listing
type CalendarInfo struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

// ExportResult summarizes one export run. Per-event failures are collected
// in Errors and never abort the batch.
type ExportResult struct {
	Success  bool     `json:"success"`
	LastSync string   `json:"lastSync,omitempty"` // ISO8601
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors,omitempty"`
	Error    string   `json:"error,omitempty"`   // machine-readable code
	Message  string   `json:"message,omitempty"` // human-readable
}

// GoogleExporter upserts projected meetings into a Google calendar.
type GoogleExporter struct {
	srv    *calendar.Service
	logger *zap.Logger
}

// NewGoogleExporter creates an exporter using an authorized client, see
// GoogleHTTPClient. Extra options (such as option.WithEndpoint) are passed
// to the Calendar service.
func NewGoogleExporter(ctx context.Context, hc *http.Client, logger *zap.Logger, opts ...option.ClientOption) (*GoogleExporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return &GoogleExporter{srv: srv, logger: logger}, nil
}

// ListCalendars returns all calendars the account has access to.
func (g *GoogleExporter) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := g.srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	var calendars []CalendarInfo
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{
			ID:      item.Id,
			Summary: item.Summary,
			Primary: item.Primary,
		})
	}
	return calendars, nil
}

// Export writes every event to calendarID, updating the copy from a previous
// run when there is one and inserting otherwise.
func (g *GoogleExporter) Export(ctx context.Context, calendarID string, events []WidgetEvent) ExportResult {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	var result ExportResult
	for _, we := range events {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, err.Error())
			break
		}

		ev := toGoogleEvent(we)
		_, err := g.srv.Events.Update(calendarID, ev.Id, ev).Context(ctx).Do()
		if err == nil {
			result.Updated++
			continue
		}
		if !isGoogleNotFound(err) {
			// Collect errors but continue with other events
			result.Errors = append(result.Errors, fmt.Sprintf("event %d: %v", we.ID, err))
			continue
		}

		if _, err := g.srv.Events.Insert(calendarID, ev).Context(ctx).Do(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("event %d: %v", we.ID, err))
			continue
		}
		result.Created++
	}

	g.logger.Info("google export finished",
		zap.String("calendar_id", calendarID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failed", len(result.Errors)),
	)

	if len(result.Errors) > 0 && result.Created+result.Updated == 0 && len(events) > 0 {
		result.Error = ErrAPIError
		result.Message = "failed to export events: " + strings.Join(result.Errors, "; ")
		return result
	}
	result.Success = true
	result.LastSync = time.Now().Format(time.RFC3339)
	return result
}

// GoogleEventID is the deterministic Google id for a meeting.
func GoogleEventID(meetingID int64) string {
	return googleEventPrefix + strconv.FormatInt(meetingID, 10)
}

// toGoogleEvent converts a widget event to a Google Calendar event.
func toGoogleEvent(we WidgetEvent) *calendar.Event {
	ev := &calendar.Event{
		Id:      GoogleEventID(we.ID),
		Summary: we.Title,
		Status:  eventStatusConfirmed,
		Start:   &calendar.EventDateTime{DateTime: we.Start.Format(time.RFC3339)},
		End:     &calendar.EventDateTime{DateTime: we.End.Format(time.RFC3339)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{googleIDProperty: strconv.FormatInt(we.ID, 10)},
		},
	}
	if raw := we.Resource; raw != nil {
		ev.Description = raw.Description
		ev.Location = raw.Location
		if link := MeetingURL(*raw); link != "" && !strings.Contains(ev.Description, link) {
			ev.Description = strings.TrimSpace(ev.Description + "\n\n" + link)
		}
	}
	return ev
}

func isGoogleNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone)
}
