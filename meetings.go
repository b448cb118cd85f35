package groupmeet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const meetingsPath = "/api/meetings"

// Meetings wraps the meeting ("group") endpoints.
type Meetings struct {
	client *Client
}

// NewMeetings creates a Meetings over client.
func NewMeetings(client *Client) *Meetings {
	return &Meetings{client: client}
}

func (p MeetingSearchParams) query() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	if term := strings.TrimSpace(p.SearchTerm); term != "" {
		v.Set("searchTerm", term)
	}
	for _, t := range p.Types {
		v.Add("types", t)
	}
	if loc := strings.TrimSpace(p.Location); loc != "" {
		v.Set("location", loc)
	}
	if p.Format != "" {
		v.Set("format", string(p.Format))
	}
	if p.StartDate != "" {
		v.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		v.Set("endDate", p.EndDate)
	}
	return v
}

func meetingPath(id int64, suffix string) string {
	return fmt.Sprintf("%s/%d%s", meetingsPath, id, suffix)
}

// Search returns one page of meetings matching params.
func (m *Meetings) Search(ctx context.Context, params MeetingSearchParams) (Page[Meeting], error) {
	endpoint := meetingsPath + "/search"
	if q := params.query().Encode(); q != "" {
		endpoint += "?" + q
	}
	return Fetch[Page[Meeting]](ctx, m.client, endpoint, sessionRequest(http.MethodGet, nil))
}

// Create creates a meeting organized by the caller.
func (m *Meetings) Create(ctx context.Context, payload MeetingPayload) (Meeting, error) {
	return Fetch[Meeting](ctx, m.client, meetingsPath, sessionRequest(http.MethodPost, payload))
}

// Get returns the full view of one meeting.
func (m *Meetings) Get(ctx context.Context, id int64) (MeetingDetails, error) {
	return Fetch[MeetingDetails](ctx, m.client, meetingPath(id, ""), sessionRequest(http.MethodGet, nil))
}

// Update replaces a meeting's editable fields. Organizer only.
func (m *Meetings) Update(ctx context.Context, id int64, payload MeetingPayload) (Meeting, error) {
	return Fetch[Meeting](ctx, m.client, meetingPath(id, ""), sessionRequest(http.MethodPut, payload))
}

// Delete removes a meeting. Organizer only.
func (m *Meetings) Delete(ctx context.Context, id int64) error {
	_, err := m.client.Do(ctx, meetingPath(id, ""), sessionRequest(http.MethodDelete, nil))
	return err
}

// Join adds the caller to a meeting.
func (m *Meetings) Join(ctx context.Context, id int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, m.client, meetingPath(id, "/join"), sessionRequest(http.MethodPost, nil))
}

// Leave removes the caller from a meeting.
func (m *Meetings) Leave(ctx context.Context, id int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, m.client, meetingPath(id, "/leave"), sessionRequest(http.MethodPost, nil))
}

// Participants returns one page of a meeting's participants.
func (m *Meetings) Participants(ctx context.Context, id int64, page, size int, searchTerm string) (ParticipantsPage, error) {
	q := pageQuery(page, size)
	if searchTerm != "" {
		q.Set("searchTerm", searchTerm)
	}
	return Fetch[ParticipantsPage](ctx, m.client, meetingPath(id, "/participants-details")+"?"+q.Encode(),
		sessionRequest(http.MethodGet, nil))
}

// BlockParticipant bars userID from the meeting. Organizer only.
func (m *Meetings) BlockParticipant(ctx context.Context, id, userID int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, m.client, meetingPath(id, fmt.Sprintf("/participants/%d/block", userID)),
		sessionRequest(http.MethodPost, nil))
}

// UnblockParticipant lifts a block. Organizer only.
func (m *Meetings) UnblockParticipant(ctx context.Context, id, userID int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, m.client, meetingPath(id, fmt.Sprintf("/participants/%d/block", userID)),
		sessionRequest(http.MethodDelete, nil))
}

// RemoveParticipant removes userID without blocking. Organizer only.
func (m *Meetings) RemoveParticipant(ctx context.Context, id, userID int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, m.client, meetingPath(id, fmt.Sprintf("/participants/%d/remove", userID)),
		sessionRequest(http.MethodDelete, nil))
}
