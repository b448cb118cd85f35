package groupmeet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const friendsPath = "/api/friends"

// Friends wraps the friendship endpoints.
type Friends struct {
	client *Client
}

// NewFriends creates a Friends over client.
func NewFriends(client *Client) *Friends {
	return &Friends{client: client}
}

func pageQuery(page, size int) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	if size > 0 {
		v.Set("size", strconv.Itoa(size))
	}
	return v
}

// List returns one page of the caller's friends, optionally filtered.
func (f *Friends) List(ctx context.Context, page, size int, searchTerm string) (Page[Friend], error) {
	q := pageQuery(page, size)
	if searchTerm != "" {
		q.Set("searchTerm", searchTerm)
	}
	return Fetch[Page[Friend]](ctx, f.client, friendsPath+"?"+q.Encode(), sessionRequest(http.MethodGet, nil))
}

// Remove ends the friendship with friendID.
func (f *Friends) Remove(ctx context.Context, friendID int64) error {
	_, err := f.client.Do(ctx, fmt.Sprintf("%s/%d", friendsPath, friendID), sessionRequest(http.MethodDelete, nil))
	return err
}

// SendRequest asks targetUserID to become a friend. Conflicts such as an
// already pending request come back as the server's message.
func (f *Friends) SendRequest(ctx context.Context, targetUserID int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, f.client, fmt.Sprintf("%s/requests/%d", friendsPath, targetUserID),
		sessionRequest(http.MethodPost, nil))
}

// IncomingRequests returns one page of unanswered requests.
func (f *Friends) IncomingRequests(ctx context.Context, page, size int) (Page[FriendRequest], error) {
	return Fetch[Page[FriendRequest]](ctx, f.client, friendsPath+"/requests/incoming?"+pageQuery(page, size).Encode(),
		sessionRequest(http.MethodGet, nil))
}

// AcceptRequest accepts the request with requestID.
func (f *Friends) AcceptRequest(ctx context.Context, requestID int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, f.client, fmt.Sprintf("%s/requests/%d/accept", friendsPath, requestID),
		sessionRequest(http.MethodPut, nil))
}

// RejectRequest rejects, or withdraws, the request with requestID.
func (f *Friends) RejectRequest(ctx context.Context, requestID int64) (MessageResponse, error) {
	return Fetch[MessageResponse](ctx, f.client, fmt.Sprintf("%s/requests/%d/reject", friendsPath, requestID),
		sessionRequest(http.MethodDelete, nil))
}
