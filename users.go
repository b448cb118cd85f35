package groupmeet

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Users wraps user search, profiles and the option lists.
type Users struct {
	client *Client
}

// NewUsers creates a Users over client.
func NewUsers(client *Client) *Users {
	return &Users{client: client}
}

func (p UserSearchParams) query() url.Values {
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
	for _, g := range p.Genders {
		v.Add("genders", string(g))
	}
	if loc := strings.TrimSpace(p.Location); loc != "" {
		v.Set("location", loc)
	}
	if p.MinAge > 0 {
		v.Set("minAge", strconv.Itoa(p.MinAge))
	}
	if p.MaxAge > 0 {
		v.Set("maxAge", strconv.Itoa(p.MaxAge))
	}
	for _, i := range p.Interests {
		v.Add("interests", i)
	}
	return v
}

// Search returns one page of users matching params.
func (u *Users) Search(ctx context.Context, params UserSearchParams) (Page[UserSearchResult], error) {
	endpoint := "/api/users/search"
	if q := params.query().Encode(); q != "" {
		endpoint += "?" + q
	}
	return Fetch[Page[UserSearchResult]](ctx, u.client, endpoint, sessionRequest(http.MethodGet, nil))
}

// Profile returns another user's profile as seen by the caller.
func (u *Users) Profile(ctx context.Context, userID int64) (UserProfile, error) {
	return Fetch[UserProfile](ctx, u.client, fmt.Sprintf("/api/users/%d/profile", userID), sessionRequest(http.MethodGet, nil))
}

// CurrentProfile returns the caller's own profile.
func (u *Users) CurrentProfile(ctx context.Context) (UserProfile, error) {
	return Fetch[UserProfile](ctx, u.client, "/api/user/profile", sessionRequest(http.MethodGet, nil))
}

// Interests lists the selectable interests.
func (u *Users) Interests(ctx context.Context) ([]Option, error) {
	return Fetch[[]Option](ctx, u.client, "/api/interests", sessionRequest(http.MethodGet, nil))
}

// Locations lists the selectable locations.
func (u *Users) Locations(ctx context.Context) ([]Option, error) {
	return Fetch[[]Option](ctx, u.client, "/api/locations", sessionRequest(http.MethodGet, nil))
}
