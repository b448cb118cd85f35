// Package groupmeet is a client for the GroupMeet meetup-coordination REST
// backend: a request adapter with normalized errors, calendar projection and
// typed wrappers for the friends, meetings and user endpoints.
package groupmeet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// Cookie and header names used for the anti-forgery handshake.
const (
	XSRFCookieName = "XSRF-TOKEN"
	XSRFHeaderName = "X-XSRF-TOKEN"
	requestIDName  = "X-Request-ID"
)

// DefaultTimeout bounds a single request when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

const defaultUserAgent = "groupmeet-cli"

// RequestOptions describes a single call.
type RequestOptions struct {
	// Method defaults to GET.
	Method string
	// Headers are merged over the JSON defaults.
	Headers map[string]string
	// Body is JSON-encoded when non-nil. Ignored for GET.
	Body any
	// WithCredentials sends the session cookies.
	WithCredentials bool
	// DiscardBody skips parsing of a successful body. Only for endpoints
	// that answer mutations with plain text.
	DiscardBody bool
}

// Result is a successful response. NoContent is set for 204 and for
// DiscardBody requests, in which case Body is nil.
type Result struct {
	StatusCode int
	Body       json.RawMessage
	NoContent  bool
}

// Validator is implemented by response types that can check their own shape.
type Validator interface {
	Validate() error
}

// Client is the shared transport for every request against one backend.
type Client struct {
	base      string
	baseURL   *url.URL
	http      *http.Client
	logger    *zap.Logger
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient uses hc for transport. A cookie jar is attached to a copy
// when hc has none.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc == nil {
			return
		}
		cp := *hc
		if cp.Jar == nil {
			cp.Jar = c.http.Jar
		}
		c.http = &cp
	}
}

// WithCookieJar replaces the session cookie jar.
func WithCookieJar(jar http.CookieJar) ClientOption {
	return func(c *Client) {
		c.http.Jar = jar
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a Client for the backend origin baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		base:      base,
		baseURL:   u,
		http:      &http.Client{Timeout: DefaultTimeout, Jar: jar},
		logger:    zap.NewNop(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Jar returns the cookie jar holding the session.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Logger returns the client's logger.
func (c *Client) Logger() *zap.Logger {
	return c.logger
}

// xsrfToken reads the anti-forgery token the backend left in the jar.
func (c *Client) xsrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == XSRFCookieName {
			return ck.Value
		}
	}
	return ""
}

func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// Do sends one request and normalizes the outcome. Every failure is an
// *APIError; the body of a successful response is guaranteed to be valid
// JSON unless the result is NoContent.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (Result, error) {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if opts.Body != nil && method != http.MethodGet {
		data, err := json.Marshal(opts.Body)
		if err != nil {
			return Result{}, invalidRequest("failed to encode request body", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, body)
	if err != nil {
		return Result{}, invalidRequest("invalid request", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDName, requestID)

	log := c.logger.With(
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.String("request_id", requestID),
	)

	if isMutating(method) {
		if token := c.xsrfToken(); token != "" {
			req.Header.Set(XSRFHeaderName, token)
		} else {
			log.Warn("XSRF-TOKEN cookie not found; request might be rejected by backend")
		}
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	hc := c.http
	if !opts.WithCredentials && hc.Jar != nil {
		anonymous := *hc
		anonymous.Jar = nil
		hc = &anonymous
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		apiErr := networkError(ctx, err)
		log.Debug("request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return Result{}, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := networkError(ctx, err)
		apiErr.StatusCode = resp.StatusCode
		return Result{}, apiErr
	}

	log.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return interpretResponse(resp.StatusCode, resp.Header, data, opts.DiscardBody)
}

func interpretResponse(status int, header http.Header, data []byte, discard bool) (Result, error) {
	success := status >= 200 && status < 300

	if status == http.StatusNoContent || (success && discard) {
		return Result{StatusCode: status, NoContent: true}, nil
	}
	if !success {
		return Result{}, httpError(status, header, data)
	}
	if !json.Valid(data) {
		return Result{}, parseError(status, fmt.Errorf("response body is not valid JSON (%d bytes)", len(data)))
	}
	return Result{StatusCode: status, Body: json.RawMessage(data)}, nil
}

// Fetch sends a request and decodes the body into T. A 204 yields the zero
// T. When T implements Validator the decoded value is checked before it is
// returned.
func Fetch[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (T, error) {
	var out T
	res, err := c.Do(ctx, endpoint, opts)
	if err != nil {
		return out, err
	}
	if res.NoContent {
		return out, nil
	}
	if err := json.Unmarshal(res.Body, &out); err != nil {
		var zero T
		return zero, parseError(res.StatusCode, err)
	}
	if v, ok := any(&out).(Validator); ok {
		if err := v.Validate(); err != nil {
			var zero T
			return zero, &APIError{Code: ErrParseError, Message: msgInvalidResponse, StatusCode: res.StatusCode, Err: err}
		}
	}
	return out, nil
}

// Phase is the lifecycle position of a Call.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// State is a snapshot of a Call. Data is only meaningful in PhaseSucceeded
// and Err only in PhaseFailed.
type State[T any] struct {
	Phase Phase
	Data  T
	Err   *APIError
}

// Loading reports whether a request is in flight.
func (s State[T]) Loading() bool {
	return s.Phase == PhasePending
}

// Call is a request handle owning its own data/error/in-flight state. Two
// Calls never share state, even over the same Client. When sends on one
// Call overlap, the last response to arrive wins.
type Call[T any] struct {
	client *Client

	mu     sync.Mutex
	state  State[T]
	nextID int
	subs   map[int]func(State[T])
}

// NewCall creates an idle Call over client.
func NewCall[T any](client *Client) *Call[T] {
	return &Call[T]{client: client, subs: make(map[int]func(State[T]))}
}

// State returns the current snapshot.
func (c *Call[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription.
func (c *Call[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Reset returns the Call to idle, clearing data and error.
func (c *Call[T]) Reset() {
	c.transition(State[T]{Phase: PhaseIdle})
}

// Send performs the request, recording the outcome in the Call's state
// before returning it. Failures are always *APIError.
func (c *Call[T]) Send(ctx context.Context, endpoint string, opts RequestOptions) (T, error) {
	c.transition(State[T]{Phase: PhasePending})

	out, err := Fetch[T](ctx, c.client, endpoint, opts)
	if err != nil {
		apiErr, ok := AsAPIError(err)
		if !ok {
			apiErr = &APIError{Code: ErrNetworkError, Message: err.Error(), Err: err}
		}
		c.transition(State[T]{Phase: PhaseFailed, Err: apiErr})
		var zero T
		return zero, apiErr
	}

	c.transition(State[T]{Phase: PhaseSucceeded, Data: out})
	return out, nil
}

func (c *Call[T]) transition(next State[T]) {
	c.mu.Lock()
	c.state = next
	subs := make([]func(State[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
