package groupmeet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   *APIError
	}{
		{
			name:   "validation failure uses first field",
			status: http.StatusBadRequest,
			body:   `{"message":"Validation failed","errors":{"email":"must be a well-formed email address","password":"size must be between 8 and 100"}}`,
			want: &APIError{
				Code:       ErrAPIError,
				Message:    "email: must be a well-formed email address",
				StatusCode: http.StatusBadRequest,
				ValidationErrors: map[string]string{
					"email":    "must be a well-formed email address",
					"password": "size must be between 8 and 100",
				},
			},
		},
		{
			name:   "validation failure keeps document order",
			status: http.StatusBadRequest,
			body:   `{"errors":{"zipCode":"required","age":"must be positive"},"message":"Validation failed"}`,
			want: &APIError{
				Code:             ErrAPIError,
				Message:          "zipCode: required",
				StatusCode:       http.StatusBadRequest,
				ValidationErrors: map[string]string{"zipCode": "required", "age": "must be positive"},
			},
		},
		{
			name:   "validation value that is not a string",
			status: http.StatusBadRequest,
			body:   `{"message":"Validation failed","errors":{"maxParticipants":5}}`,
			want: &APIError{
				Code:             ErrAPIError,
				Message:          "maxParticipants: 5",
				StatusCode:       http.StatusBadRequest,
				ValidationErrors: map[string]string{"maxParticipants": "5"},
			},
		},
		{
			name:   "validation message without errors falls back to message",
			status: http.StatusBadRequest,
			body:   `{"message":"Validation failed","errors":{}}`,
			want:   &APIError{Code: ErrAPIError, Message: "Validation failed", StatusCode: http.StatusBadRequest},
		},
		{
			name:   "error field",
			status: http.StatusNotFound,
			body:   `{"error":"Meeting not found with id: 9"}`,
			want:   &APIError{Code: ErrAPIError, Message: "Meeting not found with id: 9", StatusCode: http.StatusNotFound},
		},
		{
			name:   "message wins over error",
			status: http.StatusConflict,
			body:   `{"error":"Conflict","message":"Friend request already sent"}`,
			want:   &APIError{Code: ErrAPIError, Message: "Friend request already sent", StatusCode: http.StatusConflict},
		},
		{
			name:   "empty message is ignored",
			status: http.StatusForbidden,
			body:   `{"message":"","error":"Access denied"}`,
			want:   &APIError{Code: ErrAPIError, Message: "Access denied", StatusCode: http.StatusForbidden},
		},
		{
			name:   "message with field errors",
			status: http.StatusUnprocessableEntity,
			body:   `{"message":"Cannot create meeting","errors":{"dateTime":"must be in the future"}}`,
			want: &APIError{
				Code:             ErrAPIError,
				Message:          "Cannot create meeting",
				StatusCode:       http.StatusUnprocessableEntity,
				ValidationErrors: map[string]string{"dateTime": "must be in the future"},
			},
		},
		{
			name:   "plain text body",
			status: http.StatusInternalServerError,
			body:   "java.lang.NullPointerException",
			want:   &APIError{Code: ErrAPIError, Message: "request failed: Internal Server Error", StatusCode: http.StatusInternalServerError},
		},
		{
			name:   "empty body",
			status: http.StatusBadGateway,
			want:   &APIError{Code: ErrAPIError, Message: "request failed: Bad Gateway", StatusCode: http.StatusBadGateway},
		},
		{
			name:   "object without text",
			status: http.StatusUnauthorized,
			body:   `{"status":401}`,
			want:   &APIError{Code: ErrAPIError, Message: "request failed: Unauthorized", StatusCode: http.StatusUnauthorized},
		},
		{
			name:   "json array",
			status: http.StatusBadRequest,
			body:   `["bad"]`,
			want:   &APIError{Code: ErrAPIError, Message: "request failed: Bad Request", StatusCode: http.StatusBadRequest},
		},
		{
			name:   "unknown status",
			status: 599,
			want:   &APIError{Code: ErrAPIError, Message: "request failed: status 599", StatusCode: 599},
		},
		{
			name:   "retry hint from body",
			status: http.StatusTooManyRequests,
			body:   `{"message":"Too many login attempts","retryAfterSeconds":30}`,
			want: &APIError{
				Code:              ErrAPIError,
				Message:           "Too many login attempts",
				StatusCode:        http.StatusTooManyRequests,
				RetryAfterSeconds: 30,
			},
		},
		{
			name:   "retry hint from header",
			status: http.StatusTooManyRequests,
			header: http.Header{"Retry-After": []string{"12"}},
			body:   `{"error":"Slow down"}`,
			want: &APIError{
				Code:              ErrAPIError,
				Message:           "Slow down",
				StatusCode:        http.StatusTooManyRequests,
				RetryAfterSeconds: 12,
			},
		},
		{
			name:   "retry header ignored outside 429",
			status: http.StatusServiceUnavailable,
			header: http.Header{"Retry-After": []string{"12"}},
			body:   `{"error":"Maintenance"}`,
			want:   &APIError{Code: ErrAPIError, Message: "Maintenance", StatusCode: http.StatusServiceUnavailable},
		},
	}

	for _, tt := range tests {
		tt := tt // Capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			got := httpError(tt.status, header, []byte(tt.body))
			if diff := cmp.Diff(got, tt.want, cmpopts.IgnoreFields(APIError{}, "Err")); diff != "" {
				t.Errorf("httpError() mismatch (-got +want):\n%s", diff)
			}
		})
	}
}

func TestAPIErrorHelpers(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	apiErr := &APIError{Code: ErrNetworkError, Message: msgNetworkFailed, Err: cause}
	wrapped := fmt.Errorf("load calendar: %w", apiErr)

	if got := apiErr.Error(); got != msgNetworkFailed {
		t.Errorf("Error() = %q, want %q", got, msgNetworkFailed)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is() did not reach the cause")
	}
	got, ok := AsAPIError(wrapped)
	if !ok || got != apiErr {
		t.Errorf("AsAPIError() = %v, %v, want the wrapped error", got, ok)
	}
	if _, ok := AsAPIError(cause); ok {
		t.Error("AsAPIError() matched a plain error")
	}

	tests := []struct {
		name      string
		err       error
		notFound  bool
		unauthent bool
	}{
		{name: "404", err: &APIError{StatusCode: http.StatusNotFound}, notFound: true},
		{name: "401", err: &APIError{StatusCode: http.StatusUnauthorized}, unauthent: true},
		{name: "403 wrapped", err: fmt.Errorf("x: %w", &APIError{StatusCode: http.StatusForbidden}), unauthent: true},
		{name: "500", err: &APIError{StatusCode: http.StatusInternalServerError}},
		{name: "plain", err: errors.New("boom")},
		{name: "nil", err: nil},
	}
	for _, tt := range tests {
		if got := IsNotFound(tt.err); got != tt.notFound {
			t.Errorf("%s: IsNotFound() = %v, want %v", tt.name, got, tt.notFound)
		}
		if got := IsUnauthenticated(tt.err); got != tt.unauthent {
			t.Errorf("%s: IsUnauthenticated() = %v, want %v", tt.name, got, tt.unauthent)
		}
	}
}

func TestNetworkError(t *testing.T) {
	t.Parallel()

	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{name: "transport failure", ctx: context.Background(), err: errors.New("dial tcp: refused"), want: msgNetworkFailed},
		{name: "canceled context", ctx: canceled, err: errors.New("read: closed"), want: msgRequestCanceled},
		{name: "deadline error", ctx: context.Background(), err: fmt.Errorf("get: %w", context.DeadlineExceeded), want: msgRequestTimedOut},
	}
	for _, tt := range tests {
		tt := tt // Capture loop variable
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := networkError(tt.ctx, tt.err)
			if got.Code != ErrNetworkError || got.Message != tt.want || got.StatusCode != 0 {
				t.Errorf("networkError() = %+v, want code %s message %q without status", got, ErrNetworkError, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("networkError() lost the cause")
			}
		})
	}
}
