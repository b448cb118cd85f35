package groupmeet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Error codes
const (
	ErrNotConfigured  = "not_configured"
	ErrTokenExpired   = "token_expired"
	ErrNetworkError   = "network_error"
	ErrParseError     = "parse_error"
	ErrAPIError       = "api_error"
	ErrInvalidRequest = "invalid_request"
)

// Messages surfaced for failures that carry no server-provided text.
const (
	msgNetworkFailed    = "network request failed"
	msgRequestCanceled  = "request canceled"
	msgRequestTimedOut  = "request timed out"
	msgParseFailed      = "failed to parse response body"
	msgInvalidResponse  = "invalid response from server"
	msgRequestFailed    = "request failed"
	validationFailedMsg = "Validation failed"
)

// APIError is the normalized failure returned by every request. Message is
// always suitable for direct display.
type APIError struct {
	Code              string            `json:"error"`
	Message           string            `json:"message"`
	StatusCode        int               `json:"statusCode,omitempty"`
	ValidationErrors  map[string]string `json:"validationErrors,omitempty"`
	RetryAfterSeconds int               `json:"retryAfterSeconds,omitempty"`

	// Err is the underlying cause for network, parse and encode failures.
	Err error `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is a normalized 404.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthenticated reports whether err is a 401 or 403, which callers treat
// as "not logged in" rather than a hard failure.
func IsUnauthenticated(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// networkError converts a transport failure into an APIError. No status code
// is available for these.
func networkError(ctx context.Context, err error) *APIError {
	msg := msgNetworkFailed
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		msg = msgRequestCanceled
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		msg = msgRequestTimedOut
	}
	return &APIError{Code: ErrNetworkError, Message: msg, Err: err}
}

func parseError(status int, err error) *APIError {
	return &APIError{Code: ErrParseError, Message: msgParseFailed, StatusCode: status, Err: err}
}

func invalidRequest(message string, err error) *APIError {
	return &APIError{Code: ErrInvalidRequest, Message: message, Err: err}
}

// errorBody is one of the shapes a backend error response can take.
type errorBody interface {
	normalize(status int) *APIError
}

// validationFailure is {"message":"Validation failed","errors":{...}}.
type validationFailure struct {
	fields fieldErrors
}

// simpleError is {"error":"..."} without a message.
type simpleError struct {
	text string
}

// messageError is {"message":"..."}, possibly with a non-validation errors map.
type messageError struct {
	text   string
	fields fieldErrors
}

// unparseableError covers bodies that are not JSON objects or carry no text.
type unparseableError struct{}

func (v validationFailure) normalize(status int) *APIError {
	first := v.fields[0]
	return &APIError{
		Code:             ErrAPIError,
		Message:          first.field + ": " + first.message,
		StatusCode:       status,
		ValidationErrors: v.fields.toMap(),
	}
}

func (v simpleError) normalize(status int) *APIError {
	return &APIError{Code: ErrAPIError, Message: v.text, StatusCode: status}
}

func (v messageError) normalize(status int) *APIError {
	return &APIError{
		Code:             ErrAPIError,
		Message:          v.text,
		StatusCode:       status,
		ValidationErrors: v.fields.toMap(),
	}
}

func (unparseableError) normalize(status int) *APIError {
	text := http.StatusText(status)
	if text == "" {
		text = "status " + strconv.Itoa(status)
	}
	return &APIError{Code: ErrAPIError, Message: msgRequestFailed + ": " + text, StatusCode: status}
}

type fieldError struct {
	field   string
	message string
}

// fieldErrors keeps validation errors in JSON document order so that the
// "first field" is the one the server listed first.
type fieldErrors []fieldError

func (f *fieldErrors) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		// null, arrays and scalars carry no field errors.
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value any
		if err := dec.Decode(&value); err != nil {
			return err
		}
		msg, ok := value.(string)
		if !ok {
			msg = fmt.Sprint(value)
		}
		*f = append(*f, fieldError{field: key, message: msg})
	}
	return nil
}

func (f fieldErrors) toMap() map[string]string {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]string, len(f))
	for _, fe := range f {
		out[fe.field] = fe.message
	}
	return out
}

// classifyErrorBody maps a raw error payload onto one errorBody variant and
// returns the rate-limit hint when present.
func classifyErrorBody(body []byte) (errorBody, int) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return unparseableError{}, 0
	}

	var errs fieldErrors
	if raw, ok := fields["errors"]; ok {
		if err := json.Unmarshal(raw, &errs); err != nil {
			errs = nil
		}
	}

	var retryAfter int
	if raw, ok := fields["retryAfterSeconds"]; ok {
		_ = json.Unmarshal(raw, &retryAfter)
	}

	message, hasMessage := stringField(fields, "message")
	switch {
	case hasMessage && message == validationFailedMsg && len(errs) > 0:
		return validationFailure{fields: errs}, retryAfter
	case !hasMessage:
		if text, ok := stringField(fields, "error"); ok {
			return simpleError{text: text}, retryAfter
		}
		return unparseableError{}, retryAfter
	default:
		return messageError{text: message, fields: errs}, retryAfter
	}
}

// stringField returns a non-empty string member of a JSON object.
func stringField(fields map[string]json.RawMessage, name string) (string, bool) {
	raw, ok := fields[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

// httpError builds the normalized error for a non-2xx response.
func httpError(status int, header http.Header, body []byte) *APIError {
	variant, retryAfter := classifyErrorBody(body)
	apiErr := variant.normalize(status)
	if retryAfter == 0 && status == http.StatusTooManyRequests {
		if secs, err := strconv.Atoi(strings.TrimSpace(header.Get("Retry-After"))); err == nil {
			retryAfter = secs
		}
	}
	apiErr.RetryAfterSeconds = retryAfter
	return apiErr
}
