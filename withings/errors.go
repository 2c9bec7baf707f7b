package withings

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

var (
	// ErrNotAuthenticated is returned when a resource call is attempted
	// before an access token and secret are available.
	ErrNotAuthenticated = errors.New("withings: no access token, complete the OAuth flow or use WithAccessToken")

	// ErrMissingUserContext is returned when a resource call needs a user ID
	// and none has been set.
	ErrMissingUserContext = errors.New("withings: no user ID, use WithUserID or SetUserID")

	// ErrMissingCredentials is returned by NewClient when the consumer key or
	// secret is empty.
	ErrMissingCredentials = errors.New("withings: consumer key and secret are required")

	// ErrMissingRequestToken is returned by AccessToken when called without
	// the request token from the first leg.
	ErrMissingRequestToken = errors.New("withings: request token is required")

	// ErrNoNextPage is returned by NextPage when the API reports no more data.
	ErrNoNextPage = errors.New("withings: no next page")
)

// maxErrorMessageLen bounds how much of a response body is copied into an
// error message.
const maxErrorMessageLen = 1000

// APIError represents an error returned by the Withings API, either as an
// HTTP failure or as a non-zero status in the response envelope.
type APIError struct {
	StatusCode int // HTTP status code
	Status     int // Withings envelope status, zero when the envelope was not reached
	Message    string
	URL        string // request URL without its signed query
	Err        error  // Underlying error, if any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("withings api error: %d", e.StatusCode)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	msg += fmt.Sprintf(" - %s at %s", e.Message, e.URL)
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap so the underlying error can be extracted.
func (e *APIError) Unwrap() error {
	return e.Err
}

// RateLimitError indicates Withings rejected the request for exceeding the
// application's request allowance.
type RateLimitError struct {
	RetryAfter int // Suggested retry after duration in seconds, if provided by the API
	Err        error
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("withings rate limit exceeded: retry after %d seconds", e.RetryAfter)
	}
	if e.Err != nil {
		return fmt.Sprintf("withings rate limit exceeded: %v", e.Err)
	}
	return "withings rate limit exceeded"
}

// Unwrap implements errors.Unwrap.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// AuthError represents an authentication or authorization failure: a
// non-200 answer during the OAuth handshake, an HTTP 401/403, or an
// envelope status reporting a bad signature or token.
type AuthError struct {
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	msg := fmt.Sprintf("withings auth error (%d): %s", e.StatusCode, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(" - %v", e.Err)
	}
	return msg
}

// Unwrap implements errors.Unwrap.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Withings envelope statuses with dedicated handling.
const (
	statusOK                = 0
	statusInvalidSignature  = 342
	statusTooManyRequests   = 601
	statusUnauthorizedToken = 401
)

// authStatuses are envelope statuses Withings uses for rejected tokens,
// unknown users and signature mismatches.
var authStatuses = map[int]bool{
	100:                     true,
	101:                     true,
	102:                     true,
	200:                     true,
	statusUnauthorizedToken: true,
	statusInvalidSignature:  true,
}

// truncate shortens s to maxErrorMessageLen bytes.
func truncate(s string) string {
	if len(s) > maxErrorMessageLen {
		return s[:maxErrorMessageLen] + "..."
	}
	return s
}

// redactURL drops the query string, which carries the OAuth signature and
// token.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.Fragment = ""
	return clean.String()
}

// mapHTTPError is a helper to convert an unsuccessful HTTP response to an appropriate custom error.
func mapHTTPError(resp *http.Response, body []byte) error {
	var reqURL *url.URL
	if resp.Request != nil {
		reqURL = resp.Request.URL
	}
	baseErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    truncate(string(body)),
		URL:        redactURL(reqURL),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{
			StatusCode: resp.StatusCode,
			Message:    "authentication failed or forbidden",
			Err:        baseErr,
		}
	case http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header),
			Err:        baseErr,
		}
	default:
		return baseErr
	}
}

// mapStatusError converts a non-zero envelope status into a typed error.
func mapStatusError(env *Envelope, reqURL *url.URL) error {
	msg := env.Error
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", env.Status)
	}
	baseErr := &APIError{
		StatusCode: http.StatusOK,
		Status:     env.Status,
		Message:    truncate(msg),
		URL:        redactURL(reqURL),
	}

	switch {
	case env.Status == statusTooManyRequests:
		return &RateLimitError{Err: baseErr}
	case authStatuses[env.Status]:
		return &AuthError{
			StatusCode: http.StatusOK,
			Message:    msg,
			Err:        baseErr,
		}
	default:
		return baseErr
	}
}

// parseRetryAfter reads a delay-seconds Retry-After header, returning zero
// when it is absent or not an integer.
func parseRetryAfter(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}
