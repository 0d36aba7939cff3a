package twitterq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Machine error codes the API attaches to structured error payloads.
const (
	codeCouldNotAuthenticate = 32  // bad or missing credentials
	codeAccountSuspended     = 64  // account suspended
	codeRateLimited          = 88  // rate limit exceeded
	codeInvalidToken         = 89  // token expired or revoked
	codeOverCapacity         = 130 // service over capacity
	codeInternalError        = 131 // transient server fault
)

// ErrThrottled is returned (wrapped in a *TransportError) when the local
// per-endpoint rate limiter refuses a request before it is sent.
var ErrThrottled = errors.New("endpoint locally rate limited")

// InvalidQueryError reports a query that cannot be translated into a request:
// a required filter field is missing, unknown, or holds a malformed value.
// The executor is never invoked for such a query.
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	if e.Field == "" {
		return "invalid query: " + e.Reason
	}
	return fmt.Sprintf("invalid query: field %q %s", e.Field, e.Reason)
}

// TransportError wraps a network-level failure: the request never produced an
// HTTP response, or the response body could not be read.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("twitter: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrorDetail is one entry of a structured error payload. The v1.1 API fills
// Code and Message; the v2 API fills Title and Detail, plus Parameter and
// Value on partial lookup errors.
type ErrorDetail struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// APIError is a non-2xx response, carrying the decoded error payload and the
// rate-limit snapshot taken from the response headers.
type APIError struct {
	StatusCode int
	Message    string
	Code       int
	Errors     []ErrorDetail
	RateLimit  RateLimitSnapshot
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("twitter: status %d", e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	return msg
}

// Retryable reports whether the failure may clear on its own after a delay.
// The client never retries by itself; callers pair this with Relax.
func (e *APIError) Retryable() bool {
	switch e.Code {
	case codeRateLimited, codeOverCapacity, codeInternalError:
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ParseError reports a response body that was not valid JSON. The raw body is
// preserved for diagnostics.
type ParseError struct {
	Body []byte
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("twitter: parse response: %v: %s", e.Err, truncate(e.Body, errBodyLimit))
}

func (e *ParseError) Unwrap() error { return e.Err }

// RateLimitSnapshot is the X-Rate-Limit-* header state of one response.
type RateLimitSnapshot struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// parseRateLimitHeaders reads the rate-limit headers of a response. Missing
// or malformed headers leave zero values.
func parseRateLimitHeaders(h http.Header) RateLimitSnapshot {
	var s RateLimitSnapshot
	s.Limit, _ = strconv.Atoi(h.Get("X-Rate-Limit-Limit"))
	s.Remaining, _ = strconv.Atoi(h.Get("X-Rate-Limit-Remaining"))
	if ts, err := strconv.ParseInt(h.Get("X-Rate-Limit-Reset"), 10, 64); err == nil && ts > 0 {
		s.Reset = time.Unix(ts, 0)
	}
	return s
}

// IsRateLimited reports whether err is an API rate-limit rejection and, if
// so, returns the header snapshot that came with it.
func IsRateLimited(err error) (RateLimitSnapshot, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Code == codeRateLimited {
			return apiErr.RateLimit, true
		}
	}
	return RateLimitSnapshot{}, false
}

// Relax blocks until the rate-limit window resets or ctx is done.
func Relax(ctx context.Context, limit RateLimitSnapshot) error {
	wait := time.Until(limit.Reset)
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// newAPIError decodes an error payload into an *APIError. Bodies that carry
// no recognizable error structure fall back to the truncated raw text.
func newAPIError(statusCode int, body []byte, limit RateLimitSnapshot) *APIError {
	msg, code, details := extractAPIMessage(body)
	if msg == "" {
		msg = truncate(body, errBodyLimit)
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    msg,
		Code:       code,
		Errors:     details,
		RateLimit:  limit,
	}
}

// extractAPIMessage pulls a human-readable message and the first machine code
// out of an error payload. The API is inconsistent about the shape of
// "errors": it may be a plain string, an array of objects, or a single
// object; v2 bodies may instead carry top-level title/detail fields.
func extractAPIMessage(body []byte) (string, int, []ErrorDetail) {
	var envelope struct {
		Errors json.RawMessage `json:"errors"`
		Error  string          `json:"error"`
		Title  string          `json:"title"`
		Detail string          `json:"detail"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		return "", 0, nil
	}

	details := decodeErrorDetails(envelope.Errors)
	var msg string
	var code int
	for _, d := range details {
		if code == 0 && d.Code != 0 {
			code = d.Code
		}
		if msg == "" {
			msg = firstNonEmpty(d.Message, d.Detail, d.Title)
		}
	}
	if msg == "" {
		msg = firstNonEmpty(envelope.Detail, envelope.Title, envelope.Error)
	}
	return msg, code, details
}

// decodeErrorDetails normalizes the three observed shapes of "errors".
func decodeErrorDetails(raw json.RawMessage) []ErrorDetail {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if json.Unmarshal(trimmed, &s) == nil && s != "" {
			return []ErrorDetail{{Message: s}}
		}
	case '[':
		var list []ErrorDetail
		if json.Unmarshal(trimmed, &list) == nil {
			return list
		}
	case '{':
		var one ErrorDetail
		if json.Unmarshal(trimmed, &one) == nil {
			return []ErrorDetail{one}
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

const errBodyLimit = 256

func truncate(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
