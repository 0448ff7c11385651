// Package remote defines the error taxonomy shared by the remote publishing clients.
//
// Every failure of a remote call is reported as *Error carrying a stable Code.
// Codes are classified as fatal (configuration or credentials must change before
// a retry can succeed) or retryable.
package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/stacklok/content-sync-server/internal/httpclient"
)

// Code identifies a class of remote failure
type Code string

const (
	// CodeRepoNotConfigured means no repository was configured
	CodeRepoNotConfigured Code = "repo_not_configured"

	// CodeRepoInvalidFormat means the repository is not "owner/repo"
	CodeRepoInvalidFormat Code = "repo_invalid_format"

	// CodeMissingToken means no credential was configured
	CodeMissingToken Code = "missing_token"

	// CodeInvalidToken means the remote rejected the credential (401)
	CodeInvalidToken Code = "invalid_token"

	// CodeRateLimitExceeded means the remote asked us to slow down
	CodeRateLimitExceeded Code = "rate_limit_exceeded"

	// CodeAccessForbidden means the credential lacks permission (403)
	CodeAccessForbidden Code = "access_forbidden"

	// CodeRepoNotFound means the repository or branch does not exist, or is invisible to the token
	CodeRepoNotFound Code = "repo_not_found"

	// CodeNotFound means a file or article does not exist
	CodeNotFound Code = "not_found"

	// CodeAPIError is any other non-success status
	CodeAPIError Code = "api_error"

	// CodeNetworkError means the exchange itself failed
	CodeNetworkError Code = "network_error"

	// CodeInvalidResponse means a success response could not be understood
	CodeInvalidResponse Code = "invalid_response"
)

// ErrNotFastForward matches ref updates refused because the branch moved
var ErrNotFastForward = errors.New("not a fast-forward")

// Error is a classified remote failure
type Error struct {
	Code Code
	// Status is the HTTP status, zero when no response was received
	Status int
	// Message is the remote's explanation, when it gave one
	Message string
	// ResetAt is when the rate limit resets, for CodeRateLimitExceeded
	ResetAt time.Time
	// Op names the call that failed, e.g. "create blob"
	Op  string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Code))
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Code == CodeRateLimitExceeded && !e.ResetAt.IsZero() {
		fmt.Fprintf(&b, ", resets at %s", e.ResetAt.UTC().Format(time.RFC3339))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches ErrNotFastForward for refused ref updates
func (e *Error) Is(target error) bool {
	if target == ErrNotFastForward {
		return e.Code == CodeAPIError && e.Status == http.StatusUnprocessableEntity &&
			strings.Contains(strings.ToLower(e.Message), "fast forward")
	}
	return false
}

// Fatal reports whether retrying without operator action is pointless
func (e *Error) Fatal() bool {
	switch e.Code {
	case CodeRepoNotConfigured, CodeRepoInvalidFormat, CodeMissingToken,
		CodeInvalidToken, CodeAccessForbidden, CodeRepoNotFound:
		return true
	default:
		return false
	}
}

// New creates an error without a response
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// FromTransport classifies a failed exchange
func FromTransport(op string, err error) *Error {
	return &Error{Code: CodeNetworkError, Op: op, Err: err}
}

// InvalidResponse reports a success response that could not be decoded
func InvalidResponse(op string, err error) *Error {
	return &Error{Code: CodeInvalidResponse, Op: op, Err: err}
}

// FromResponse classifies a non-success response. notFound is the code used
// for 404, since its meaning depends on what was requested.
func FromResponse(op string, resp *httpclient.Response, notFound Code) *Error {
	e := &Error{
		Op:      op,
		Status:  resp.StatusCode,
		Message: ExtractMessage(resp.Body),
	}

	switch {
	case isRateLimited(resp):
		e.Code = CodeRateLimitExceeded
		e.ResetAt = rateLimitReset(resp.Header)
	case resp.StatusCode == http.StatusUnauthorized:
		e.Code = CodeInvalidToken
	case resp.StatusCode == http.StatusForbidden:
		e.Code = CodeAccessForbidden
	case resp.StatusCode == http.StatusNotFound:
		e.Code = notFound
	default:
		e.Code = CodeAPIError
	}
	return e
}

// ExtractMessage pulls a human readable message out of an error body
func ExtractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"message", "error", "errors.0.message", "errors.0"} {
			if r := gjson.GetBytes(body, path); r.Exists() && r.Type == gjson.String {
				return r.String()
			}
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

// maxMessageLen caps, in bytes, a message taken from a non-JSON body
const maxMessageLen = 200

func isRateLimited(resp *httpclient.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// rateLimitReset reads the reset time from x-ratelimit-reset (epoch seconds)
// or retry-after (seconds)
func rateLimitReset(h http.Header) time.Time {
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			return time.Unix(secs, 0).UTC()
		}
	}
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			return time.Now().Add(time.Duration(secs) * time.Second).UTC()
		}
	}
	return time.Time{}
}

// AsError extracts a *Error from err
func AsError(err error) (*Error, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found remote error
func IsNotFound(err error) bool {
	re, ok := AsError(err)
	return ok && (re.Code == CodeNotFound || re.Code == CodeRepoNotFound)
}
