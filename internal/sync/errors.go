package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stacklok/content-sync-server/internal/httpclient"
	"github.com/stacklok/content-sync-server/internal/remote"
)

// Kind classifies a sync failure
type Kind string

const (
	// KindConfig means the publishing target is not configured correctly
	KindConfig Kind = "config"
	// KindAuth means the credentials were rejected
	KindAuth Kind = "auth"
	// KindValidation means the item cannot be published as it is
	KindValidation Kind = "validation"
	// KindTransient means the attempt may succeed later
	KindTransient Kind = "transient"
	// KindRateLimit means the target asked us to back off
	KindRateLimit Kind = "rate_limit"
	// KindInternal is an unexpected failure inside the server
	KindInternal Kind = "internal"
)

// Fatal reports whether retrying without changes is pointless
func (k Kind) Fatal() bool {
	return k == KindConfig || k == KindAuth || k == KindValidation
}

// Error is a classified sync failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
	// RetryAt is when a rate limited attempt may be retried
	RetryAt *time.Time
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatal reports whether the failure needs operator action
func (e *Error) Fatal() bool {
	return e.Kind.Fatal()
}

func newError(kind Kind, err error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// classify converts an error returned by a collaborator
func classify(op string, err error) *Error {
	var syncErr *Error
	if errors.As(err, &syncErr) {
		return syncErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTransient, err, "%s interrupted", op)
	}

	re, ok := remote.AsError(err)
	if !ok {
		if httpclient.IsRetryable(err) {
			return newError(KindTransient, err, "%s failed", op)
		}
		return newError(KindInternal, err, "%s failed", op)
	}

	e := newError(kindOf(re), re, "%s failed", op)
	if re.Code == remote.CodeRateLimitExceeded && !re.ResetAt.IsZero() {
		retryAt := re.ResetAt
		e.RetryAt = &retryAt
	}
	return e
}

func kindOf(re *remote.Error) Kind {
	switch re.Code {
	case remote.CodeRepoNotConfigured, remote.CodeRepoInvalidFormat, remote.CodeMissingToken, remote.CodeRepoNotFound:
		return KindConfig
	case remote.CodeInvalidToken, remote.CodeAccessForbidden:
		return KindAuth
	case remote.CodeRateLimitExceeded:
		return KindRateLimit
	case remote.CodeNotFound:
		return KindValidation
	case remote.CodeNetworkError, remote.CodeInvalidResponse:
		return KindTransient
	}

	// api_error
	switch {
	case errors.Is(re, remote.ErrNotFastForward):
		return KindTransient
	case re.Status >= http.StatusInternalServerError, re.Status == http.StatusConflict,
		re.Status == http.StatusRequestTimeout:
		return KindTransient
	case re.Status >= http.StatusBadRequest:
		return KindValidation
	}
	return KindTransient
}
