package remote

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/content-sync-server/internal/httpclient"
)

func TestFromResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		header      http.Header
		body        string
		notFound    Code
		wantCode    Code
		wantMessage string
		wantReset   time.Time
		wantFatal   bool
	}{
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			body:        `{"message":"Bad credentials"}`,
			wantCode:    CodeInvalidToken,
			wantMessage: "Bad credentials",
			wantFatal:   true,
		},
		{
			name:   "forbidden with exhausted quota is a rate limit",
			status: http.StatusForbidden,
			header: http.Header{
				"X-Ratelimit-Remaining": []string{"0"},
				"X-Ratelimit-Reset":     []string{"1700000000"},
			},
			body:        `{"message":"API rate limit exceeded"}`,
			wantCode:    CodeRateLimitExceeded,
			wantMessage: "API rate limit exceeded",
			wantReset:   time.Unix(1700000000, 0).UTC(),
		},
		{
			name:     "too many requests",
			status:   http.StatusTooManyRequests,
			wantCode: CodeRateLimitExceeded,
		},
		{
			name:        "plain forbidden",
			status:      http.StatusForbidden,
			header:      http.Header{"X-Ratelimit-Remaining": []string{"4999"}},
			body:        `{"message":"Resource not accessible by integration"}`,
			wantCode:    CodeAccessForbidden,
			wantMessage: "Resource not accessible by integration",
			wantFatal:   true,
		},
		{
			name:      "repo level not found",
			status:    http.StatusNotFound,
			body:      `{"message":"Not Found"}`,
			notFound:  CodeRepoNotFound,
			wantCode:  CodeRepoNotFound,
			wantFatal: true,
			// message is kept
			wantMessage: "Not Found",
		},
		{
			name:        "file level not found",
			status:      http.StatusNotFound,
			notFound:    CodeNotFound,
			wantCode:    CodeNotFound,
			wantMessage: "",
		},
		{
			name:        "unprocessable",
			status:      http.StatusUnprocessableEntity,
			body:        `{"message":"Validation Failed","errors":[{"message":"title is too long"}]}`,
			wantCode:    CodeAPIError,
			wantMessage: "Validation Failed",
		},
		{
			name:        "error field",
			status:      http.StatusBadRequest,
			body:        `{"error":"title can't be blank","status":400}`,
			wantCode:    CodeAPIError,
			wantMessage: "title can't be blank",
		},
		{
			name:        "non json body",
			status:      http.StatusBadGateway,
			body:        "upstream timed out\n",
			wantCode:    CodeAPIError,
			wantMessage: "upstream timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			header := tt.header
			if header == nil {
				header = http.Header{}
			}
			notFound := tt.notFound
			if notFound == "" {
				notFound = CodeNotFound
			}

			err := FromResponse("get ref", &httpclient.Response{
				StatusCode: tt.status,
				Header:     header,
				Body:       []byte(tt.body),
			}, notFound)

			assert.Equal(t, tt.wantCode, err.Code)
			assert.Equal(t, tt.status, err.Status)
			assert.Equal(t, tt.wantMessage, err.Message)
			assert.Equal(t, tt.wantFatal, err.Fatal())
			if !tt.wantReset.IsZero() {
				assert.Equal(t, tt.wantReset, err.ResetAt)
			}
		})
	}
}

func TestRetryAfterHeader(t *testing.T) {
	t.Parallel()

	before := time.Now()
	err := FromResponse("create article", &httpclient.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"30"}},
	}, CodeNotFound)

	require.Equal(t, CodeRateLimitExceeded, err.Code)
	assert.WithinDuration(t, before.Add(30*time.Second), err.ResetAt, 2*time.Second)
}

func TestError_NotFastForward(t *testing.T) {
	t.Parallel()

	err := FromResponse("update ref", &httpclient.Response{
		StatusCode: http.StatusUnprocessableEntity,
		Header:     http.Header{},
		Body:       []byte(`{"message":"Update is not a fast forward"}`),
	}, CodeRepoNotFound)

	wrapped := fmt.Errorf("commit failed: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFastForward)
	assert.False(t, err.Fatal())

	other := &Error{Code: CodeAPIError, Status: http.StatusUnprocessableEntity, Message: "Validation Failed"}
	assert.NotErrorIs(t, other, ErrNotFastForward)
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := &Error{
		Code:    CodeRateLimitExceeded,
		Status:  http.StatusForbidden,
		Message: "API rate limit exceeded",
		ResetAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Op:      "create blob",
	}
	assert.Equal(t,
		"create blob: rate_limit_exceeded (HTTP 403): API rate limit exceeded, resets at 2024-05-01T12:00:00Z",
		err.Error())

	netErr := FromTransport("get ref", errors.New("connection refused"))
	assert.Equal(t, "get ref: network_error: connection refused", netErr.Error())
	assert.False(t, netErr.Fatal())
	assert.ErrorContains(t, errors.Unwrap(netErr), "connection refused")
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("delete: %w", New(CodeNotFound, "delete file", ""))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(New(CodeRepoNotFound, "", "")))
	assert.False(t, IsNotFound(New(CodeAPIError, "", "")))
	assert.False(t, IsNotFound(errors.New("plain")))

	re, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, re.Code)

	assert.True(t, New(CodeMissingToken, "", "").Fatal())
	assert.True(t, New(CodeRepoInvalidFormat, "", "").Fatal())
	assert.False(t, InvalidResponse("x", errors.New("eof")).Fatal())
}

func TestExtractMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		want    string
		wantLen int
	}{
		{name: "empty", body: "", want: ""},
		{name: "json message", body: `{"message":"Bad credentials"}`, want: "Bad credentials"},
		{name: "nested error", body: `{"errors":[{"message":"too long"}]}`, want: "too long"},
		{name: "plain text", body: "  upstream timeout \n", want: "upstream timeout"},
		{name: "long ascii", body: strings.Repeat("a", 300), wantLen: maxMessageLen},
		// 199 ASCII bytes then a 3-byte rune straddling the limit
		{name: "rune across the limit", body: strings.Repeat("a", 199) + "€€", wantLen: 199},
		{name: "multibyte only", body: strings.Repeat("ü", 150), wantLen: maxMessageLen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ExtractMessage([]byte(tt.body))
			assert.True(t, utf8.ValidString(got))
			if tt.wantLen > 0 {
				assert.Len(t, got, tt.wantLen)
				assert.True(t, strings.HasPrefix(tt.body, got))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
