package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/content-sync-server/internal/api"
	contentmocks "github.com/stacklok/content-sync-server/internal/content/mocks"
	"github.com/stacklok/content-sync-server/internal/status"
	"github.com/stacklok/content-sync-server/internal/versions"
	schedmocks "github.com/stacklok/content-sync-server/internal/sync/scheduler/mocks"
)

func newServer(t *testing.T, opts ...api.ServerOption) (http.Handler, *schedmocks.MockScheduler) {
	t.Helper()
	ctrl := gomock.NewController(t)
	sched := schedmocks.NewMockScheduler(ctrl)
	return api.NewServer(sched, contentmocks.NewMockStore(ctrl), opts...), sched
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newServer(t)

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var response map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
}

func TestReadinessEndpoint(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		opts       []api.ServerOption
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "nil check is ignored",
			opts:       []api.ServerOption{api.WithReadinessCheck("redis", nil)},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
		},
		{
			name:       "all passing",
			opts:       []api.ServerOption{api.WithReadinessCheck("storage", ok), api.WithReadinessCheck("redis", ok)},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
			wantChecks: map[string]string{"storage": "ok", "redis": "ok"},
		},
		{
			name:       "one failing",
			opts:       []api.ServerOption{api.WithReadinessCheck("storage", ok), api.WithReadinessCheck("redis", down)},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
			wantChecks: map[string]string{"storage": "ok", "redis": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server, _ := newServer(t, tt.opts...)

			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readiness", nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			var response api.HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Equal(t, tt.wantStatus, response.Status)
			assert.Equal(t, tt.wantChecks, response.Checks)
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	t.Parallel()
	server, _ := newServer(t)

	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/version", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var response versions.VersionInfo
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, versions.GetVersionInfo(), response)
}

func TestV1RoutesAreMounted(t *testing.T) {
	t.Parallel()
	server, sched := newServer(t)
	sched.EXPECT().ListStatuses(gomock.Any()).Return(map[string]status.JobStatus{"1": status.JobStatusPending}, nil)

	req, err := http.NewRequest("GET", "/v1/status", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMiddlewaresAreApplied(t *testing.T) {
	t.Parallel()

	var called bool
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}
	server, _ := newServer(t, api.WithMiddlewares(mw, api.LoggingMiddleware))

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)
	server.ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	server, _ := newServer(t)

	req, err := http.NewRequest("GET", "/v2/items", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	scrape := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("content_sync_jobs_total 3\n"))
	})

	tests := []struct {
		name     string
		opts     []api.ServerOption
		wantCode int
	}{
		{name: "not configured", wantCode: http.StatusNotFound},
		{name: "configured", opts: []api.ServerOption{api.WithMetricsHandler(scrape)}, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server, _ := newServer(t, tt.opts...)

			rr := httptest.NewRecorder()
			server.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, tt.wantCode, rr.Code)
		})
	}
}
