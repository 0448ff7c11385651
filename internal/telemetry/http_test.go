package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRouter(mw func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/v1/jobs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/v1/sync/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func TestMetricsMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	mw, err := MetricsMiddleware(nil)
	require.NoError(t, err)
	assert.Nil(t, mw)
}

func TestMetricsMiddleware_RecordsRoutePattern(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mw, err := MetricsMiddleware(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)
	router := newRouter(mw)

	for _, path := range []string{"/v1/jobs/1", "/v1/jobs/2", "/nowhere"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	m := collect(t, reader, HTTPInstrumentationName, "content_sync_http_requests_total")
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("http.route"))
		counts[route.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"/v1/jobs/{id}": 2, unmatchedRoute: 1}, counts)

	active := collect(t, reader, HTTPInstrumentationName, "content_sync_http_active_requests")
	require.NotNil(t, active)
	for _, dp := range active.Data.(metricdata.Sum[int64]).DataPoints {
		assert.Zero(t, dp.Value)
	}
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	called := false
	handler := TracingMiddleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, called)
}

func TestTracingMiddleware_Spans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	router := newRouter(TracingMiddleware(tp))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/jobs/7", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/sync/7", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "GET /v1/jobs/{id}", spans[0].Name)
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)

	assert.Equal(t, "POST /v1/sync/{id}", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)

	var status int64
	for _, attr := range spans[1].Attributes {
		if attr.Key == "http.response.status_code" {
			status = attr.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(http.StatusInternalServerError), status)
}
