package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type kindError struct{ fatal bool }

func (e kindError) Error() string { return "publish failed" }
func (e kindError) Fatal() bool   { return e.fatal }

func recordSpans(t *testing.T, fn func(tp *sdktrace.TracerProvider)) tracetest.SpanStubs {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	fn(tp)
	return exporter.GetSpans()
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("without tracer", func(t *testing.T) {
		t.Parallel()

		ctx, span := StartSpan(context.Background(), nil, "sync.Run")
		require.NotNil(t, ctx)
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { span.End() })
	})

	t.Run("with tracer", func(t *testing.T) {
		t.Parallel()

		spans := recordSpans(t, func(tp *sdktrace.TracerProvider) {
			_, span := StartSpan(context.Background(), tp.Tracer("test"), "github.AtomicCommit")
			span.SetAttributes(AttrItemID.String("42"), AttrFileCount.Int(3))
			span.End()
		})
		require.Len(t, spans, 1)
		assert.Equal(t, "github.AtomicCommit", spans[0].Name)

		attrs := map[string]string{}
		for _, attr := range spans[0].Attributes {
			attrs[string(attr.Key)] = attr.Value.Emit()
		}
		assert.Equal(t, map[string]string{"content.item_id": "42", "git.file_count": "3"}, attrs)
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("x")) })

	tests := []struct {
		name       string
		err        error
		wantStatus codes.Code
		wantFatal  *bool
	}{
		{name: "nil error", err: nil, wantStatus: codes.Unset},
		{name: "plain error", err: errors.New("boom"), wantStatus: codes.Error},
		{name: "fatal error", err: kindError{fatal: true}, wantStatus: codes.Error, wantFatal: func() *bool { b := true; return &b }()},
		{name: "retryable error", err: kindError{}, wantStatus: codes.Error, wantFatal: new(bool)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spans := recordSpans(t, func(tp *sdktrace.TracerProvider) {
				_, span := tp.Tracer("test").Start(context.Background(), "sync.Run")
				RecordError(span, tt.err)
				span.End()
			})
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)

			if tt.err == nil {
				assert.Empty(t, spans[0].Events)
				return
			}
			assert.Equal(t, "failed", spans[0].Status.Description)
			require.NotEmpty(t, spans[0].Events)
			assert.Equal(t, "exception", spans[0].Events[0].Name)

			var fatal *bool
			for _, attr := range spans[0].Attributes {
				if attr.Key == AttrErrorFatal {
					v := attr.Value.AsBool()
					fatal = &v
				}
			}
			assert.Equal(t, tt.wantFatal, fatal)
		})
	}
}
