// Package otel holds the span helpers and attribute keys shared by the sync
// pipeline and the remote clients.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys
const (
	AttrItemID       = attribute.Key("content.item_id")
	AttrStrategy     = attribute.Key("sync.strategy")
	AttrOutcome      = attribute.Key("sync.outcome")
	AttrErrorKind    = attribute.Key("sync.error_kind")
	AttrErrorFatal   = attribute.Key("sync.error_fatal")
	AttrRepository   = attribute.Key("git.repository")
	AttrBranch       = attribute.Key("git.branch")
	AttrFileCount    = attribute.Key("git.file_count")
	AttrPayloadBytes = attribute.Key("git.payload_bytes")
)

// fatalError is implemented by the sync and remote errors
type fatalError interface {
	Fatal() bool
}

// StartSpan starts a span on tracer. Components built without a tracer get
// the span already in ctx, which is a no-op span unless a caller started one.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed. The status description stays generic;
// the error text only goes into the exception event, since remote messages
// may echo request details.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	if fe, ok := err.(fatalError); ok {
		span.SetAttributes(AttrErrorFatal.Bool(fe.Fatal()))
	}
	span.SetStatus(codes.Error, "failed")
}
