package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const TracerName = "meetings"

const (
	AttrMeetingID = "meeting_id"
	AttrUserID    = "user_id"
	AttrOutcome   = "outcome"
	AttrMessages  = "messages"
)

const (
	SpanFinish         = "meetings.finish"
	SpanFinishStatus   = "meetings.finish.status"
	SpanLoadTranscript = "meetings.finish.load_transcript"
	SpanSummarize      = "meetings.finish.summarize"
	SpanPersistSummary = "meetings.finish.persist_summary"
	SpanReconcile      = "meetings.reconcile"
)

// Tracer wraps the global OpenTelemetry tracer. Without an installed SDK the
// spans are no-ops.
type Tracer struct {
	tracer trace.Tracer
}

func NewTracer() *Tracer {
	return NewTracerFrom(otel.GetTracerProvider())
}

func NewTracerFrom(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

func (t *Tracer) Start(ctx context.Context, name, meetingID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, trace.WithAttributes(attribute.String(AttrMeetingID, meetingID)))
}

// Annotate adds attributes to the span carried by ctx.
func Annotate(ctx context.Context, kv ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(kv...)
}

func UserID(id string) attribute.KeyValue {
	return attribute.String(AttrUserID, id)
}

func Outcome(outcome string) attribute.KeyValue {
	return attribute.String(AttrOutcome, outcome)
}

func Messages(n int) attribute.KeyValue {
	return attribute.Int(AttrMessages, n)
}

// End records err on the span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
