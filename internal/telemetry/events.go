package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var eventTracer = otel.Tracer("yatube-events")

// StartPostEvent opens a span for a post mutation ("post.create", "post.edit")
func StartPostEvent(ctx context.Context, name string, authorID uint, groupID *uint) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.Int64("post.author_id", int64(authorID))}
	if groupID != nil {
		attrs = append(attrs, attribute.Int64("post.group_id", int64(*groupID)))
	}
	return eventTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartFollowEvent opens a span for a follow graph change ("follow.create", "follow.delete")
func StartFollowEvent(ctx context.Context, name string, followerID uint, author string) (context.Context, trace.Span) {
	return eventTracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("follow.user_id", int64(followerID)),
		attribute.String("follow.author", author),
	))
}

// EndEvent records err on the span, if any, and ends it
func EndEvent(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
