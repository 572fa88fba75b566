package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of build spans.
const TracerName = "github.com/vango-dev/vizsite"

// Tracer returns the build tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// StartBuild starts the span covering a whole build.
func StartBuild(ctx context.Context, tracer trace.Tracer, mode, base string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "vizsite.build",
		trace.WithAttributes(
			attribute.String("vizsite.mode", mode),
			attribute.String("vizsite.base", base),
		),
	)
}

// StartRoute starts the span for rendering one pathname.
func StartRoute(ctx context.Context, tracer trace.Tracer, routeID, pathname string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "vizsite.render",
		trace.WithAttributes(
			attribute.String("vizsite.route", routeID),
			attribute.String("vizsite.pathname", pathname),
		),
	)
}

// StartDeploy starts the span covering an upload to a bucket.
func StartDeploy(ctx context.Context, tracer trace.Tracer, bucket, prefix string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "vizsite.deploy",
		trace.WithAttributes(
			attribute.String("vizsite.bucket", bucket),
			attribute.String("vizsite.prefix", prefix),
		),
	)
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
