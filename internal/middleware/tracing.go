package middleware

import (
	"fmt"

	"network/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// routeParams are copied onto the request span when the route has them.
var routeParams = map[string]string{
	"filter": "feed.filter",
	"id":     "entity.id",
	"userId": "profile.id",
}

// TracingMiddleware starts a server span per request, continuing any trace
// propagated by the caller. The trace id is exposed as X-Trace-ID and in
// c.Locals("traceID") for the logger.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))
		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.client_ip", c.IP()),
			),
		)

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()

		route := c.Route()
		span.SetName(c.Method() + " " + route.Path)
		span.SetAttributes(
			attribute.String("http.route", route.Path),
			attribute.Int("http.status_code", c.Response().StatusCode()),
		)
		for _, name := range route.Params {
			if key, ok := routeParams[name]; ok {
				span.SetAttributes(attribute.String(key, c.Params(name)))
			}
		}
		if rid, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", rid))
		}
		if uid, ok := CurrentUserID(c); ok {
			span.SetAttributes(attribute.Int64("user.id", int64(uid)))
		}

		if status := c.Response().StatusCode(); err == nil && status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", status))
		}
		observability.EndSpan(span, err)
		return err
	}
}
