package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"network/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMiddleware_NamesSpanByRoute(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/posts/:filter", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"posts": []any{}})
	})
	app.Get("/post/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusInternalServerError)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts/following", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	_, err = app.Test(httptest.NewRequest(http.MethodGet, "/post/9", nil))
	require.NoError(t, err)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "GET /posts/:filter", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("feed.filter", "following"))
	assert.Equal(t, codes.Unset, ended[0].Status().Code)
	assert.Equal(t, resp.Header.Get("X-Trace-ID"), ended[0].SpanContext().TraceID().String())

	assert.Equal(t, "GET /post/:id", ended[1].Name())
	assert.Contains(t, ended[1].Attributes(), attribute.String("entity.id", "9"))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}
