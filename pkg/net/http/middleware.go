package http

import (
	"time"

	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/Grindin247/decision-system/pkg/reqctx"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HeaderRequestID is the request identifier header key.
const HeaderRequestID = "X-Request-Id"

// WithRequestID propagates (or creates) the request correlation id and puts
// it in both the response header and the request context.
func WithRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(HeaderRequestID, requestID)
		c.SetUserContext(reqctx.WithRequestID(c.UserContext(), requestID))

		return c.Next()
	}
}

// WithLogger attaches a request-scoped child logger to the context so
// downstream layers log with the request id attached.
func WithLogger(logger log.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		requestLogger := logger.With(log.String("request_id", reqctx.RequestIDFrom(ctx)))
		c.SetUserContext(reqctx.WithLogger(ctx, requestLogger))

		return c.Next()
	}
}

// WithLogging emits one structured access log line per request.
func WithLogging() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		ctx := c.UserContext()
		logger := reqctx.LoggerFrom(ctx)

		level := log.LevelInfo
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			level = log.LevelError
		}

		logger.Log(ctx, level, "http request",
			log.String("method", c.Method()),
			log.String("path", c.Path()),
			log.Int("status", c.Response().StatusCode()),
			log.Any("duration_ms", time.Since(start).Milliseconds()),
			log.String("ip", c.IP()),
		)

		return err
	}
}

// WithTelemetry opens one span per request on the global tracer provider so
// handler logs correlate with traces.
func WithTelemetry(tracerName string) fiber.Handler {
	tracer := otel.Tracer(tracerName)

	return func(c *fiber.Ctx) error {
		ctx, span := tracer.Start(c.UserContext(), c.Method()+" "+c.Route().Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.route", c.Route().Path),
			),
		)
		defer span.End()

		c.SetUserContext(ctx)

		err := c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Response().StatusCode()))

		return err
	}
}
