// Package reqctx carries request-scoped facilities (logger, request id)
// through context.Context.
package reqctx

import (
	"context"
	"strings"

	"github.com/Grindin247/decision-system/pkg/log"
	"github.com/google/uuid"
)

type contextKey string

const requestContextKey = contextKey("request_context")

// Values holds the request-scoped facilities attached to context.
type Values struct {
	RequestID string
	Logger    log.Logger
}

// WithLogger returns a context carrying the logger.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	values := valuesFrom(ctx)
	values.Logger = logger

	return context.WithValue(ctx, requestContextKey, values)
}

// WithRequestID returns a context carrying the request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	values := valuesFrom(ctx)
	values.RequestID = requestID

	return context.WithValue(ctx, requestContextKey, values)
}

// LoggerFrom extracts the logger from context, falling back to a no-op
// logger so callers never need nil checks.
//
//nolint:ireturn
func LoggerFrom(ctx context.Context) log.Logger {
	if values, ok := ctx.Value(requestContextKey).(*Values); ok && values.Logger != nil {
		return values.Logger
	}

	return &log.NopLogger{}
}

// RequestIDFrom extracts the request id from context, generating a fresh one
// when the context carries none.
func RequestIDFrom(ctx context.Context) string {
	if values, ok := ctx.Value(requestContextKey).(*Values); ok {
		if trimmed := strings.TrimSpace(values.RequestID); trimmed != "" {
			return trimmed
		}
	}

	return uuid.New().String()
}

func valuesFrom(ctx context.Context) *Values {
	if values, ok := ctx.Value(requestContextKey).(*Values); ok && values != nil {
		copied := *values
		return &copied
	}

	return &Values{}
}
