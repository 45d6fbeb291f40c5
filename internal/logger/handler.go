package logger

import (
	"context"
	"log/slog"

	"metricsindexer/apps/indexer/internal/usecase"
)

type ctxKey int

const (
	correlationKey ctxKey = iota
	useCaseKey
)

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return "unknown"
}

func WithUseCase(ctx context.Context, k usecase.Key) context.Context {
	return context.WithValue(ctx, useCaseKey, k)
}

// ContextHandler adds correlation_id and use_case attributes from the context.
type ContextHandler struct {
	slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: h}
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(correlationKey).(string); ok && id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	if k, ok := ctx.Value(useCaseKey).(usecase.Key); ok && k != "" {
		r.AddAttrs(slog.String("use_case", k.String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(name)}
}
