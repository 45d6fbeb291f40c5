package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"metricsindexer/apps/indexer/internal/usecase"
)

func TestContextHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	jsonHandler := slog.NewJSONHandler(&buf, nil)
	h := NewContextHandler(jsonHandler)
	logger := slog.New(h)

	ctx := context.Background()
	ctx = WithCorrelationID(ctx, "test-correlation-id")
	ctx = WithUseCase(ctx, usecase.Performance)

	logger.InfoContext(ctx, "test message")

	var logMap map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logMap); err != nil {
		t.Fatalf("failed to unmarshal log: %v", err)
	}

	if logMap["correlation_id"] != "test-correlation-id" {
		t.Errorf("expected correlation_id 'test-correlation-id', got %v", logMap["correlation_id"])
	}
	if logMap["use_case"] != "performance" {
		t.Errorf("expected use_case 'performance', got %v", logMap["use_case"])
	}
}

func TestContextHandler_WithAttrsKeepsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil))).With("component", "worker")

	logger.InfoContext(WithCorrelationID(context.Background(), "abc"), "msg")

	var logMap map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logMap); err != nil {
		t.Fatalf("failed to unmarshal log: %v", err)
	}
	if logMap["correlation_id"] != "abc" || logMap["component"] != "worker" {
		t.Errorf("unexpected log attributes: %v", logMap)
	}
}

func TestCorrelationID_Unknown(t *testing.T) {
	if got := CorrelationID(context.Background()); got != "unknown" {
		t.Errorf("expected 'unknown', got %q", got)
	}
}
