package observe

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// TestLogger_IncludesInvocationFields verifies invocation fields are present in log output.
func TestLogger_IncludesInvocationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	meta := InvocationMeta{
		Unit:  "fetch-profile",
		Chain: "checkout-pipeline",
	}

	invLogger := logger.WithInvocation(meta)
	invLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if v, ok := logEntry["policy.unit"].(string); !ok || v != "fetch-profile" {
		t.Errorf("expected policy.unit='fetch-profile', got %v", logEntry["policy.unit"])
	}
	if v, ok := logEntry["policy.chain"].(string); !ok || v != "checkout-pipeline" {
		t.Errorf("expected policy.chain='checkout-pipeline', got %v", logEntry["policy.chain"])
	}
}

// TestLogger_OmitsEmptyChain verifies the chain field is absent when no chain label is set.
func TestLogger_OmitsEmptyChain(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	invLogger := logger.WithInvocation(InvocationMeta{Unit: "fetch-profile"})
	invLogger.Info(context.Background(), "test message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if _, present := logEntry["policy.chain"]; present {
		t.Errorf("expected no policy.chain field, got %v", logEntry["policy.chain"])
	}
}

// TestLogger_IncludesFields verifies extra fields appear in the entry.
func TestLogger_IncludesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Info(context.Background(), "test message",
		Field{Key: "duration_ms", Value: 50.5},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["duration_ms"].(float64); !ok || v != 50.5 {
		t.Errorf("expected duration_ms=50.5, got %v", logEntry["duration_ms"])
	}
}

// TestLogger_ErrorLevel verifies error log level and error field.
func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	logger.Error(context.Background(), "invocation failed",
		Field{Key: "error", Value: "connection timeout"},
	)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if v, ok := logEntry["level"].(string); !ok || v != "error" {
		t.Errorf("expected level='error', got %v", logEntry["level"])
	}
	if v, ok := logEntry["error"].(string); !ok || v != "connection timeout" {
		t.Errorf("expected error='connection timeout', got %v", logEntry["error"])
	}
}

// TestLogger_LevelFiltering verifies entries below the configured level are dropped.
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("warn", &buf)

	logger.Debug(context.Background(), "debug message")
	logger.Info(context.Background(), "info message")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got: %s", buf.String())
	}

	logger.Warn(context.Background(), "warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn message in output, got: %s", buf.String())
	}
}

// TestParseLogLevel verifies level parsing including the default.
func TestParseLogLevel(t *testing.T) {
	cases := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, c := range cases {
		if got := ParseLogLevel(c.input); got != c.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

// TestLogger_WithInvocationDoesNotMutateParent verifies the parent logger keeps its attributes.
func TestLogger_WithInvocationDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("info", &buf)

	_ = logger.WithInvocation(InvocationMeta{Unit: "child-unit"})
	logger.Info(context.Background(), "parent message")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("failed to parse log output as JSON: %v", err)
	}

	if _, present := logEntry["policy.unit"]; present {
		t.Errorf("parent logger leaked child attributes: %v", logEntry)
	}
}
