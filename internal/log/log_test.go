package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
	})
	return buf
}

func TestInfoProducesLogfmtWithTimestamp(t *testing.T) {
	buf := withCapturedLogger(t)

	Info(context.Background(), "hello", "user", "test")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatalf("expected log output, got empty string")
	}
	if !strings.Contains(line, "ts=") {
		t.Fatalf("expected timestamp field in log line, got %q", line)
	}
	if !strings.Contains(line, "level=info") {
		t.Fatalf("expected level field in log line, got %q", line)
	}
	if !strings.Contains(line, "msg=hello") {
		t.Fatalf("expected message field in log line, got %q", line)
	}
	if !strings.Contains(line, "user=test") {
		t.Fatalf("expected structured field in log line, got %q", line)
	}
}

func TestWarnEmitsAtInfoLevel(t *testing.T) {
	buf := withCapturedLogger(t)

	Warn(context.Background(), "missing unit cost", "ingredientID", 42)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "level=warn") {
		t.Fatalf("expected warn level in log line, got %q", line)
	}
	if !strings.Contains(line, "ingredientID=42") {
		t.Fatalf("expected structured field in log line, got %q", line)
	}
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown log level")
	}
	if err := SetLevel("warn"); err != nil {
		t.Fatalf("expected warn to be accepted, got %v", err)
	}
	t.Cleanup(func() {
		if err := SetLevel("info"); err != nil {
			t.Fatalf("failed to restore log level: %v", err)
		}
	})
}
