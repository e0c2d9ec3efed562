package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"unibooker.org/internal/auth"
	"unibooker.org/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithPrincipal(ctx, auth.Principal{UserID: 42, Email: "user@example.com", Role: auth.RoleAdmin})

	if err := LogEvent(ctx, "auth.login", map[string]any{"email": "user@example.com"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("type = %v", entry["type"])
	}
	if entry["event"] != "auth.login" {
		t.Fatalf("event = %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("request_id = %v", entry["request_id"])
	}
	if entry["user_id"] != float64(42) {
		t.Fatalf("user_id = %v", entry["user_id"])
	}
	if entry["role"] != "ADMIN" {
		t.Fatalf("role = %v", entry["role"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["email"] != "user@example.com" {
		t.Fatalf("fields = %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank event name")
	}
}
