package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLoggerParsesLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("DEBUG")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	defaulted, err := NewLogger("")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}
	if defaulted.GetLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level, got %s", defaulted.GetLevel())
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewLogger("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestComponentWritesJSONField(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("info")
	if err != nil {
		t.Fatalf("NewLogger returned error: %v", err)
	}

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	Component(logger, "ingest").Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "ingest" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	t.Parallel()

	hub, flush, err := InitSentry(NewDiscardLogger(), SentrySettings{})
	if err != nil {
		t.Fatalf("InitSentry returned error: %v", err)
	}
	if hub != nil {
		t.Fatalf("expected nil hub without DSN")
	}
	flush()
}

func TestInitSentryHooksErrorLevels(t *testing.T) {
	t.Parallel()

	logger := NewDiscardLogger()
	hub, flush, err := InitSentry(logger, SentrySettings{
		DSN:         "https://public@sentry.example.com/1",
		Environment: "test",
		Release:     "gukactl@test",
	})
	if err != nil {
		t.Fatalf("InitSentry returned error: %v", err)
	}
	if hub == nil || hub.Client() == nil {
		t.Fatalf("expected hub bound to a client")
	}
	if got := hub.Client().Options().Release; got != "gukactl@test" {
		t.Fatalf("expected release to be forwarded, got %q", got)
	}
	if len(logger.Hooks[logrus.ErrorLevel]) != 1 {
		t.Fatalf("expected one error-level hook, got %d", len(logger.Hooks[logrus.ErrorLevel]))
	}
	if len(logger.Hooks[logrus.InfoLevel]) != 0 {
		t.Fatalf("expected info entries to stay local")
	}
	flush()
}

func TestInitSentryRejectsMalformedDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := InitSentry(NewDiscardLogger(), SentrySettings{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected malformed DSN to fail")
	}
}
