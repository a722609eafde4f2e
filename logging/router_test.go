package logging_test

import (
	"context"
	"testing"
	"time"

	"trackerbot/logging"
	"trackerbot/logging/sinks"
)

func TestRouterForwardsAndFilters(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityInfo
	cfg.Fields = map[string]any{"host": "arena"}
	fixed := time.Unix(1700000000, 0)
	router := logging.NewRouter(logging.ClockFunc(func() time.Time { return fixed }), cfg, []logging.NamedSink{{Name: "memory", Sink: memory}}, nil)

	router.Publish(context.Background(), logging.Event{Type: "tracker.detonated", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "tracker.noise", Severity: logging.SeverityDebug})
	router.Publish(context.Background(), logging.Event{})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event past the severity filter, got %d", len(events))
	}
	if !events[0].Time.Equal(fixed) {
		t.Fatalf("expected router clock to stamp the event, got %v", events[0].Time)
	}
	if events[0].Extra["host"] != "arena" {
		t.Fatalf("expected configured fields merged, got %v", events[0].Extra)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 {
		t.Fatalf("expected 1 forwarded event, got %d", stats.EventsTotal)
	}
	if router.Sink("memory") != memory {
		t.Fatalf("expected sink lookup by name")
	}
}

func TestRouterIgnoresPublishAfterClose(t *testing.T) {
	memory := sinks.NewMemorySink()
	router := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{{Name: "memory", Sink: memory}}, nil)
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})
	if len(memory.Events()) != 0 {
		t.Fatalf("expected closed router to drop events")
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
}

func TestSeverityText(t *testing.T) {
	var severity logging.Severity
	if err := severity.UnmarshalText([]byte("WARN")); err != nil {
		t.Fatalf("expected warn to parse, got %v", err)
	}
	if severity != logging.SeverityWarn {
		t.Fatalf("expected SeverityWarn, got %v", severity)
	}
	if err := severity.UnmarshalText([]byte("loud")); err == nil {
		t.Fatalf("expected unknown severity to fail")
	}
	text, _ := logging.SeverityError.MarshalText()
	if string(text) != "error" {
		t.Fatalf("expected error, got %q", text)
	}
}
