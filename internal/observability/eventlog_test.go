package observability

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEventLog_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	events := []Event{
		{
			Time:    now,
			Level:   LevelInfo,
			Type:    "task.added",
			Message: "task added",
			Data:    map[string]any{"task_id": "6f1c2d9e-0000-4000-8000-000000000001"},
		},
		{
			Time:    now.Add(time.Second),
			Level:   LevelError,
			Type:    "store.save_failed",
			Message: "save failed",
			Data:    map[string]any{"error": "disk full"},
		},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}

	if result[0].Type != "task.added" {
		t.Errorf("expected type task.added, got %s", result[0].Type)
	}
	if result[0].Message != "task added" {
		t.Errorf("expected message 'task added', got %s", result[0].Message)
	}
	if !result[0].Time.Equal(now) {
		t.Errorf("expected time %v, got %v", now, result[0].Time)
	}
	if result[1].Level != LevelError {
		t.Errorf("expected level ERROR, got %s", result[1].Level)
	}
	if result[1].Data["error"] != "disk full" {
		t.Errorf("expected data to round-trip, got %v", result[1].Data)
	}
}

func TestEventLog_WriteFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	before := time.Now().UTC().Add(-time.Second)
	if err := log.Write(Event{Type: "task.completed", Message: "done"}); err != nil {
		t.Fatalf("writing event: %v", err)
	}

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result))
	}
	if result[0].Level != LevelInfo {
		t.Errorf("expected default level INFO, got %q", result[0].Level)
	}
	if result[0].Time.Before(before) {
		t.Errorf("expected time to be filled with now, got %v", result[0].Time)
	}
}

func TestEventLog_FilterByType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC()
	events := []Event{
		{Time: now, Level: LevelInfo, Type: "task.added", Message: "added"},
		{Time: now.Add(time.Second), Level: LevelInfo, Type: "task.completed", Message: "completed"},
		{Time: now.Add(2 * time.Second), Level: LevelInfo, Type: "task.added", Message: "another added"},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	result, err := log.Read(EventFilter{Type: "task.added"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 events of type task.added, got %d", len(result))
	}

	for _, e := range result {
		if e.Type != "task.added" {
			t.Errorf("expected type task.added, got %s", e.Type)
		}
	}
}

func TestEventLog_FilterByTimeRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: base, Level: LevelInfo, Type: "task.added", Message: "first"},
		{Time: base.Add(time.Hour), Level: LevelInfo, Type: "task.added", Message: "second"},
		{Time: base.Add(2 * time.Hour), Level: LevelInfo, Type: "task.added", Message: "third"},
		{Time: base.Add(3 * time.Hour), Level: LevelInfo, Type: "task.added", Message: "fourth"},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(2*time.Hour + 30*time.Minute)
	result, err := log.Read(EventFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 events in time range, got %d", len(result))
	}

	if result[0].Message != "second" {
		t.Errorf("expected 'second', got %s", result[0].Message)
	}
	if result[1].Message != "third" {
		t.Errorf("expected 'third', got %s", result[1].Message)
	}
}

func TestEventLog_FilterByLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC()
	events := []Event{
		{Time: now, Level: LevelInfo, Type: "task.added", Message: "info event"},
		{Time: now.Add(time.Second), Level: LevelError, Type: "store.save_failed", Message: "error event"},
		{Time: now.Add(2 * time.Second), Level: LevelInfo, Type: "task.deleted", Message: "another info"},
		{Time: now.Add(3 * time.Second), Level: LevelError, Type: "store.load_failed", Message: "another error"},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	result, err := log.Read(EventFilter{Level: LevelError})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 ERROR events, got %d", len(result))
	}

	for _, e := range result {
		if e.Level != LevelError {
			t.Errorf("expected level ERROR, got %s", e.Level)
		}
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("expected 0 events from empty log, got %d", len(result))
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := strings.Join([]string{
		`{"time":"2025-01-15T10:00:00Z","level":"INFO","type":"task.added","msg":"ok"}`,
		`not json at all`,
		``,
		`{"time":"2025-01-15T11:00:00Z","level":"INFO","type":"task.completed","msg":"ok"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 valid events, got %d", len(result))
	}
	if result[1].Type != "task.completed" {
		t.Errorf("expected task.completed, got %s", result[1].Type)
	}
}

func TestEventLog_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected log file to exist: %v", err)
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	const goroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < eventsPerGoroutine; i++ {
				event := Event{
					Time:    time.Now().UTC(),
					Level:   LevelInfo,
					Type:    "task.added",
					Message: "concurrent event",
					Data:    map[string]any{"goroutine": id, "index": i},
				}
				if err := log.Write(event); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}

	wg.Wait()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events after concurrent writes: %v", err)
	}

	expected := goroutines * eventsPerGoroutine
	if len(result) != expected {
		t.Errorf("expected %d events, got %d", expected, len(result))
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{"store.save_failed", LevelError},
		{"store.load_failed", LevelError},
		{"task.added", LevelInfo},
		{"task.deleted", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.eventType); got != tt.want {
			t.Errorf("LevelFor(%q) = %q, want %q", tt.eventType, got, tt.want)
		}
	}
}
