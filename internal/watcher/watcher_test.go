package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ckb/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.JSONFormat, Level: logging.ErrorLevel, Output: os.Stderr})
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      string
	}{
		{EventCreate, "create"},
		{EventModify, "modify"},
		{EventDelete, "delete"},
		{EventRename, "rename"},
		{EventType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.eventType.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if !config.Enabled {
		t.Error("Enabled should be true by default")
	}
	if config.DebounceSeconds != 2 {
		t.Errorf("DebounceSeconds = %d, want 2", config.DebounceSeconds)
	}
	if len(config.IgnorePatterns) == 0 {
		t.Error("IgnorePatterns should not be empty")
	}
}

func TestNewWatcher(t *testing.T) {
	w := New(DefaultConfig(), testLogger(), func(string, []Event) {})
	if w == nil {
		t.Fatal("New() returned nil")
	}
	if w.repos == nil {
		t.Error("repos map should be initialized")
	}
}

func TestWatcherStats(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DebounceSeconds = 1

	w := New(cfg, testLogger(), nil)
	stats := w.Stats()

	if stats["enabled"] != true {
		t.Errorf("stats[enabled] = %v, want true", stats["enabled"])
	}
	if stats["watchedRepos"] != 0 {
		t.Errorf("stats[watchedRepos] = %v, want 0", stats["watchedRepos"])
	}
	if stats["debounceSeconds"] != 1 {
		t.Errorf("stats[debounceSeconds] = %v, want 1", stats["debounceSeconds"])
	}
}

func TestWatcherWatchedRepos(t *testing.T) {
	w := New(DefaultConfig(), testLogger(), nil)
	if repos := w.WatchedRepos(); len(repos) != 0 {
		t.Errorf("WatchedRepos() = %v, want empty", repos)
	}
}

func TestWatcherIsIgnored(t *testing.T) {
	cfg := Config{IgnorePatterns: []string{"*.log", "*.tmp", "node_modules/**"}}
	w := New(cfg, testLogger(), nil)

	tests := []struct {
		path    string
		ignored bool
	}{
		{"debug.log", true},
		{"temp.tmp", true},
		{filepath.Join("repo", ".git", "config"), true},
		{filepath.Join("repo", "node_modules", "pkg", "index.js"), true},
		{"main.go", false},
		{filepath.Join("src", "app.ts"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := w.IsIgnored(tt.path); got != tt.ignored {
				t.Errorf("IsIgnored(%q) = %v, want %v", tt.path, got, tt.ignored)
			}
		})
	}
}

func TestWatcherStartDisabled(t *testing.T) {
	w := New(Config{Enabled: false}, testLogger(), nil)
	if err := w.Start(); err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestWatcherStopWithoutWatch(t *testing.T) {
	w := New(DefaultConfig(), testLogger(), nil)
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestWatchAndDebouncedBatch(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var gotRepo string
	var gotEvents []Event

	cfg := DefaultConfig()
	cfg.DebounceSeconds = 0 // Watch maps 0 to the 2s default window

	w := New(cfg, testLogger(), func(repoName string, events []Event) {
		mu.Lock()
		gotRepo = repoName
		gotEvents = events
		mu.Unlock()
	})
	// A debounce of 0 or less falls back to the 2s default inside Watch.
	w.config.DebounceSeconds = 0

	if err := w.Watch(RepoWatch{RepoName: "demo", RootPath: dir}); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	defer w.Stop()

	if repos := w.WatchedRepos(); len(repos) != 1 || repos[0] != "demo" {
		t.Fatalf("WatchedRepos() = %v, want [demo]", repos)
	}

	if err := os.WriteFile(filepath.Join(dir, "new_file.go"), []byte("package demo\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	deadline := time.Now().Add(4 * time.Second) // outlasts the 2s debounce window
	for time.Now().Before(deadline) {
		mu.Lock()
		done := gotRepo != ""
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotRepo != "demo" {
		t.Errorf("handler repo = %q, want demo (events seen: %d)", gotRepo, len(gotEvents))
	}
}

func TestEventStructure(t *testing.T) {
	now := time.Now()
	event := Event{Type: EventModify, Path: "/path/to/file.go", Timestamp: now}

	if event.Type != EventModify {
		t.Errorf("Type = %v, want %v", event.Type, EventModify)
	}
	if event.Path != "/path/to/file.go" {
		t.Errorf("Path = %q, want '/path/to/file.go'", event.Path)
	}
	if !event.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", event.Timestamp, now)
	}
}

// Debouncer tests

func TestNewDebouncer(t *testing.T) {
	d := NewDebouncer(100 * time.Millisecond)
	if d == nil {
		t.Fatal("NewDebouncer() returned nil")
	}
	if d.delay != 100*time.Millisecond {
		t.Errorf("delay = %v, want 100ms", d.delay)
	}
}

func TestDebouncerTrigger(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		d.Trigger(func() {
			mu.Lock()
			called++
			mu.Unlock()
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if called != 1 {
		t.Errorf("Function should be called once, got %d", called)
	}
	mu.Unlock()
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called bool
	var mu sync.Mutex

	d.Trigger(func() {
		mu.Lock()
		called = true
		mu.Unlock()
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if called {
		t.Error("Function should not be called after cancel")
	}
	mu.Unlock()
}

func TestDebouncerFlush(t *testing.T) {
	d := NewDebouncer(500 * time.Millisecond)

	var called bool
	var mu sync.Mutex

	d.Trigger(func() {
		mu.Lock()
		called = true
		mu.Unlock()
	})
	d.Flush()

	mu.Lock()
	if !called {
		t.Error("Function should be called after flush")
	}
	mu.Unlock()
}

// BatchDebouncer tests

func TestNewBatchDebouncer(t *testing.T) {
	b := NewBatchDebouncer(100*time.Millisecond, func([]Event) {})
	if b == nil {
		t.Fatal("NewBatchDebouncer() returned nil")
	}
	if b.delay != 100*time.Millisecond {
		t.Errorf("delay = %v, want 100ms", b.delay)
	}
}

func TestBatchDebouncerAdd(t *testing.T) {
	var received []Event
	var mu sync.Mutex

	b := NewBatchDebouncer(50*time.Millisecond, func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	})

	b.Add(Event{Type: EventCreate, Path: "file1.go"})
	b.Add(Event{Type: EventModify, Path: "file2.go"})
	b.Add(Event{Type: EventDelete, Path: "file3.go"})

	if b.EventCount() != 3 {
		t.Errorf("EventCount() = %d, want 3", b.EventCount())
	}

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if len(received) != 3 {
		t.Errorf("Should have received 3 events, got %d", len(received))
	}
	mu.Unlock()
}

func TestBatchDebouncerCancel(t *testing.T) {
	var called bool
	var mu sync.Mutex

	b := NewBatchDebouncer(50*time.Millisecond, func([]Event) {
		mu.Lock()
		called = true
		mu.Unlock()
	})
	b.Add(Event{Type: EventCreate, Path: "file.go"})
	b.Cancel()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	if called {
		t.Error("Emit should not be called after cancel")
	}
	mu.Unlock()

	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d, want 0 after cancel", b.EventCount())
	}
}

func TestBatchDebouncerFlush(t *testing.T) {
	var received []Event
	var mu sync.Mutex

	b := NewBatchDebouncer(500*time.Millisecond, func(events []Event) {
		mu.Lock()
		received = events
		mu.Unlock()
	})
	b.Add(Event{Type: EventCreate, Path: "file.go"})
	b.Flush()

	mu.Lock()
	if len(received) != 1 {
		t.Errorf("Should have received 1 event, got %d", len(received))
	}
	mu.Unlock()

	if b.EventCount() != 0 {
		t.Errorf("EventCount() = %d, want 0 after flush", b.EventCount())
	}
}
