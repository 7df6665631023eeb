// Package watcher implements the File Watcher (C7 §4.6.4): per registered
// repo with auto_watch=true, it subscribes to real filesystem events on
// root_path, debounces bursts, and hands a batch of changed paths to a
// ChangeHandler (normally one that enqueues a REINDEX_MANY job).
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"ckb/internal/logging"
)

// EventType represents the type of file system event.
type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

// Event represents a single debounced file system event.
type Event struct {
	Type      EventType
	Path      string
	Timestamp time.Time
}

// String returns a string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// ChangeHandler is invoked once per debounced batch of changes for a repo.
type ChangeHandler func(repoName string, events []Event)

// defaultIgnoreDirs mirrors the spec's stated ignore set (§4.6.4), applied
// in addition to any repo-specific patterns.
var defaultIgnoreDirs = []string{".git", "node_modules", "__pycache__", ".venv"}

// Config contains watcher configuration.
type Config struct {
	Enabled         bool
	DebounceSeconds int
	IgnorePatterns  []string
}

// DefaultConfig returns the default watcher configuration (§4.6.4 defaults).
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		DebounceSeconds: 2,
		IgnorePatterns: []string{
			"*.log", "*.tmp", "node_modules/**", ".git/**", "__pycache__/**", ".venv/**",
		},
	}
}

// RepoWatch identifies a single repo being watched.
type RepoWatch struct {
	RepoName string
	RootPath string
}

// Watcher fans out one fsnotify subscription per watched repo, recursively
// registering newly-created subdirectories as they appear.
type Watcher struct {
	config  Config
	logger  *logging.Logger
	handler ChangeHandler

	mu    sync.RWMutex
	repos map[string]*repoWatch // repoName -> state

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type repoWatch struct {
	rootPath string
	fsw      *fsnotify.Watcher
	debouncer *BatchDebouncer
	stopCh   chan struct{}
}

// New creates a Watcher.
func New(config Config, logger *logging.Logger, handler ChangeHandler) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		config:  config,
		logger:  logger,
		handler: handler,
		repos:   make(map[string]*repoWatch),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the watcher; it is a no-op until repos are added via Watch.
func (w *Watcher) Start() error {
	if !w.config.Enabled {
		w.logger.Info("file watcher is disabled", nil)
		return nil
	}
	w.logger.Info("starting file watcher", map[string]interface{}{
		"debounceSeconds": w.config.DebounceSeconds,
	})
	return nil
}

// Stop stops all repo watches and waits for their goroutines to exit.
func (w *Watcher) Stop() error {
	w.logger.Info("stopping file watcher", nil)
	w.cancel()

	w.mu.Lock()
	for name, rw := range w.repos {
		close(rw.stopCh)
		_ = rw.fsw.Close()
		delete(w.repos, name)
	}
	w.mu.Unlock()

	w.wg.Wait()
	w.logger.Info("file watcher stopped", nil)
	return nil
}

// Watch starts watching a repo's root path, recursively registering every
// subdirectory with the OS notification backend.
func (w *Watcher) Watch(repo RepoWatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.repos[repo.RepoName]; exists {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := addRecursive(fsw, repo.RootPath, w); err != nil {
		_ = fsw.Close()
		return err
	}

	debounceDelay := time.Duration(w.config.DebounceSeconds) * time.Second
	if debounceDelay <= 0 {
		debounceDelay = 2 * time.Second
	}

	repoName := repo.RepoName
	rw := &repoWatch{
		rootPath: repo.RootPath,
		fsw:      fsw,
		stopCh:   make(chan struct{}),
	}
	rw.debouncer = NewBatchDebouncer(debounceDelay, func(events []Event) {
		w.logger.Debug("flushing debounced changes", map[string]interface{}{
			"repo": repoName, "count": len(events),
		})
		if w.handler != nil {
			w.handler(repoName, events)
		}
	})

	w.repos[repo.RepoName] = rw

	w.wg.Add(1)
	go w.watchLoop(repo.RepoName, rw)

	w.logger.Info("watching repository", map[string]interface{}{
		"repo": repo.RepoName, "path": repo.RootPath,
	})
	return nil
}

// Unwatch stops watching a repo.
func (w *Watcher) Unwatch(repoName string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if rw, exists := w.repos[repoName]; exists {
		close(rw.stopCh)
		_ = rw.fsw.Close()
		delete(w.repos, repoName)
		w.logger.Info("stopped watching repository", map[string]interface{}{"repo": repoName})
	}
}

func (w *Watcher) watchLoop(repoName string, rw *repoWatch) {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-rw.fsw.Events:
			if !ok {
				return
			}
			if w.IsIgnored(ev.Name) {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addRecursive(rw.fsw, ev.Name, w)
				}
			}

			rw.debouncer.Add(Event{Type: translateOp(ev.Op), Path: ev.Name, Timestamp: time.Now()})

		case err, ok := <-rw.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", map[string]interface{}{"repo": repoName, "error": err.Error()})

		case <-rw.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func translateOp(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create != 0:
		return EventCreate
	case op&fsnotify.Remove != 0:
		return EventDelete
	case op&fsnotify.Rename != 0:
		return EventRename
	default:
		return EventModify
	}
}

// addRecursive registers dir and every subdirectory beneath it with fsw,
// skipping ignored directories.
func addRecursive(fsw *fsnotify.Watcher, dir string, w *Watcher) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func isIgnoredDir(name string) bool {
	for _, d := range defaultIgnoreDirs {
		if name == d {
			return true
		}
	}
	return false
}

// IsIgnored checks a path against the configured ignore patterns plus the
// default ignored directories.
func (w *Watcher) IsIgnored(path string) bool {
	base := filepath.Base(path)
	for _, d := range defaultIgnoreDirs {
		if strings.Contains(path, string(os.PathSeparator)+d+string(os.PathSeparator)) || base == d {
			return true
		}
	}
	for _, pattern := range w.config.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(pattern, "**") {
			parts := strings.Split(pattern, "**")
			if len(parts) == 2 && strings.HasPrefix(path, strings.TrimSuffix(parts[0], "/")) &&
				(parts[1] == "" || strings.HasSuffix(path, strings.TrimPrefix(parts[1], "/"))) {
				return true
			}
		}
	}
	return false
}

// WatchedRepos returns the names of currently watched repos.
func (w *Watcher) WatchedRepos() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	repos := make([]string, 0, len(w.repos))
	for name := range w.repos {
		repos = append(repos, name)
	}
	return repos
}

// Stats returns watcher statistics for the admin plane.
func (w *Watcher) Stats() map[string]interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return map[string]interface{}{
		"enabled":         w.config.Enabled,
		"watchedRepos":    len(w.repos),
		"debounceSeconds": w.config.DebounceSeconds,
	}
}
