// Package watcher watches the workbench data directory for artifact
// file changes and emits debounced events, so the server can refresh
// the graph and notify connected clients without polling.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// Config configures the file watcher.
type Config struct {
	// Root is the data directory to watch.
	Root string

	// Patterns are doublestar globs, relative to Root, selecting the
	// files to report. Empty means report everything.
	Patterns []string

	// Debounce is how long to wait for more changes before emitting.
	Debounce time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// Operation indicates the type of file operation.
type Operation string

const (
	OpCreate Operation = "create"
	OpModify Operation = "modify"
	OpDelete Operation = "delete"
)

// Event is a debounced file change, with Path relative to the watch
// root.
type Event struct {
	Path      string
	Operation Operation
}

// Watcher watches for artifact file changes.
type Watcher struct {
	config  Config
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before emitting.
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op

	events chan Event
}

// New creates a watcher over the configured root.
func New(config Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Debounce == 0 {
		config.Debounce = 200 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan Event, 100),
	}, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. It returns immediately; events flow until the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.config.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("File watcher started",
		"root", w.config.Root,
		"patterns", w.config.Patterns,
		"debounce", w.config.Debounce)
	return nil
}

// Stop stops the underlying filesystem watcher. The event channel is
// closed by the processing goroutine once it drains, so consumers
// ranging over Events terminate cleanly.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// matches reports whether a root-relative path is selected by the
// configured patterns.
func (w *Watcher) matches(relPath string) bool {
	if len(w.config.Patterns) == 0 {
		return true
	}
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range w.config.Patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		// Skip hidden directories below the root itself.
		if path != root && strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// processEvents handles fsnotify events with debouncing. It owns the
// outbound channel: only this goroutine sends on it, and it closes the
// channel on return, so Stop can never race a send against the close.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent accumulates a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	// Watch newly created directories.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(path), ".") {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("Failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	relPath, err := filepath.Rel(w.config.Root, path)
	if err != nil || !w.matches(relPath) {
		return
	}

	w.pendingMu.Lock()
	w.pending[path] |= event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("File change detected", "path", relPath, "op", event.Op.String())
}

// flushPending emits accumulated changes.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		relPath, _ := filepath.Rel(w.config.Root, path)
		event := Event{Path: filepath.ToSlash(relPath)}

		switch {
		case op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename):
			event.Operation = OpDelete
		case op.Has(fsnotify.Create):
			// A create followed by deletion within one window is noise.
			if _, err := os.Stat(path); os.IsNotExist(err) {
				event.Operation = OpDelete
			} else {
				event.Operation = OpCreate
			}
		default:
			event.Operation = OpModify
		}

		w.sendEvent(event)
	}
}

func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
		w.logger.Debug("Sent watch event", "path", event.Path, "op", event.Operation)
	default:
		w.logger.Warn("Event channel full, dropping event", "path", event.Path)
	}
}
