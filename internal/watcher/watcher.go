// Package watcher feeds a playground session from files on disk and writes
// every settled result back out.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/minplay/internal/debounce"
	"github.com/conneroisu/minplay/internal/logging"
)

// DefaultDelay groups the burst of events a single editor save produces.
const DefaultDelay = 100 * time.Millisecond

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ChangeHandler handles a debounced batch of changes, one event per path.
type ChangeHandler func(events []ChangeEvent) error

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(fw *FileWatcher) { fw.logger = l }
}

// WithScheduler sets the timer source used for debouncing.
func WithScheduler(s debounce.Scheduler) Option {
	return func(fw *FileWatcher) { fw.scheduler = s }
}

// FileWatcher watches individual files. It watches their parent directories
// so that editors which save by renaming a temporary file are still seen.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *debounce.Debouncer[struct{}]
	scheduler debounce.Scheduler
	logger    logging.Logger

	mutex    sync.RWMutex
	files    map[string]struct{}
	dirs     map[string]struct{}
	handlers []ChangeHandler
	pending  map[string]ChangeEvent

	stopOnce sync.Once
}

// NewFileWatcher creates a new file watcher
func NewFileWatcher(delay time.Duration, opts ...Option) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: w,
		files:   make(map[string]struct{}),
		dirs:    make(map[string]struct{}),
		pending: make(map[string]ChangeEvent),
	}
	for _, opt := range opts {
		opt(fw)
	}
	if fw.logger == nil {
		fw.logger = logging.Nop()
	}
	fw.logger = fw.logger.WithComponent("watcher")

	var debounceOpts []debounce.Option
	if fw.scheduler != nil {
		debounceOpts = append(debounceOpts, debounce.WithScheduler(fw.scheduler))
	}
	fw.debouncer = debounce.New(delay, func(context.Context, struct{}) { fw.flush() }, debounceOpts...)
	return fw, nil
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddFile starts watching path. The file itself need not exist yet, but its
// directory must.
func (fw *FileWatcher) AddFile(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	dir := filepath.Dir(abs)

	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	if _, ok := fw.dirs[dir]; !ok {
		if err := fw.watcher.Add(dir); err != nil {
			return "", fmt.Errorf("watching %s: %w", dir, err)
		}
		fw.dirs[dir] = struct{}{}
	}
	fw.files[abs] = struct{}{}
	return abs, nil
}

// Start runs the event loop until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher and cleans up resources
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.debouncer.Stop()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if event.Op == fsnotify.Chmod {
		return
	}

	fw.mutex.Lock()
	if _, ok := fw.files[path]; !ok {
		fw.mutex.Unlock()
		return
	}
	fw.pending[path] = newChangeEvent(path, event.Op)
	fw.mutex.Unlock()

	fw.debouncer.Schedule(struct{}{})
}

func newChangeEvent(path string, op fsnotify.Op) ChangeEvent {
	var eventType EventType
	switch {
	case op.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case op.Has(fsnotify.Write):
		eventType = EventTypeModified
	case op.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case op.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		eventType = EventTypeModified
	}

	ev := ChangeEvent{Type: eventType, Path: path}
	if info, err := os.Stat(path); err == nil {
		ev.ModTime = info.ModTime()
		ev.Size = info.Size()
	}
	return ev
}

// flush hands the pending batch to every handler, sorted by path.
func (fw *FileWatcher) flush() {
	fw.mutex.Lock()
	events := make([]ChangeEvent, 0, len(fw.pending))
	for _, ev := range fw.pending {
		events = append(events, ev)
	}
	fw.pending = make(map[string]ChangeEvent)
	handlers := append([]ChangeHandler(nil), fw.handlers...)
	fw.mutex.Unlock()

	if len(events) == 0 {
		return
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	for _, handler := range handlers {
		if err := handler(events); err != nil {
			fw.logger.Warn(context.Background(), err, "File watcher handler error")
		}
	}
}

// Flush delivers any pending batch now and waits for the handlers to return.
func (fw *FileWatcher) Flush(ctx context.Context) error {
	fw.debouncer.Flush()
	return fw.debouncer.Wait(ctx)
}
