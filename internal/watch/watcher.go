// Package watch notices edits to the bundle's configuration files so that
// a long running anchor can reconcile again without a restart.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/anchorbundle/anchor/pkg/logging"
)

// DefaultDebounce is how long the watcher waits for further writes before
// reporting a change.
const DefaultDebounce = 500 * time.Millisecond

// Operation is the kind of change seen on a file.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Change is a debounced change to one watched file.
type Change struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

type pendingChange struct {
	change Change
	timer  *time.Timer
}

// Watcher watches a fixed set of files. The parent directories are watched
// so that editors that replace files on save are handled.
type Watcher struct {
	mu sync.Mutex

	files    map[string]string // lower-cased path -> path as given
	debounce time.Duration
	watcher  *fsnotify.Watcher
	pending  map[string]*pendingChange
	stopCh   chan struct{}
	running  bool
}

// New creates a watcher for files. A zero debounce uses DefaultDebounce.
func New(debounce time.Duration, files ...string) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{
		files:    make(map[string]string),
		debounce: debounce,
		pending:  make(map[string]*pendingChange),
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = filepath.Clean(f)
		}
		w.files[key(abs)] = abs
	}
	return w
}

func key(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// Start begins watching and delivers changes on changes until ctx is done
// or Stop is called. Changes are dropped when the channel is full.
func (w *Watcher) Start(ctx context.Context, changes chan<- Change) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make(map[string]bool)
	for _, f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			w.mu.Unlock()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logging.Debug("Watch", "Watching directory: %s", dir)
	}

	w.watcher = fw
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	go w.processEvents(ctx, fw, changes)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, fw *fsnotify.Watcher, changes chan<- Change) {
	for {
		select {
		case <-ctx.Done():
			w.cleanupPending()
			return
		case <-w.stopCh:
			w.cleanupPending()
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, changes)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logging.Error("Watch", err, "File watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, changes chan<- Change) {
	path, watched := w.files[key(event.Name)]
	if !watched {
		return
	}

	var op Operation
	switch {
	case event.Op.Has(fsnotify.Create):
		op = OperationCreate
	case event.Op.Has(fsnotify.Write):
		op = OperationUpdate
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		op = OperationDelete
	default:
		return
	}

	w.debounceChange(Change{Path: path, Operation: op, Timestamp: time.Now()}, changes)
}

func (w *Watcher) debounceChange(change Change, changes chan<- Change) {
	w.mu.Lock()
	defer w.mu.Unlock()

	k := key(change.Path)
	if p, ok := w.pending[k]; ok {
		p.timer.Stop()
		change.Operation = mergeOperations(p.change.Operation, change.Operation)
	}

	timer := time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		p, ok := w.pending[k]
		if ok {
			delete(w.pending, k)
		}
		w.mu.Unlock()

		if !ok {
			return
		}
		select {
		case changes <- p.change:
			logging.Debug("Watch", "Emitted %s change for %s", p.change.Operation, p.change.Path)
		default:
			logging.Warn("Watch", "Change channel full, dropping change for %s", p.change.Path)
		}
	})

	w.pending[k] = &pendingChange{change: change, timer: timer}
}

// mergeOperations folds a burst of events into one: a file that is created
// and then written is a create, a file that ends up removed is a delete and
// a removed file that comes back is an update.
func mergeOperations(old, next Operation) Operation {
	switch {
	case next == OperationDelete:
		return OperationDelete
	case old == OperationCreate:
		return OperationCreate
	case old == OperationDelete && next == OperationCreate:
		return OperationUpdate
	default:
		return next
	}
}

func (w *Watcher) cleanupPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.pending {
		p.timer.Stop()
	}
	w.pending = make(map[string]*pendingChange)
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	close(w.stopCh)

	err := w.watcher.Close()
	w.watcher = nil
	return err
}
