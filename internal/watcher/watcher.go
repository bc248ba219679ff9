package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	recallerrors "github.com/notewell/recall/internal/errors"
)

// VaultWatcher watches a vault directory tree with fsnotify and emits
// debounced batches of note events. Directories are watched
// recursively; new subdirectories are added as they appear. Paths the
// filter rejects never reach the output.
type VaultWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	filter    func(path string) bool
	root      string
	errors    chan error
	stopCh    chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a watcher for the directory tree rooted at root. filter
// reports whether a path is a note worth emitting; nil accepts all.
func New(root string, opts Options, filter func(path string) bool) (*VaultWatcher, error) {
	opts = opts.WithDefaults()

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, recallerrors.ConfigError("failed to resolve watch root", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, recallerrors.New(recallerrors.ErrCodeInternal,
			"failed to create file system watcher", err)
	}

	if filter == nil {
		filter = func(string) bool { return true }
	}

	return &VaultWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
		filter:    filter,
		root:      abs,
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}, nil
}

// Start begins watching. It blocks until Stop is called or the watcher
// fails to initialize.
func (w *VaultWatcher) Start() error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	for {
		select {
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			select {
			case w.errors <- err:
			default:
				slog.Warn("watcher error dropped", slog.Any("error", err))
			}
		}
	}
}

// Events returns the channel of debounced event batches. The channel
// is closed when the watcher stops.
func (w *VaultWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Errors returns non-fatal watcher errors.
func (w *VaultWatcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and closes the event channel. Safe to call
// multiple times.
func (w *VaultWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	err := w.fsw.Close()
	w.debouncer.Stop()
	return err
}

// addRecursive watches dir and all non-hidden subdirectories.
func (w *VaultWatcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping unwatchable path",
				slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return recallerrors.New(recallerrors.ErrCodeInternal,
				"failed to watch directory "+path, err)
		}
		return nil
	})
}

// handle converts one fsnotify event and feeds the debouncer.
func (w *VaultWatcher) handle(event fsnotify.Event) {
	// A new directory must be watched before its files produce events.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(event.Name), ".") {
				if err := w.addRecursive(event.Name); err != nil {
					slog.Warn("failed to watch new directory",
						slog.String("path", event.Name), slog.Any("error", err))
				}
			}
			return
		}
	}

	if !w.filter(event.Name) {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		// fsnotify reports the old name; the new name arrives as a
		// separate CREATE.
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      event.Name,
		Operation: op,
		Timestamp: time.Now(),
	})
}
