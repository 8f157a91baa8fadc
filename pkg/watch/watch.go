// Package watch re-reads a staircase source file whenever it changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long the file must stay unchanged before a reload.
const DefaultQuiet = 300 * time.Millisecond

// Watcher calls OnChange with the new contents of one file. Rapid writes
// are coalesced, and OnChange always runs on the Run goroutine.
type Watcher struct {
	path     string
	quiet    time.Duration
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	onChange func(source string)

	closeOnce sync.Once
	closeErr  error
}

// New watches path. The parent directory is watched so editors that
// replace the file on save are still seen. A nil logger uses slog.Default.
func New(path string, quiet time.Duration, onChange func(source string), logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, quiet: quiet, fs: fw, logger: logger, onChange: onChange}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Close releases the underlying fsnotify watcher. It is safe to call more
// than once; Run calls it on return.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.fs.Close()
	})
	return w.closeErr
}

// Run blocks until ctx is cancelled or the watcher fails. A closed watcher
// returns nil at once.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("source changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.quiet)

		case <-timer.C:
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create)
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Warn("cannot read source", "path", w.path, "error", err)
		return
	}
	if w.onChange != nil {
		w.onChange(string(data))
	}
}
