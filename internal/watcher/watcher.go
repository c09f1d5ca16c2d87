// Package watcher reports story files that change on disk so cached graphs
// can be dropped.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jwebster45206/voyage-engine/internal/storage"
)

// DefaultDebounce is how long a file must be quiet before it is reported.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one stories directory.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(filename string)
	logger   *slog.Logger
}

// New starts watching dir. onChange receives the base name of each story
// file after it has settled.
func New(dir string, debounce time.Duration, onChange func(filename string), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Info("Watching stories directory", "dir", dir)
	return &Watcher{
		fsw:      fsw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run delivers change notifications until ctx is done or the watcher is
// closed.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]*time.Timer)
	fired := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !storage.IsStoryFile(name) {
				continue
			}
			w.logger.Debug("Story file event", "file", name, "op", event.Op.String())

			if t, exists := pending[name]; exists {
				t.Stop()
			}
			pending[name] = time.AfterFunc(w.debounce, func() {
				select {
				case fired <- name:
				case <-ctx.Done():
				}
			})

		case name := <-fired:
			delete(pending, name)
			w.logger.Info("Story file changed", "file", name)
			w.onChange(name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
