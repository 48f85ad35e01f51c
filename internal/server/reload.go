package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is the quiet period after the last write before reloading.
const reloadDebounce = 500 * time.Millisecond

// Reloadable is anything that can re-read its configuration.
type Reloadable interface {
	Reload() error
}

// Reloader watches config files for changes and triggers hot-reload.
type Reloader struct {
	watcher *fsnotify.Watcher
	target  Reloadable
	logger  *slog.Logger
	files   map[string]bool
}

// NewReloader creates a file watcher for the given paths. Empty and
// missing paths are skipped. The parent directory is watched so editors
// that replace the file by rename are picked up.
func NewReloader(target Reloadable, paths []string, logger *slog.Logger) (*Reloader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", dir, err)
		}
		dirs[dir] = true
	}

	return &Reloader{
		watcher: watcher,
		target:  target,
		logger:  logger,
		files:   files,
	}, nil
}

// Watching reports how many files are watched.
func (r *Reloader) Watching() int {
	return len(r.files)
}

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if !r.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					if err := r.target.Reload(); err != nil {
						r.logger.Error("hot-reload failed", "error", err)
					} else {
						r.logger.Info("hot-reload: config reloaded")
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("file watcher error", "error", err)
		}
	}
}
