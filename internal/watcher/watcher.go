// Package watcher reloads content when the data documents change on disk.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultDebounce is used when no positive debounce is configured
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc rebuilds content after a change
type ReloadFunc func(ctx context.Context) error

// Watcher watches the directories of a set of files and calls a ReloadFunc
// once a burst of changes to those files has settled
type Watcher struct {
	files    map[string]bool
	dirs     []string
	debounce time.Duration
	reload   ReloadFunc
	logger   *zap.Logger
}

// New creates a watcher for files. Directories are watched rather than the
// files themselves so editors that replace files by rename are followed.
func New(files []string, debounce time.Duration, reload ReloadFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		files:    make(map[string]bool, len(files)),
		debounce: debounce,
		reload:   reload,
		logger:   logger.Named("watcher"),
	}
	seenDir := make(map[string]bool)
	for _, f := range files {
		if f == "" {
			continue
		}
		clean := filepath.Clean(f)
		w.files[clean] = true
		dir := filepath.Dir(clean)
		if !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w
}

// Run blocks until ctx is done, reloading after each settled burst of
// changes. Reload errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create fsnotify watcher")
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return errors.Wrapf(err, "watch %s", dir)
		}
	}
	w.logger.Info("Watching data files", zap.Strings("dirs", w.dirs), zap.Duration("debounce", w.debounce))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("Data file changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := w.reload(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("Reload after change failed", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !w.files[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
