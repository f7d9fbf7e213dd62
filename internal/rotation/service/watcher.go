package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor or an atomic rename produces.
const DefaultDebounce = 500 * time.Millisecond

// SettingsWatcher reports changes to the settings file.
//
// The parent directory is watched rather than the file itself, so replacing the file
// with a rename is seen as well as writing it in place.
type SettingsWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewSettingsWatcher starts watching the directory of path.
func NewSettingsWatcher(path string, debounce time.Duration, logger *slog.Logger) (*SettingsWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	return &SettingsWatcher{
		watcher:  fsw,
		path:     absPath,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Run calls onChange after the settings file was created or written, until ctx is
// done. It closes the underlying watcher before returning.
func (w *SettingsWatcher) Run(ctx context.Context, onChange func(ctx context.Context)) error {
	defer func() {
		_ = w.watcher.Close()
	}()

	var (
		timer    *time.Timer
		debounce <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != w.path || !(event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			debounce = timer.C
		case <-debounce:
			debounce = nil
			onChange(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("settings watcher error", slog.Any("error", err))
		}
	}
}
