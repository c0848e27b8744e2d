// Package watcher picks up edits to files the server has already loaded.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 500 * time.Millisecond

// Service watches one file and calls onChange after it was written or
// replaced.
type Service struct {
	path     string
	debounce time.Duration
	onChange func()
}

// NewService creates a watcher for path. A non-positive debounce uses
// DefaultDebounce.
func NewService(path string, debounce time.Duration, onChange func()) *Service {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Service{
		path:     filepath.Clean(path),
		debounce: debounce,
		onChange: onChange,
	}
}

// Start begins watching. The directory is watched rather than the file so
// that rename-and-replace saves are seen. Watching stops when ctx is done.
func (s *Service) Start(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	slog.Debug("Watcher: started", "path", s.path)
	go s.loop(ctx, w)
	return nil
}

func (s *Service) loop(ctx context.Context, w *fsnotify.Watcher) {
	defer w.Close()

	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(s.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(s.debounce)
			}

		case <-fire:
			slog.Debug("Watcher: file changed", "path", s.path)
			s.onChange()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher: error", "path", s.path, "error", err)
		}
	}
}
