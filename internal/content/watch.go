package content

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vmware/transport-docs/internal/logging"
)

// DefaultDebounce groups editor save bursts into one reload.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Library when Markdown files under a directory change.
// Pages already mounted keep the tree they were built from; only later
// mounts see the new sources.
type Watcher struct {
	watcher  *fsnotify.Watcher
	lib      *Library
	delay    time.Duration
	logger   *slog.Logger
	onReload func(error)
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.delay = d }
}

// WithWatchLogger sets the logger.
func WithWatchLogger(l *slog.Logger) WatchOption {
	return func(w *Watcher) { w.logger = logging.Component(l, "content-watcher") }
}

// WithReloadHook is called after every reload attempt with its result.
func WithReloadHook(fn func(error)) WatchOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher watches dir and every subdirectory below it.
func NewWatcher(dir string, lib *Library, opts ...WatchOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}

	w := &Watcher{
		watcher: fw,
		lib:     lib,
		delay:   DefaultDebounce,
		logger:  logging.Component(nil, "content-watcher"),
	}
	for _, opt := range opts {
		opt(w)
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	return w, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("content changed", "path", event.Name, "op", event.Op.String())
			if event.Op&fsnotify.Create == fsnotify.Create {
				// New subdirectories need their own watch.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			err := w.lib.Reload()
			if err != nil {
				w.logger.Warn("reloading content failed, keeping previous pages", "error", err)
			} else {
				w.logger.Info("content reloaded", "pages", w.lib.Len())
			}
			if w.onReload != nil {
				w.onReload(err)
			}
		}
	}
}

// relevant filters out editor swap files and non-Markdown writes.
func relevant(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	if event.Op&fsnotify.Create == fsnotify.Create && filepath.Ext(base) == "" {
		return true
	}
	return filepath.Ext(base) == ".md"
}
