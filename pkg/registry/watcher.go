package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/platinummonkey/protodoc/pkg/observability"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is the quiet period after the last change before a reload
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a registry when its descriptor set file changes
type Watcher struct {
	registry *Registry
	path     string
	debounce time.Duration
	logger   *logrus.Logger
}

// NewWatcher creates a watcher for the file at path. A non-positive
// debounce selects DefaultDebounce.
func NewWatcher(registry *Registry, path string, debounce time.Duration, logger *logrus.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		registry: registry,
		path:     filepath.Clean(path),
		debounce: debounce,
		logger:   observability.OrDefault(logger),
	}
}

// Run watches until ctx is done. The parent directory is watched rather
// than the file itself so that atomic replaces (write + rename) are seen.
func (w *Watcher) Run(ctx context.Context) error {
	defer observability.RecoverPanic(w.logger, "descriptor watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.WithField("path", w.path).Info("Started watching descriptor set")

	var (
		timer   *time.Timer
		pending <-chan time.Time
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
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.WithField("event", event.String()).Debug("Descriptor set changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			if _, err := w.registry.Reload(ctx, TriggerWatch); err != nil {
				w.logger.WithError(err).Warn("Reload after change failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
