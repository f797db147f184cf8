package pipeline

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/cbindgen/errors"
	"github.com/teranos/cbindgen/logger"
)

// DefaultDebounce coalesces the burst of events an editor save produces
const DefaultDebounce = 500 * time.Millisecond

// ChangeFunc runs after watched files settle. An error is logged and
// watching continues.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher re-runs a callback when any of a set of files changes
type Watcher struct {
	paths    map[string]bool
	dirs     []string
	debounce time.Duration
	logger   *zap.SugaredLogger
}

// NewWatcher watches paths. Their parent directories are watched so that
// files replaced by rename are still seen.
func NewWatcher(paths []string, debounce time.Duration, log *zap.SugaredLogger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.NewInvalidConfigError("nothing to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w := &Watcher{paths: make(map[string]bool), debounce: debounce, logger: logger.OrNop(log)}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve %s", p)
		}
		w.paths[abs] = true
		if dir := filepath.Dir(abs); !dirs[dir] {
			dirs[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Watch blocks until ctx is done, calling fn once per settled burst of changes
func (w *Watcher) Watch(ctx context.Context, fn ChangeFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]bool)
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("watched file changed", logger.FieldFile, event.Name, "op", event.Op.String())
			pending[event.Name] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("watcher error", logger.FieldError, err)

		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			clear(pending)
			sort.Strings(changed)
			w.logger.Infow("regenerating", logger.FieldCount, len(changed))
			if err := fn(ctx, changed); err != nil {
				w.logger.Errorw("regeneration failed", logger.FieldError, err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return w.paths[abs]
}
