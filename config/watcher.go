package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/benben/logging"
	"go.viam.com/benben/utils"
)

// DefaultWatchDebounce collapses the burst of events editors produce when saving.
const DefaultWatchDebounce = 250 * time.Millisecond

// A Watcher re-reads a config file whenever it changes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debounced func(func())
	workers   utils.StoppableWorkers
}

// NewWatcher watches filePath and calls onChange with each valid new config. Invalid configs are
// logged and skipped. The containing directory is watched, so files replaced by rename are seen.
func NewWatcher(
	filePath string,
	debounceWait time.Duration,
	onChange func(*Config),
	logger logging.Logger,
) (*Watcher, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config watcher")
	}
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		return nil, multierr.Combine(errors.Wrapf(err, "failed to watch %q", filePath), fsWatcher.Close())
	}
	if debounceWait <= 0 {
		debounceWait = DefaultWatchDebounce
	}

	reload := func() {
		conf, err := Read(absPath)
		if err != nil {
			logger.Warnw("ignoring invalid config change", "path", absPath, "error", err)
			return
		}
		logger.Infow("config reloaded", "path", absPath)
		onChange(conf)
	}

	w := &Watcher{fsWatcher: fsWatcher, debounced: debounce.New(debounceWait)}
	w.workers = utils.NewStoppableWorkers(func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath || !event.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				w.debounced(reload)
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("config watcher error", "error", err)
			}
		}
	})
	return w, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.workers.Stop()
	// Replace any pending reload.
	w.debounced(func() {})
	return w.fsWatcher.Close()
}
