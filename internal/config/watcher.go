package config

import (
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmallory/llm-desk-tui/internal/logger"
)

// Watcher reloads the store when the config file changes on disk, so
// edits made in an external editor take effect without a restart.
// Invalid files are ignored and the current config stays active.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onReload func(Config)
	onError  func(error)
	stopChan chan struct{}
}

const debounceDelay = 500 * time.Millisecond

// NewWatcher creates a watcher for the store's backing file. The file
// must exist; callers skip watching on first run. onError reports
// reload and filesystem failures; either callback may be nil.
func NewWatcher(store *Store, onReload func(Config), onError func(error)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(store.Path()); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}

	return &Watcher{
		store:    store,
		watcher:  fsWatcher,
		onReload: onReload,
		onError:  onError,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go func() {
		defer func() { _ = w.watcher.Close() }()

		// Debounce to avoid reloading on every partial write.
		var debounce *time.Timer

		for {
			select {
			case <-w.stopChan:
				return

			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.reload)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Error("config watcher error", "error", err)
				w.reportError(err)
			}
		}
	}()

	logger.Info("config watcher started", "path", w.store.Path())
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopChan)
}

func (w *Watcher) reportError(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}

func (w *Watcher) reload() {
	if err := w.store.Load(); err != nil {
		logger.Error("config reload failed, keeping current config", "error", err)
		w.reportError(err)
		return
	}

	cfg := w.store.Get()
	if errs := cfg.Validate(); len(errs) > 0 {
		logger.Warn("reloaded config has validation errors", "errors", errs.Error())
	}

	logger.Info("configuration reloaded", "path", w.store.Path())
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
