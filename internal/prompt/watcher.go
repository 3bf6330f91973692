package prompt

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the registry when templates in the override
// directory change. Edits are debounced so editors that emit several
// events per save trigger one reload.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	registry    *Registry
	logger      *zap.Logger
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher builds a watcher for the registry's override directory.
func NewWatcher(registry *Registry, logger *zap.Logger) (*Watcher, error) {
	if registry.Dir() == "" {
		return nil, errors.New("no prompts directory to watch")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fw,
		registry:    registry,
		logger:      logger.Named("prompt-watcher"),
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; Stop joins the goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dir := w.registry.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		w.logger.Warn("failed to create prompts directory", zap.String("dir", dir), zap.Error(err))
	}
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("watch failed", zap.String("dir", dir), zap.Error(err))
	} else {
		w.logger.Info("watching prompts directory", zap.String("dir", dir))
	}

	go w.run()
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("failed to close watcher", zap.Error(err))
	}
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	// The ticker sweeps the debounce map for events that have settled.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch error", zap.Error(err))

		case <-ticker.C:
			if w.settled() {
				w.reload()
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".txt") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("template event", zap.String("op", event.Op.String()), zap.String("path", event.Name))

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// settled reports whether any recorded events have passed the debounce
// window, clearing them if so.
func (w *Watcher) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	ready := false
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			delete(w.debounceMap, path)
			ready = true
		}
	}
	return ready
}

func (w *Watcher) reload() {
	if err := w.registry.Reload(); err != nil {
		w.logger.Error("template reload failed", zap.Error(err))
		return
	}
	w.logger.Info("templates reloaded", zap.Strings("names", w.registry.Names()))
}
