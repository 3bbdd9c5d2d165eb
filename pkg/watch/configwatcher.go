package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/supporttools/wifi-doctor/pkg/logger"
)

// ConfigWatcher watches the configuration file and emits an event when it
// changes, so watch mode can pick up new thresholds without a restart.
type ConfigWatcher struct {
	configPath string
	debounce   time.Duration
	watcher    *fsnotify.Watcher
	changeCh   chan struct{}

	mu      sync.Mutex
	running bool
}

// NewConfigWatcher creates a watcher for the given config file.
func NewConfigWatcher(configPath string) (*ConfigWatcher, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &ConfigWatcher{
		configPath: configPath,
		debounce:   500 * time.Millisecond,
		watcher:    watcher,
		changeCh:   make(chan struct{}, 1),
	}, nil
}

// Start begins watching. The returned channel receives one event per
// debounced burst of changes, until ctx is cancelled.
func (cw *ConfigWatcher) Start(ctx context.Context) (<-chan struct{}, error) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.running {
		return nil, fmt.Errorf("watcher already running")
	}

	// Watch the directory rather than the file so atomic replace-by-rename
	// writes, common for editors, are still observed.
	dir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	cw.running = true

	go cw.processEvents(ctx)
	return cw.changeCh, nil
}

// Close stops the watcher and releases its resources.
func (cw *ConfigWatcher) Close() error {
	return cw.watcher.Close()
}

func (cw *ConfigWatcher) processEvents(ctx context.Context) {
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
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cw.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			// Debounce: editors produce several events per save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(cw.debounce, func() {
				select {
				case cw.changeCh <- struct{}{}:
				default:
				}
			})
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.WithError(err).Warn("Config watcher error")
		}
	}
}
