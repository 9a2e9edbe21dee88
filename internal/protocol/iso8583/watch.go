package iso8583

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nilm987521/gofep/internal/logger"
)

// reloadDebounce coalesces the burst of write events editors and atomic
// renames produce into a single reload.
const reloadDebounce = 250 * time.Millisecond

// TableWatcher reloads registry providers when their definition files
// change. A reload failure keeps the previous table and logs the error, so a
// half-written file never takes down a running codec.
type TableWatcher struct {
	registry *TableRegistry
	watcher  *fsnotify.Watcher

	mu        sync.Mutex
	providers map[string]string // absolute path -> provider
	timers    map[string]*time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// NewTableWatcher starts a watcher over the registry. Providers are added
// with Watch; Close stops the event loop.
func NewTableWatcher(registry *TableRegistry) (*TableWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	tw := &TableWatcher{
		registry:  registry,
		watcher:   w,
		providers: make(map[string]string),
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
	tw.wg.Add(1)
	go tw.loop()
	return tw, nil
}

// Watch starts watching the provider's registered source file. The parent
// directory is watched rather than the file itself so atomic replace
// (write temp + rename) keeps working.
func (tw *TableWatcher) Watch(provider string) error {
	provider = providerKey(provider)
	path, ok := tw.registry.Source(provider)
	if !ok {
		return ErrUnknownProvider
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	tw.mu.Lock()
	tw.providers[abs] = provider
	tw.mu.Unlock()

	if err := tw.watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	logger.Debug("Watching field definition source", "provider", provider, "path", abs)
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (tw *TableWatcher) Close() error {
	close(tw.done)
	err := tw.watcher.Close()
	tw.wg.Wait()

	tw.mu.Lock()
	for _, t := range tw.timers {
		t.Stop()
	}
	tw.mu.Unlock()
	return err
}

func (tw *TableWatcher) loop() {
	defer tw.wg.Done()
	for {
		select {
		case <-tw.done:
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			tw.schedule(event.Name)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Field definition watcher error", "error", err)
		}
	}
}

func (tw *TableWatcher) schedule(name string) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return
	}

	tw.mu.Lock()
	defer tw.mu.Unlock()
	provider, ok := tw.providers[abs]
	if !ok {
		return
	}
	if t, ok := tw.timers[abs]; ok {
		t.Stop()
	}
	tw.timers[abs] = time.AfterFunc(reloadDebounce, func() {
		if err := tw.registry.Reload(provider); err != nil {
			logger.Error("Field table reload failed, keeping previous table",
				"provider", provider, "error", err)
			return
		}
		logger.Info("Field table reloaded", "provider", provider, "path", abs)
	})
}
