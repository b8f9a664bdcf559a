package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"charm.land/log/v2"
	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config at path whenever it changes and passes the result
// to fn. Reloads that fail validation are logged and skipped. The directory
// is watched rather than the file so editors that replace it on save still
// trigger a reload. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(*UserConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	var (
		mu     sync.Mutex
		timer  *time.Timer
		closed bool
	)
	defer func() {
		mu.Lock()
		closed = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	reload := func() {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		cfg, err := LoadFile(path)
		if err != nil {
			log.Warn("config reload failed", "path", path, "err", err)
			return
		}
		log.Debug("config reloaded", "path", path)
		fn(cfg)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(ReloadDebounce, reload)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher", "err", err)
		}
	}
}
