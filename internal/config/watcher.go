package config

import (
	"context"
	"path/filepath"
	"time"

	"fluorite-flake/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces editor write bursts into a single reload.
const watchDebounce = 250 * time.Millisecond

// Watch observes config.yaml in the given directory and calls onChange with
// the freshly loaded configuration after each modification. It blocks until
// the context is cancelled. Reload failures are logged and skipped; the
// previous configuration stays in effect.
func Watch(ctx context.Context, configPath string, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors often replace the file,
	// which would invalidate a file-level watch.
	if err := watcher.Add(configPath); err != nil {
		return err
	}

	target := ConfigFilePath(configPath)
	var timer *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(target) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("ConfigWatcher", err, "Watcher error for %s", configPath)
		case <-fire:
			cfg, err := Load(configPath)
			if err != nil {
				logging.Error("ConfigWatcher", err, "Reload failed, keeping previous configuration")
				continue
			}
			logging.Info("ConfigWatcher", "Configuration reloaded from %s", target)
			onChange(cfg)
		}
	}
}
