package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay collapses the burst of events editors emit for one save.
const debounceDelay = 300 * time.Millisecond

// Watch calls onChange with the subset of paths that changed on disk until
// ctx is done. Parent directories are watched rather than the files so that
// editors replacing a file by rename keep being tracked.
func Watch(ctx context.Context, paths []string, onChange func([]string), logf func(string, ...any)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	tracked := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		tracked[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		logf("watching %s", dir)
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			name, ok := tracked[filepath.Clean(event.Name)]
			if !ok || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logf("%s: %s", event.Op, name)
			pending[name] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounceDelay)
			fire = timer.C
		case <-fire:
			fire = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			clear(pending)
			onChange(changed)
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logf("watch error: %v", err)
		}
	}
}
