package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors a file for writes and invokes onChange after each one.
// Editors often replace files instead of writing in place, so the watch is
// placed on the parent directory and events are filtered by name. Watch
// blocks until ctx is cancelled; errors from the watcher itself go to onErr.
func Watch(ctx context.Context, path string, onChange func(), onErr func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if onErr != nil {
				onErr(err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
