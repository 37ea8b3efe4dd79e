package app

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile calls onChange each time path is written or recreated, until ctx
// ends. Editors that save by rename are covered by watching the directory.
func watchFile(ctx context.Context, path string, log *slog.Logger, onChange func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	name := filepath.Clean(path)
	if err := w.Add(filepath.Dir(name)); err != nil {
		return err
	}
	log.Debug("watching", "path", name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Op&fsnotify.Write != fsnotify.Write && event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if err := onChange(); err != nil {
				log.Warn("refresh failed", "path", name, "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "path", name, "err", err)
		}
	}
}
