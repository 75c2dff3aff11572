package htmlview

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// startWatcher begins watching the reload directory tree. Any relevant
// event just flips the stale flag; the next render pays for the
// reparse, so a burst of editor writes costs one rebuild.
func (e *Engine) startWatcher() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		e.watchErr = fmt.Errorf("htmlview: start watcher: %w", err)
		return
	}

	err = filepath.WalkDir(e.reloadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		e.watchErr = fmt.Errorf("htmlview: watch %s: %w", e.reloadDir, err)
		return
	}

	e.watcher = watcher
	go e.watchLoop(watcher)
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// New subdirectories need their own watch to catch
				// files created inside them later.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if event.Op.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				e.stale.Store(true)
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the reload watcher, if one is running.
func (e *Engine) Close() error {
	if e.watcher != nil {
		return e.watcher.Close()
	}
	return nil
}
