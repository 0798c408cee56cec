// Package watch reruns reconciliation when fragment files change.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-trend-sift/internal/core/model"
	"github.com/penwyp/go-trend-sift/internal/util"
)

const fragmentExt = ".jsonl"

type FileWatcher struct {
	watcher *fsnotify.Watcher
	root    string
	events  chan model.FileEvent
	done    chan struct{}
}

// NewFileWatcher watches root and every non-hidden directory below it.
func NewFileWatcher(root string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		root:    root,
		events:  make(chan model.FileEvent, 100),
		done:    make(chan struct{}),
	}

	if err := fw.addTree(root); err != nil {
		watcher.Close()
		return nil, err
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) addTree(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.watcher.Add(p)
	})
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New subdirectories have to be added explicitly
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.addTree(event.Name); err != nil {
						util.LogWarn("Failed to watch directory", util.F("dir", event.Name), util.F("error", err))
					}
					continue
				}
			}

			if filepath.Ext(event.Name) != fragmentExt || event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			select {
			case fw.events <- model.FileEvent{Path: event.Name, Operation: event.Op.String()}:
			case <-fw.done:
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error", util.F("error", err))
		}
	}
}

// Events delivers changes to fragment files. The channel closes after Close.
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	select {
	case <-fw.done:
		return nil
	default:
	}
	close(fw.done)
	return fw.watcher.Close()
}

// Debounce calls fn once per burst of events, after delay has passed with
// no further event. It returns when ctx is done or events is closed.
func Debounce(ctx context.Context, events <-chan model.FileEvent, delay time.Duration, fn func(changed []string)) {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]struct{})
	)
	flush := func() {
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		pending = make(map[string]struct{})
		fn(changed)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-events:
			if !ok {
				if timer != nil && timer.Stop() && len(pending) > 0 {
					flush()
				}
				return
			}
			util.LogDebug("Fragment file changed", util.F("file", ev.Path), util.F("op", ev.Operation))
			pending[ev.Path] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			flush()
		}
	}
}
