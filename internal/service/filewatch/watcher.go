package filewatch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/zhouzirui/staffbook/backend/internal/service/events"
)

// ChangeDetector tells edits made by the store apart from outside edits.
type ChangeDetector interface {
	Changed() (bool, error)
}

// Publisher receives the reload notification.
type Publisher interface {
	Publish(evt events.Event)
}

// Watcher publishes a reloaded event when the data file is modified by
// something other than the store.
type Watcher struct {
	target    string
	detector  ChangeDetector
	publisher Publisher
	fs        *fsnotify.Watcher
}

// New starts watching the directory holding path. The directory is watched
// rather than the file because whole-file rewrites replace the inode.
func New(path string, detector ChangeDetector, publisher Publisher) (*Watcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(target)); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	return &Watcher{
		target:    target,
		detector:  detector,
		publisher: publisher,
		fs:        fs,
	}, nil
}

// Run processes file events until ctx is done, then releases the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fs.Close() }()

	log.Printf("[watch] watching %s for outside edits", w.target)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.check(event)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Printf("[watch] watcher error: %v", err)
		}
	}
}

func (w *Watcher) check(event fsnotify.Event) {
	changed, err := w.detector.Changed()
	if err != nil {
		log.Printf("[watch] inspect %s: %v", w.target, err)
		return
	}
	if !changed {
		return
	}

	log.Printf("[watch] %s modified outside the service (%s)", w.target, event.Op)
	w.publisher.Publish(events.Event{Type: events.TypeReloaded})
}
