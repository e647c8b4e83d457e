package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/shadow/pkg/core"
)

// DebounceInterval coalesces bursts of events for the same document.
const DebounceInterval = 50 * time.Millisecond

// Watch reports document changes under the store until ctx is cancelled.
// pattern is a doublestar glob over document ids; empty matches everything.
// The returned channel is closed when watching stops.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := r.addRecursive(watcher, r.Path); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 64)
	done := make(chan struct{})
	deb := newDebouncer(DebounceInterval)
	send := func(e core.Event) {
		select {
		case events <- e:
		case <-done:
		case <-ctx.Done():
		}
	}

	r.setWatcherActive(true)
	r.logger.Debug("watch started", "path", r.Path, "pattern", pattern)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer func() {
			close(done)
			deb.stop()
			_ = watcher.Close()
			r.setWatcherActive(false)
			close(events)
			r.logger.Debug("watch stopped", "path", r.Path)
		}()
		return r.watchLoop(ctx, watcher, pattern, deb, send)
	}, lifecycle.WithErrorHandler(func(err error) {
		r.handleError(fmt.Errorf("watcher: %w", err))
	}))

	return events, nil
}

func (r *Repository) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, pattern string, deb *debouncer, send func(core.Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if e, ok := r.translate(watcher, ev, pattern); ok {
				deb.add(e, send)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.handleError(err)
		}
	}
}

// translate maps a filesystem event to a document event. New directories are
// added to the watcher on the way.
func (r *Repository) translate(watcher *fsnotify.Watcher, ev fsnotify.Event, pattern string) (core.Event, bool) {
	rel, err := filepath.Rel(r.Path, ev.Name)
	if err != nil || !filepath.IsLocal(rel) {
		return core.Event{}, false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if r.skipDir(part) {
			return core.Event{}, false
		}
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := r.addRecursive(watcher, ev.Name); err != nil {
				r.handleError(err)
			}
			return core.Event{}, false
		}
	}
	if !r.supported(filepath.Base(ev.Name)) {
		return core.Event{}, false
	}

	var typ core.EventType
	switch {
	case ev.Has(fsnotify.Create):
		typ = core.EventCreate
	case ev.Has(fsnotify.Write):
		typ = core.EventModify
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		typ = core.EventDelete
	default:
		return core.Event{}, false
	}

	id, err := r.resolveID(ev.Name)
	if err != nil {
		r.handleError(fmt.Errorf("failed to resolve id for %s: %w", ev.Name, err))
		return core.Event{}, false
	}
	if pattern != "" {
		if ok, _ := doublestar.Match(pattern, id); !ok {
			return core.Event{}, false
		}
	}

	r.logger.Debug("event", "type", typ, "id", id)
	return core.Event{Type: typ, ID: id, Timestamp: time.Now().Unix()}, true
}

func (r *Repository) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != r.Path && r.skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (r *Repository) handleError(err error) {
	r.logger.Error("watch error", "error", err)
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
	}
}

// debouncer delays events per document id and keeps only the latest one.
type debouncer struct {
	wait    time.Duration
	mu      sync.Mutex
	pending map[string]*pendingEvent
	wg      sync.WaitGroup
	stopped bool
}

type pendingEvent struct {
	event core.Event
	timer *time.Timer
}

func newDebouncer(wait time.Duration) *debouncer {
	return &debouncer{wait: wait, pending: make(map[string]*pendingEvent)}
}

func (d *debouncer) add(e core.Event, fire func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if p, ok := d.pending[e.ID]; ok {
		// A create followed by writes is still a create.
		if p.event.Type == core.EventCreate && e.Type == core.EventModify {
			e.Type = core.EventCreate
		}
		if p.timer.Stop() {
			d.wg.Done()
		}
	}

	p := &pendingEvent{event: e}
	d.wg.Add(1)
	p.timer = time.AfterFunc(d.wait, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.pending[e.ID] == p {
			delete(d.pending, e.ID)
		}
		d.mu.Unlock()
		fire(p.event)
	})
	d.pending[e.ID] = p
}

// stop drops pending events and waits for the ones already firing.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	for id, p := range d.pending {
		if p.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, id)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
