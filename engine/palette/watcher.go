package palette

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/chaos-go/common"
	"github.com/Carmen-Shannon/chaos-go/engine/dispatcher"
	"github.com/fsnotify/fsnotify"
)

// Enqueuer defers work to the render thread, typically a dispatcher.Dispatcher.
type Enqueuer interface {
	Enqueue(name string, action dispatcher.Action)
}

// Watcher reloads a palette file when it changes.
type Watcher interface {
	// Close stops watching. Reloads already enqueued still run.
	Close() error
}

type watcher struct {
	path     string
	fsw      *fsnotify.Watcher
	queue    Enqueuer
	sink     Sink
	onReload func(colors []uint32)

	// pending coalesces the burst of events a single save produces into one reload.
	pending atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

var _ Watcher = &watcher{}

// Watch starts watching the palette file at path. Change events never touch the sink directly: each enqueues a
// reload action on queue, so the palette is only replaced on the render thread between frames.
// The directory is watched rather than the file so editors that save by renaming a temporary file are noticed.
//
// Parameters:
//   - path: the palette image file
//   - queue: where reload actions are enqueued
//   - sink: receives the reloaded palette
//   - options: functional options for the watcher
//
// Returns:
//   - Watcher: the running watcher
//   - error: error if the watcher cannot be created or the directory cannot be watched
func Watch(path string, queue Enqueuer, sink Sink, options ...WatcherBuilderOption) (Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch palette %s: %w", path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch palette %s: %w", path, err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch palette %s: %w", path, err)
	}

	w := &watcher{
		path:  abs,
		fsw:   fsw,
		queue: queue,
		sink:  sink,
		done:  make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}

	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			if w.pending.CompareAndSwap(false, true) {
				w.queue.Enqueue("reload palette", w.reload)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			common.Logger().Error("palette watcher", slog.String("path", w.path), slog.Any("error", err))
		}
	}
}

// reload runs on the render thread. A file caught mid-write fails to decode and keeps the current palette;
// the write that completes it fires another event.
func (w *watcher) reload() error {
	w.pending.Store(false)

	colors, err := Load(w.path)
	if err != nil {
		common.Logger().Warn("palette reload skipped", slog.String("path", w.path), slog.Any("error", err))
		return nil
	}
	if err := w.sink.SetPalette(colors); err != nil {
		return err
	}

	common.Logger().Info("palette reloaded", slog.String("path", w.path), slog.Int("colors", len(colors)))
	if w.onReload != nil {
		w.onReload(colors)
	}
	return nil
}

func (w *watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
