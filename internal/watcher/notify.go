package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// notifyBackend implements Backend on top of fsnotify.
type notifyBackend struct {
	logger  *slog.Logger
	opts    Options
	watcher *fsnotify.Watcher

	recursive bool

	events chan Event
	errors chan error
	done   chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// newNotifyBackend creates a backend using OS change notifications.
func newNotifyBackend(logger *slog.Logger, opts Options) (*notifyBackend, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &notifyBackend{
		logger:  logger,
		opts:    opts,
		watcher: fsw,
		events:  make(chan Event, opts.QueueSize),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a directory to be monitored.
func (b *notifyBackend) Watch(path string, recursive bool) error {
	path = filepath.Clean(path)
	b.recursive = recursive

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}

	if recursive {
		return b.watchTree(path)
	}
	return b.watcher.Add(path)
}

// watchTree registers watches for path and every directory below it.
// Unreadable entries are logged and skipped; one bad subtree must not stop
// the rest from being monitored.
func (b *notifyBackend) watchTree(path string) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			b.logger.Warn("failed to access path", "path", p, "error", err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := b.watcher.Add(p); err != nil {
			b.logger.Warn("failed to add watch", "path", p, "error", err)
			return nil
		}
		b.logger.Debug("added watch", "path", p)
		return nil
	})
}

// Start pumps fsnotify events until ctx is cancelled.
func (b *notifyBackend) Start(ctx context.Context) error {
	b.wg.Add(1)
	defer b.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		case raw, ok := <-b.watcher.Events:
			if !ok {
				return nil
			}
			b.handle(raw)
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return nil
			}
			b.emitError(err)
		}
	}
}

// handle translates one fsnotify event into a pipeline event.
func (b *notifyBackend) handle(raw fsnotify.Event) {
	path := raw.Name

	if raw.Op&fsnotify.Remove != 0 {
		b.emit(Event{Kind: Removed, Path: path})
		return
	}

	if raw.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Created and already gone; nothing downstream could consume it.
		b.logger.Debug("event path vanished before stat", "path", path)
		return
	}

	event := Event{
		Path:    path,
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}

	if raw.Op&fsnotify.Create != 0 {
		event.Kind = Created
		// New directories join the watch set so their contents are seen.
		if info.IsDir() && b.recursive {
			if err := b.watchTree(path); err != nil {
				b.emitError(err)
			}
		}
	} else {
		event.Kind = Modified
	}

	b.emit(event)
}

// emit sends an event without outliving Stop.
func (b *notifyBackend) emit(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *notifyBackend) emitError(err error) {
	select {
	case b.errors <- err:
	case <-b.done:
	default:
		// A slow reader never blocks the notification pump.
	}
}

// Events returns the events channel.
func (b *notifyBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *notifyBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the backend and closes the event channels.
func (b *notifyBackend) Stop() error {
	b.stopOnce.Do(func() {
		close(b.done)
		_ = b.watcher.Close()
		b.wg.Wait()
		close(b.events)
		close(b.errors)
	})
	return nil
}
