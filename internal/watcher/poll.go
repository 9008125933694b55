package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// pollBackend implements Backend by diffing periodic snapshots of the tree.
// Detection latency equals the poll interval.
type pollBackend struct {
	logger *slog.Logger
	opts   Options

	root      string
	recursive bool

	// known is the last snapshot, touched only by the polling goroutine.
	known map[string]entry

	events chan Event
	errors chan error
	done   chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// entry is one snapshot record.
type entry struct {
	isDir   bool
	size    int64
	modTime time.Time
}

// newPollBackend creates a polling backend.
func newPollBackend(logger *slog.Logger, opts Options) *pollBackend {
	return &pollBackend{
		logger: logger,
		opts:   opts,
		known:  make(map[string]entry),
		events: make(chan Event, opts.QueueSize),
		errors: make(chan error, 10),
		done:   make(chan struct{}),
	}
}

// Watch records the root to snapshot. The initial tree state is captured on
// the first poll without emitting events, so pre-existing files are not
// reported as created.
func (b *pollBackend) Watch(path string, recursive bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path %s is not a directory", path)
	}
	b.root = filepath.Clean(path)
	b.recursive = recursive
	b.known = b.snapshot()
	return nil
}

// Start polls until ctx is cancelled.
func (b *pollBackend) Start(ctx context.Context) error {
	b.wg.Add(1)
	defer b.wg.Done()

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-b.done:
			return nil
		case <-ticker.C:
			b.poll()
		}
	}
}

// poll diffs the current tree against the last snapshot and emits events.
func (b *pollBackend) poll() {
	current := b.snapshot()

	for path, now := range current {
		prev, seen := b.known[path]
		switch {
		case !seen:
			b.emit(Event{Kind: Created, Path: path, IsDir: now.isDir, ModTime: now.modTime})
		case now.modTime != prev.modTime || now.size != prev.size:
			b.emit(Event{Kind: Modified, Path: path, IsDir: now.isDir, ModTime: now.modTime})
		}
	}

	for path, prev := range b.known {
		if _, still := current[path]; !still {
			b.emit(Event{Kind: Removed, Path: path, IsDir: prev.isDir})
		}
	}

	b.known = current
}

// snapshot walks the tree and records every path below the root.
// Unreadable entries are logged and skipped so one bad file never halts
// monitoring of the rest.
func (b *pollBackend) snapshot() map[string]entry {
	snap := make(map[string]entry, len(b.known))

	walk := func(p string, info os.FileInfo, err error) error {
		if err != nil {
			b.logger.Warn("failed to access path", "path", p, "error", err)
			if info != nil && info.IsDir() && p != b.root {
				return filepath.SkipDir
			}
			return nil
		}
		if p == b.root {
			return nil
		}
		snap[p] = entry{isDir: info.IsDir(), size: info.Size(), modTime: info.ModTime()}
		if info.IsDir() && !b.recursive {
			return filepath.SkipDir
		}
		return nil
	}

	if err := filepath.Walk(b.root, walk); err != nil {
		b.emitError(err)
	}
	return snap
}

func (b *pollBackend) emit(event Event) {
	select {
	case b.events <- event:
	case <-b.done:
	}
}

func (b *pollBackend) emitError(err error) {
	select {
	case b.errors <- err:
	default:
	}
}

// Events returns the events channel.
func (b *pollBackend) Events() <-chan Event {
	return b.events
}

// Errors returns the errors channel.
func (b *pollBackend) Errors() <-chan error {
	return b.errors
}

// Stop stops the backend and closes the event channels.
func (b *pollBackend) Stop() error {
	b.stopOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
		close(b.events)
		close(b.errors)
	})
	return nil
}
