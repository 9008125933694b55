// Package watcher monitors a directory tree for filesystem changes and
// delivers them to a Sink on a dedicated goroutine, isolated from the
// processing side of the pipeline.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pathflowapp/pathflow/internal/errors"
)

// Watcher owns one background goroutine bound to one root path.
//
// Lifecycle: Schedule binds a sink and path, Start spawns the monitoring
// goroutine, Stop halts it and blocks until it has fully exited. Starting an
// already-running watcher is a logged no-op, not an error.
type Watcher struct {
	backend Backend
	logger  *slog.Logger

	mu        sync.Mutex
	sink      Sink
	path      string
	recursive bool
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a watcher with the backend selected by opts.Mode.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	var backend Backend
	var err error
	switch opts.Mode {
	case ModePoll:
		backend = newPollBackend(logger, opts)
		logger.Debug("using polling backend", "interval", opts.PollInterval)
	case ModeNotify:
		backend, err = newNotifyBackend(logger, opts)
		logger.Debug("using fsnotify backend")
	default:
		return nil, fmt.Errorf("unknown watcher mode %q", opts.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	return &Watcher{
		backend: backend,
		logger:  logger,
	}, nil
}

// Schedule binds sink to the given root path. It must be called before
// Start; a nil sink falls back to a LoggingSink.
func (w *Watcher) Schedule(sink Sink, path string, recursive bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.Internal("cannot schedule a running watcher", nil)
	}
	if sink == nil {
		sink = LoggingSink{Logger: w.logger}
	}
	w.sink = sink
	w.path = path
	w.recursive = recursive
	return nil
}

// Start begins emitting events on a dedicated goroutine. Calling Start on a
// running watcher logs a warning and returns nil.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		w.logger.Warn("watcher is already running", "path", w.path)
		return nil
	}
	if w.path == "" {
		return errors.Internal("no path scheduled", nil)
	}
	if w.sink == nil {
		w.sink = LoggingSink{Logger: w.logger}
	}

	if err := w.backend.Watch(w.path, w.recursive); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true

	go w.run(ctx)

	w.logger.Info("started monitoring", "path", w.path, "recursive", w.recursive)
	return nil
}

// run is the watcher goroutine: it pumps the backend and dispatches events
// to the sink. Any panic is caught at this boundary and logged; the
// goroutine exits but the rest of the pipeline keeps running.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer func() {
		if r := recover(); r != nil {
			fault := errors.WatcherFault("watcher goroutine panicked", fmt.Errorf("%v", r))
			w.logger.Error("watcher stopped unexpectedly", "path", w.path, "error", fault)
		}
	}()

	go func() {
		if err := w.backend.Start(ctx); err != nil {
			w.logger.Error("watcher backend error", "path", w.path, "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.backend.Events():
			if !ok {
				return
			}
			w.dispatch(event)
		case err, ok := <-w.backend.Errors():
			if !ok {
				return
			}
			// Partial failures never halt monitoring of the rest of the tree.
			w.logger.Warn("watcher error", "path", w.path, "error", err)
		}
	}
}

// dispatch invokes the sink callback for one event, isolating sink panics so
// a bad handler cannot kill the watcher goroutine.
func (w *Watcher) dispatch(event Event) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("sink panicked",
				"kind", event.Kind.String(),
				"path", event.Path,
				"panic", r,
			)
		}
	}()

	switch event.Kind {
	case Created:
		w.sink.OnCreated(event)
	case Modified:
		w.sink.OnModified(event)
	case Removed:
		w.sink.OnRemoved(event)
	}
}

// Stop halts event emission and blocks until the watcher goroutine has
// exited. Safe to call on a watcher that never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	if err := w.backend.Stop(); err != nil {
		w.logger.Warn("backend stop", "error", err)
	}
	<-done

	w.logger.Info("stopped monitoring", "path", w.path)
}

// Join blocks until the watcher goroutine exits, without stopping it.
func (w *Watcher) Join() {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Running reports whether the watcher goroutine is active.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
