// Package manager assembles the watcher, bridge, processor, and consumer
// loop into one running pipeline with coordinated shutdown.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pathflowapp/pathflow/internal/bridge"
	"github.com/pathflowapp/pathflow/internal/errors"
	"github.com/pathflowapp/pathflow/internal/metrics"
	"github.com/pathflowapp/pathflow/internal/processor"
	"github.com/pathflowapp/pathflow/internal/queue"
	"github.com/pathflowapp/pathflow/internal/validate"
	"github.com/pathflowapp/pathflow/internal/watcher"
)

// State is the manager lifecycle state.
type State int

const (
	// StateCreated is the initial state after New.
	StateCreated State = iota
	// StateRunning means Run is active.
	StateRunning
	// StateStopping means Stop has begun tearing the pipeline down.
	StateStopping
	// StateStopped is terminal; construct a fresh manager to restart.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Callback consumes one resolved path from the task queue. It may block or
// honor ctx; any error or panic is caught and logged without terminating
// the consumer loop.
type Callback func(ctx context.Context, path string) error

// Config holds the pipeline wiring configuration.
type Config struct {
	// PathToMonitor is the watched root directory. Required.
	PathToMonitor string
	// Recursive also monitors subdirectories.
	Recursive bool

	// AllowPatterns, DenyPatterns, IgnoreDirectories, and CaseSensitive are
	// the bridge filter settings.
	AllowPatterns     []string
	DenyPatterns      []string
	IgnoreDirectories bool
	CaseSensitive     bool

	// ProcessDelay pauses the processor after successful validation.
	ProcessDelay time.Duration

	// EventQueueSize and TaskQueueSize bound the two queues.
	// Zero means queue.DefaultCapacity.
	EventQueueSize int
	TaskQueueSize  int

	// Watcher selects and tunes the watching mechanism.
	Watcher watcher.Options
}

// Manager owns the pipeline: the watcher goroutine, both queues, and the
// processor and consumer loops.
type Manager struct {
	cfg      Config
	watcher  *watcher.Watcher
	events   *queue.Queue[watcher.Event]
	tasks    *queue.Queue[string]
	proc     *processor.Processor
	callback Callback
	logger   *slog.Logger
	recorder metrics.Recorder

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New wires up a manager. The validator and callback may be nil: a nil
// validator accepts every event, a nil callback only logs consumed tasks.
func New(cfg Config, v validate.Validator, callback Callback, logger *slog.Logger, recorder metrics.Recorder) (*Manager, error) {
	if cfg.PathToMonitor == "" {
		return nil, errors.New("path to monitor is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	events := queue.New[watcher.Event](cfg.EventQueueSize)
	tasks := queue.New[string](cfg.TaskQueueSize)

	br, err := bridge.New(events, bridge.Options{
		AllowPatterns:     cfg.AllowPatterns,
		DenyPatterns:      cfg.DenyPatterns,
		IgnoreDirectories: cfg.IgnoreDirectories,
		CaseSensitive:     cfg.CaseSensitive,
	}, logger, recorder)
	if err != nil {
		return nil, fmt.Errorf("create bridge: %w", err)
	}

	w, err := watcher.New(logger, cfg.Watcher)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Schedule(br, cfg.PathToMonitor, cfg.Recursive); err != nil {
		return nil, fmt.Errorf("schedule watcher: %w", err)
	}

	proc := processor.New(events, processor.Options{
		Validator: v,
		Delay:     cfg.ProcessDelay,
		Tasks:     tasks,
	}, logger, recorder)

	return &Manager{
		cfg:      cfg,
		watcher:  w,
		events:   events,
		tasks:    tasks,
		proc:     proc,
		callback: callback,
		logger:   logger,
		recorder: recorder,
		state:    StateCreated,
		done:     make(chan struct{}),
	}, nil
}

// Run starts the watcher and runs the processor and consumer loops until
// ctx is cancelled, Stop is called, or a fatal error occurs in either loop.
// It blocks until both loops have exited and returns the first fatal error.
// A manager runs once; Run on a non-fresh manager returns ErrManagerDone.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateCreated {
		state := m.state
		m.mu.Unlock()
		return errors.ErrManagerDone.Wrap(fmt.Errorf("manager is %s", state))
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.state = StateRunning
	m.mu.Unlock()

	defer close(m.done)
	defer m.setState(StateStopped)
	defer cancel()

	if err := m.watcher.Start(); err != nil {
		return errors.WatcherFault("failed to start watcher", err)
	}
	defer m.watcher.Stop()

	m.logger.Info("pipeline running",
		"path", m.cfg.PathToMonitor,
		"recursive", m.cfg.Recursive,
	)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return m.proc.Run(gctx) })
	g.Go(func() error { return m.consume(gctx) })

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Error("pipeline failed", "error", err)
		return err
	}

	m.logger.Info("pipeline stopped")
	return nil
}

// consume drains the task queue, handing each resolved path to the callback.
// Callback faults are logged with full context and never kill the loop.
func (m *Manager) consume(ctx context.Context) error {
	for {
		path, err := m.tasks.Get(ctx)
		if err != nil {
			return err
		}

		id, _ := gonanoid.New(8)
		m.logger.Info("consuming task", "task_id", id, "path", path)

		if err := m.invoke(ctx, path); err != nil {
			fault := errors.CallbackFault("consumer callback failed", err)
			m.logger.Error("callback error",
				"task_id", id,
				"path", path,
				"error", fault,
			)
		}
		m.recorder.TaskConsumed(path)
		m.tasks.Done()
	}
}

// invoke runs the callback with panic isolation.
func (m *Manager) invoke(ctx context.Context, path string) (err error) {
	if m.callback == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panicked: %v", r)
		}
	}()
	return m.callback(ctx, path)
}

// Stop tears the pipeline down: the watcher first, so nothing new is
// enqueued, then the loops. It blocks until Run has returned and is safe to
// call multiple times, before or after Run has finished.
func (m *Manager) Stop() {
	m.mu.Lock()
	switch m.state {
	case StateCreated:
		// Never ran; nothing to tear down.
		m.state = StateStopped
		close(m.done)
		m.mu.Unlock()
		return
	case StateStopping, StateStopped:
		m.mu.Unlock()
		<-m.done
		return
	}
	m.state = StateStopping
	cancel := m.cancel
	m.mu.Unlock()

	m.logger.Info("stopping pipeline")
	m.watcher.Stop()
	cancel()
	<-m.done
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// TaskQueue exposes the task queue for callers that drain it themselves
// instead of supplying a callback.
func (m *Manager) TaskQueue() *queue.Queue[string] {
	return m.tasks
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}
