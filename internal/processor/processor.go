// Package processor drains the event queue, validates each event's path,
// and forwards accepted resolved paths into the task queue.
package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/pathflowapp/pathflow/internal/metrics"
	"github.com/pathflowapp/pathflow/internal/queue"
	"github.com/pathflowapp/pathflow/internal/validate"
	"github.com/pathflowapp/pathflow/internal/watcher"
)

// Processor is the single-loop event processor.
//
// Key design points:
//   - One event is handled fully (validate, optional delay, enqueue) before
//     the next is dequeued, so at most one validation is in flight and
//     arrival order is preserved.
//   - Every dequeued event is marked consumed exactly once, whichever exit
//     branch is taken.
//   - A validation failure discards the event; it is never retried.
type Processor struct {
	events    *queue.Queue[watcher.Event]
	tasks     *queue.Queue[string]
	validator validate.Validator
	delay     time.Duration
	logger    *slog.Logger
	recorder  metrics.Recorder
}

// Options configures a Processor.
type Options struct {
	// Validator checks each event path. Nil means every event is accepted.
	Validator validate.Validator
	// Delay is an optional pause after successful validation, letting file
	// writes settle before the path is handed downstream. Zero disables it.
	Delay time.Duration
	// Tasks is the output queue. Nil means validated events are consumed
	// with no downstream effect.
	Tasks *queue.Queue[string]
}

// New creates a processor draining events.
func New(events *queue.Queue[watcher.Event], opts Options, logger *slog.Logger, recorder metrics.Recorder) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Processor{
		events:    events,
		tasks:     opts.Tasks,
		validator: opts.Validator,
		delay:     opts.Delay,
		logger:    logger,
		recorder:  recorder,
	}
}

// Run processes events until ctx is cancelled. It always returns the
// context error; per-event failures are logged and absorbed.
func (p *Processor) Run(ctx context.Context) error {
	for {
		event, err := p.events.Get(ctx)
		if err != nil {
			return err
		}

		err = p.process(ctx, event)
		p.events.Done()
		if err != nil {
			// Cancelled mid-event: the dequeued event is dropped, loudly.
			p.logger.Warn("dropping in-flight event on shutdown",
				"kind", event.Kind.String(),
				"path", event.Path,
			)
			return err
		}
	}
}

// process handles one dequeued event. A non-nil return means ctx was
// cancelled; every other outcome consumes the event silently or loudly but
// keeps the loop alive.
func (p *Processor) process(ctx context.Context, event watcher.Event) error {
	p.logger.Debug("processing event",
		"kind", event.Kind.String(),
		"path", event.Path,
	)

	var attrs map[string]any
	if p.validator != nil {
		res := p.validator.Validate(ctx, event.Path)
		if !res.OK {
			p.recorder.ValidationFailed(event.Path)
			p.logger.Debug("validation failed",
				"path", event.Path,
				"reason", res.Reason,
			)
			return nil
		}
		attrs = res.Attrs
	}

	if p.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay):
		}
	}

	if p.tasks == nil {
		p.logger.Debug("no task queue configured, event consumed", "path", event.Path)
		return nil
	}

	resolved := event.Path
	if override, ok := attrs[validate.AttrResolvedPath].(string); ok && override != "" {
		resolved = override
	}

	if err := p.tasks.Put(ctx, resolved); err != nil {
		return err
	}

	p.recorder.TaskQueued(resolved)
	p.logger.Info("task queued", "path", resolved)
	return nil
}
