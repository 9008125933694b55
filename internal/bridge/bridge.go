// Package bridge filters raw filesystem events and hands the survivors
// across the watcher-goroutine boundary into the event queue.
//
// The bridge is the only component invoked on the watcher goroutine that
// touches pipeline state, and its single cross-boundary operation is a
// non-blocking TryPut. It must never block: a full event queue drops the
// event with a warning instead of stalling the watcher.
package bridge

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/pathflowapp/pathflow/internal/metrics"
	"github.com/pathflowapp/pathflow/internal/queue"
	"github.com/pathflowapp/pathflow/internal/watcher"
)

// Options configures event filtering.
type Options struct {
	// AllowPatterns are regexes matched against the full event path. With a
	// non-empty list, an event none of them match is suppressed. An empty
	// list allows everything.
	AllowPatterns []string

	// DenyPatterns suppress any event whose full path matches one of them.
	// Deny wins over allow.
	DenyPatterns []string

	// IgnoreDirectories suppresses events whose path is a directory.
	IgnoreDirectories bool

	// CaseSensitive governs regex matching. When false, patterns are
	// compiled case-insensitively.
	CaseSensitive bool
}

// Bridge implements watcher.Sink. It forwards accepted Created and Modified
// events into the event queue; Removed events are logged and discarded.
type Bridge struct {
	queue    *queue.Queue[watcher.Event]
	allow    []*regexp.Regexp
	deny     []*regexp.Regexp
	opts     Options
	logger   *slog.Logger
	recorder metrics.Recorder
}

// New creates a bridge posting into q. It fails on an invalid pattern.
func New(q *queue.Queue[watcher.Event], opts Options, logger *slog.Logger, recorder metrics.Recorder) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	allow, err := compilePatterns(opts.AllowPatterns, opts.CaseSensitive)
	if err != nil {
		return nil, fmt.Errorf("allow patterns: %w", err)
	}
	deny, err := compilePatterns(opts.DenyPatterns, opts.CaseSensitive)
	if err != nil {
		return nil, fmt.Errorf("deny patterns: %w", err)
	}

	return &Bridge{
		queue:    q,
		allow:    allow,
		deny:     deny,
		opts:     opts,
		logger:   logger,
		recorder: recorder,
	}, nil
}

func compilePatterns(patterns []string, caseSensitive bool) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if !caseSensitive {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// OnCreated implements watcher.Sink.
func (b *Bridge) OnCreated(event watcher.Event) {
	b.post(event)
}

// OnModified implements watcher.Sink.
func (b *Bridge) OnModified(event watcher.Event) {
	b.post(event)
}

// OnRemoved implements watcher.Sink. Delete events are not piped into the
// pipeline; they are only visible in the debug log.
func (b *Bridge) OnRemoved(event watcher.Event) {
	b.logger.Debug("ignoring removed event", "path", event.Path)
}

// post applies the inclusion rules and performs the thread-safe handoff.
func (b *Bridge) post(event watcher.Event) {
	b.recorder.EventDetected(event.Path)

	if event.IsDir && b.opts.IgnoreDirectories {
		b.logger.Debug("suppressing directory event", "path", event.Path)
		return
	}
	if !b.included(event.Path) {
		b.logger.Debug("suppressing filtered event", "path", event.Path)
		return
	}

	if !b.queue.TryPut(event) {
		b.recorder.EventDropped(event.Path)
		b.logger.Warn("event queue full, dropping event",
			"kind", event.Kind.String(),
			"path", event.Path,
		)
		return
	}

	b.recorder.EventAccepted(event.Path)
	b.logger.Debug("queued event",
		"kind", event.Kind.String(),
		"path", event.Path,
	)
}

// included applies the allow-list then the deny-list to the full path.
func (b *Bridge) included(path string) bool {
	if len(b.allow) > 0 {
		matched := false
		for _, re := range b.allow {
			if re.MatchString(path) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range b.deny {
		if re.MatchString(path) {
			return false
		}
	}
	return true
}
