package watcher

import "log/slog"

// Sink receives file system events. Callbacks are invoked synchronously on
// the watcher goroutine, so implementations must hand work off quickly and
// must never block on the pipeline they feed.
type Sink interface {
	OnCreated(event Event)
	OnModified(event Event)
	OnRemoved(event Event)
}

// LoggingSink is the default sink used when none is scheduled: it logs every
// event at debug level and takes no other action.
type LoggingSink struct {
	Logger *slog.Logger
}

func (s LoggingSink) log(event Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("filesystem event",
		"kind", event.Kind.String(),
		"path", event.Path,
		"is_dir", event.IsDir,
	)
}

// OnCreated implements Sink.
func (s LoggingSink) OnCreated(event Event) { s.log(event) }

// OnModified implements Sink.
func (s LoggingSink) OnModified(event Event) { s.log(event) }

// OnRemoved implements Sink.
func (s LoggingSink) OnRemoved(event Event) { s.log(event) }
