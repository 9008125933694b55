package watcher

import "time"

// Mode selects the watching mechanism.
type Mode string

const (
	// ModeNotify uses OS change notifications via fsnotify.
	ModeNotify Mode = "notify"
	// ModePoll diffs periodic tree snapshots. Detection latency equals the
	// poll interval; use it on filesystems where notifications are
	// unreliable (network mounts, some containers).
	ModePoll Mode = "poll"
)

// Options configures the watcher behavior.
type Options struct {
	// Mode selects the backend. Defaults to ModeNotify.
	Mode Mode

	// PollInterval is the snapshot interval for ModePoll.
	// Defaults to 500ms, keeping detection latency well under a second.
	PollInterval time.Duration

	// QueueSize is the capacity of the backend event channel.
	QueueSize int
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.Mode == "" {
		o.Mode = ModeNotify
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
}
