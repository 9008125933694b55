// Package metrics defines the increment-only counters recorded by the
// pipeline. Components receive a Recorder by injection instead of touching
// shared global counters, and a failing recorder must never surface as a
// pipeline error.
package metrics

// Recorder counts pipeline activity, labeled by the affected path.
// Implementations must be safe for concurrent use and must never panic or
// return errors into the caller.
type Recorder interface {
	// EventDetected counts raw events seen by the bridge.
	EventDetected(path string)
	// EventAccepted counts events that passed the bridge filters.
	EventAccepted(path string)
	// EventDropped counts events lost to a full event queue.
	EventDropped(path string)
	// ValidationFailed counts events rejected by a validator.
	ValidationFailed(path string)
	// TaskQueued counts resolved paths placed on the task queue.
	TaskQueued(path string)
	// TaskConsumed counts tasks handed to the consumer callback.
	TaskConsumed(path string)
}

// Noop is the default Recorder; it discards everything.
type Noop struct{}

// EventDetected implements Recorder.
func (Noop) EventDetected(string) {}

// EventAccepted implements Recorder.
func (Noop) EventAccepted(string) {}

// EventDropped implements Recorder.
func (Noop) EventDropped(string) {}

// ValidationFailed implements Recorder.
func (Noop) ValidationFailed(string) {}

// TaskQueued implements Recorder.
func (Noop) TaskQueued(string) {}

// TaskConsumed implements Recorder.
func (Noop) TaskConsumed(string) {}
