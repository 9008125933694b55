package watcher

import "context"

// Backend defines the mechanism-specific file watching implementation.
type Backend interface {
	// Watch adds a path to be monitored. The path must be a directory;
	// with recursive set, its whole subtree is monitored.
	Watch(path string, recursive bool) error

	// Start begins watching for events. It blocks until ctx is cancelled
	// or Stop is called.
	Start(ctx context.Context) error

	// Stop stops the watcher and releases all resources.
	Stop() error

	// Events returns the channel for receiving file system events.
	Events() <-chan Event

	// Errors returns the channel for receiving errors.
	Errors() <-chan error
}
