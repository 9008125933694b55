package watcher

import "time"

// Kind represents the type of file system event.
type Kind int

const (
	// Created is emitted when a new file or directory appears.
	Created Kind = iota
	// Modified is emitted when an existing file changes.
	Modified
	// Removed is emitted when a file or directory is deleted. Removed
	// events stop at the bridge; they are never piped into the pipeline.
	Removed
)

// String returns the string representation of the event kind.
func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event represents a file system event. Immutable once observed.
type Event struct {
	// Kind is the type of change (created, modified, removed).
	Kind Kind

	// Path is the affected file or directory path.
	Path string

	// IsDir reports whether the path was a directory when observed.
	// For removed paths this reflects the last known state.
	IsDir bool

	// ModTime is the path's modification time at observation, when known.
	ModTime time.Time
}
