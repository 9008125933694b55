// Package validate implements the attribute predicates applied to candidate
// paths before they are forwarded to the task queue.
//
// A Validator inspects one path and returns a Result: either accepted, with a
// map of observed attributes, or rejected with the reason of the first failing
// check. Checks short-circuit, so a rejection reports exactly one reason.
package validate

import (
	"context"
	"time"
)

// Attribute keys populated by the built-in validators.
const (
	// AttrFileSize is the observed size in bytes (int64). Files only.
	AttrFileSize = "filesize"
	// AttrCreationTime is the observed creation time (time.Time).
	AttrCreationTime = "creation_time"
	// AttrModifiedTime is the observed modification time (time.Time).
	AttrModifiedTime = "modified_time"
	// AttrResolvedPath overrides the path forwarded to the task queue.
	// Validators set it when the consumable artifact is not the event path
	// itself (e.g. a companion file inside a detected directory).
	AttrResolvedPath = "resolved_path"
)

// Result is the outcome of a single validation pass. It is ephemeral:
// produced per call and not retained by the validator.
type Result struct {
	OK     bool
	Reason string
	Attrs  map[string]any
}

// Accept builds an accepted result carrying the given attributes.
func Accept(attrs map[string]any) Result {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return Result{OK: true, Attrs: attrs}
}

// Reject builds a rejected result with a failure reason.
func Reject(reason string) Result {
	return Result{OK: false, Reason: reason}
}

// Validator checks one candidate path.
//
// Implementations must report a missing path as a rejection with a reason,
// never as a distinct error path: by the time an event is dequeued its source
// may already be gone, and that is an expected per-event outcome.
type Validator interface {
	Validate(ctx context.Context, path string) Result
}

// Rules holds the optional attribute bounds shared by the file and folder
// validators. A nil bound imposes no constraint. Rules are immutable after
// construction and owned exclusively by their validator.
type Rules struct {
	// NamePattern is matched (regexp search, not full match) against the
	// basename of the path, never the full path.
	NamePattern string

	MinSize *int64
	MaxSize *int64

	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time
}

// Int64 returns a pointer to v, for building Rules literals.
func Int64(v int64) *int64 { return &v }

// Time returns a pointer to t, for building Rules literals.
func Time(t time.Time) *time.Time { return &t }
