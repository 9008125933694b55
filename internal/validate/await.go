package validate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultAwaitTimeout bounds how long an AwaitFileValidator polls before
	// failing closed.
	DefaultAwaitTimeout = 2 * time.Second
	// DefaultAwaitBackoff is the sleep between directory listings. A polling
	// loop without it would peg a core for the whole timeout window.
	DefaultAwaitBackoff = 50 * time.Millisecond
)

// AwaitFileValidator accepts a directory once it contains a named, non-empty
// companion file, polling the listing until a timeout elapses. A timeout is a
// plain rejection with a descriptive reason, not a distinct error class.
//
// Unreadable companion files during a polling window are transient: logged,
// then retried on the next iteration until the timeout.
type AwaitFileValidator struct {
	companion string
	timeout   time.Duration
	backoff   time.Duration
	resolve   bool
	logger    *slog.Logger
}

// AwaitOptions configures an AwaitFileValidator.
type AwaitOptions struct {
	// Timeout bounds the polling loop. Zero means DefaultAwaitTimeout.
	Timeout time.Duration
	// Backoff is the sleep between listings. Zero means DefaultAwaitBackoff.
	Backoff time.Duration
	// ResolveCompanion, when set, publishes the companion file's path under
	// AttrResolvedPath so the processor forwards it instead of the directory.
	ResolveCompanion bool
}

// NewAwaitFileValidator creates a validator waiting for companion inside the
// validated directory.
func NewAwaitFileValidator(companion string, opts AwaitOptions, logger *slog.Logger) *AwaitFileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAwaitTimeout
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultAwaitBackoff
	}
	return &AwaitFileValidator{
		companion: companion,
		timeout:   opts.Timeout,
		backoff:   opts.Backoff,
		resolve:   opts.ResolveCompanion,
		logger:    logger,
	}
}

// Validate implements Validator. It fails closed: when the caller's context
// is cancelled or the timeout elapses before a non-empty companion appears,
// the path is rejected.
func (v *AwaitFileValidator) Validate(ctx context.Context, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Reject(fmt.Sprintf("path %q does not exist", path))
		}
		return Reject(fmt.Sprintf("path %q is not accessible: %v", path, err))
	}
	if !info.IsDir() {
		return Reject(fmt.Sprintf("path %q is not a folder", path))
	}

	deadline := time.Now().Add(v.timeout)
	companionPath := filepath.Join(path, v.companion)

	for {
		switch found, err := v.checkCompanion(companionPath); {
		case err != nil:
			// Transient: the file may still be mid-write. Retry until timeout.
			v.logger.Warn("companion file not readable yet, retrying",
				"path", companionPath,
				"error", err,
			)
		case found:
			attrs := map[string]any{}
			if v.resolve {
				attrs[AttrResolvedPath] = companionPath
			}
			return Accept(attrs)
		}

		if time.Now().After(deadline) {
			return Reject(fmt.Sprintf(
				"no non-empty %q found in %q within %s", v.companion, path, v.timeout))
		}

		select {
		case <-ctx.Done():
			return Reject(fmt.Sprintf("wait for %q in %q cancelled: %v", v.companion, path, ctx.Err()))
		case <-time.After(v.backoff):
		}
	}
}

// checkCompanion reports whether the companion file exists and is non-empty.
// A stat failure other than absence is returned as a transient error.
func (v *AwaitFileValidator) checkCompanion(companionPath string) (bool, error) {
	info, err := os.Stat(companionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Size() > 0, nil
}
