package validate

import (
	"context"
	"fmt"
	"os"
)

// FileValidator accepts paths that exist, are regular files, pass the common
// checks, and fall inside the configured size window.
type FileValidator struct {
	com common
}

// NewFileValidator creates a file validator from the given rules.
// It fails only on an invalid name pattern.
func NewFileValidator(rules Rules) (*FileValidator, error) {
	com, err := newCommon(rules)
	if err != nil {
		return nil, err
	}
	return &FileValidator{com: com}, nil
}

// Validate implements Validator.
func (v *FileValidator) Validate(_ context.Context, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Reject(fmt.Sprintf("path %q does not exist", path))
		}
		return Reject(fmt.Sprintf("path %q is not accessible: %v", path, err))
	}
	if info.IsDir() || !info.Mode().IsRegular() {
		return Reject(fmt.Sprintf("path %q is not a regular file", path))
	}

	attrs := map[string]any{}
	if ok, reason := v.com.check(path, info, attrs); !ok {
		return Reject(reason)
	}

	size := info.Size()
	attrs[AttrFileSize] = size
	if min := v.com.rules.MinSize; min != nil && size < *min {
		return Reject(fmt.Sprintf("filesize %d is less than minimum allowed %d", size, *min))
	}
	if max := v.com.rules.MaxSize; max != nil && size > *max {
		return Reject(fmt.Sprintf("filesize %d is greater than maximum allowed %d", size, *max))
	}

	return Accept(attrs)
}
