package validate

import (
	"context"
	"fmt"
	"os"
)

// FolderValidator accepts paths that exist, are directories, and pass the
// common checks. There is no size check for directories.
type FolderValidator struct {
	com common
}

// NewFolderValidator creates a folder validator from the given rules.
// Size bounds in the rules are ignored.
func NewFolderValidator(rules Rules) (*FolderValidator, error) {
	com, err := newCommon(rules)
	if err != nil {
		return nil, err
	}
	return &FolderValidator{com: com}, nil
}

// Validate implements Validator.
func (v *FolderValidator) Validate(_ context.Context, path string) Result {
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

	attrs := map[string]any{}
	if ok, reason := v.com.check(path, info, attrs); !ok {
		return Reject(reason)
	}

	return Accept(attrs)
}
