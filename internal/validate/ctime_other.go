//go:build !linux

package validate

import (
	"os"
	"time"
)

// creationTime returns the best available creation timestamp for a file.
// On platforms without a portable birth-time accessor this falls back to the
// modification time, which makes creation-window bounds a no-op distinct from
// modification-window bounds only on Linux. Documented portability caveat.
func creationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
