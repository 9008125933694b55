//go:build linux

package validate

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the best available creation timestamp for a file.
// Linux does not expose birth time through os.FileInfo, so this falls back
// to the inode change time (ctime). Portability caveat: ctime also moves on
// metadata changes such as chmod, so a "created before" bound can reject a
// file that was merely re-permissioned inside the window.
func creationTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}
	return info.ModTime()
}
