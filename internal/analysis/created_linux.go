//go:build linux

package analysis

import (
	"io/fs"
	"syscall"
	"time"
)

// creationTime reports the inode status-change time, the closest Linux equivalent stat exposes.
func creationTime(info fs.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}
	}
	return time.Unix(int64(stat.Ctim.Sec), int64(stat.Ctim.Nsec))
}
