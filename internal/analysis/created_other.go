//go:build !linux && !darwin && !windows

package analysis

import (
	"io/fs"
	"time"
)

// creationTime is unavailable here; the created field is left absent.
func creationTime(fs.FileInfo) time.Time {
	return time.Time{}
}
