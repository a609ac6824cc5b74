package types

import "fmt"

const (
	scanErrorFormat     = "scan %s: %v"
	fileReadErrorFormat = "%s %s: %v"

	// FileOperationStat marks a failed stat call.
	FileOperationStat = "stat"
	// FileOperationHash marks a failed digest computation.
	FileOperationHash = "hash"
	// FileOperationRead marks a failed content read.
	FileOperationRead = "read"
)

// ScanError aborts an analysis run: the root is unusable or a directory could not be listed.
type ScanError struct {
	Path string
	Err  error
}

func (scanError *ScanError) Error() string {
	return fmt.Sprintf(scanErrorFormat, scanError.Path, scanError.Err)
}

func (scanError *ScanError) Unwrap() error {
	return scanError.Err
}

// FileReadError reports a file whose metadata or content could only be partially collected.
// The run continues; the affected fields are left absent.
type FileReadError struct {
	Path string
	Op   string
	Err  error
}

func (readError *FileReadError) Error() string {
	return fmt.Sprintf(fileReadErrorFormat, readError.Op, readError.Path, readError.Err)
}

func (readError *FileReadError) Unwrap() error {
	return readError.Err
}
