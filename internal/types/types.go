// Package types defines every cross‑package data structure used by the sitelens CLI.
package types

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	CommandAnalyze = "analyze"
	CommandTree    = "tree"

	FormatRaw  = "raw"
	FormatJSON = "json"
)

// FileKind names the extraction strategy selected for a file.
type FileKind string

const (
	KindUnknown      FileKind = ""
	KindServerScript FileKind = "server-script"
	KindMarkup       FileKind = "markup"
	KindScript       FileKind = "script"
	KindStylesheet   FileKind = "stylesheet"
)

// Recognized reports whether the kind carries content and structural fields.
func (kind FileKind) Recognized() bool {
	switch kind {
	case KindServerScript, KindMarkup, KindScript, KindStylesheet:
		return true
	default:
		return false
	}
}

// ValidatedPath is an absolute input path that already passed existence checks.
type ValidatedPath struct {
	AbsolutePath string
	IsDir        bool
}

// OutputSummary captures aggregate information about an analysis run.
type OutputSummary struct {
	Directories int   `json:"directories"`
	Files       int   `json:"files"`
	Recognized  int   `json:"recognized"`
	Bytes       int64 `json:"bytes"`
	Warnings    int   `json:"warnings,omitempty"`
}
