package stream

import (
	"time"
)

const SchemaVersion = 1

type EventKind string

const (
	EventKindStart   EventKind = "start"
	EventKindFile    EventKind = "file"
	EventKindWarning EventKind = "warning"
	EventKindBundle  EventKind = "bundle"
	EventKindSummary EventKind = "summary"
	EventKindDone    EventKind = "done"
)

type Event struct {
	Version   int       `json:"version"`
	Kind      EventKind `json:"kind"`
	Command   string    `json:"command,omitempty"`
	Path      string    `json:"path,omitempty"`
	EmittedAt time.Time `json:"emittedAt,omitempty"`

	File    *FileEvent    `json:"file,omitempty"`
	Bundle  *BundleEvent  `json:"bundle,omitempty"`
	Summary *SummaryEvent `json:"summary,omitempty"`
	Message *LogEvent     `json:"message,omitempty"`
}

// FileEvent reports traversal progress after a file was analyzed.
type FileEvent struct {
	Path        string `json:"path"`
	Directories int    `json:"directories"`
	Files       int    `json:"files"`
}

// BundleEvent reports one written analysis bundle.
type BundleEvent struct {
	Profile string `json:"profile"`
	Path    string `json:"path"`
}

type SummaryEvent struct {
	Directories int    `json:"directories"`
	Files       int    `json:"files"`
	Recognized  int    `json:"recognized"`
	Bytes       int64  `json:"bytes"`
	Warnings    int    `json:"warnings,omitempty"`
	Hash        string `json:"hash,omitempty"`
	OutputDir   string `json:"outputDir,omitempty"`
}

type LogEvent struct {
	Level   string `json:"level,omitempty"`
	Message string `json:"message"`
}
