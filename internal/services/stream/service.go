// Package stream runs an analysis and reports its progress as a sequence of events.
package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tyemirov/sitelens/internal/analysis"
	"github.com/tyemirov/sitelens/internal/bundle"
	"github.com/tyemirov/sitelens/internal/types"
)

const (
	errorNilChannelMessage = "stream: event channel is nil"
	warningLevel           = "warning"
)

// AnalyzeOptions configures one streamed analysis run.
type AnalyzeOptions struct {
	// Command names the events; empty means types.CommandAnalyze.
	Command         string
	Analysis        analysis.Options
	OutputDirectory string
	Profiles        bundle.ProfileSet
}

// AnalyzeResult holds what a streamed run produced.
type AnalyzeResult struct {
	Tree        *types.AnalysisTree
	BundlePaths []string
}

type emitter struct {
	ctx     context.Context
	out     chan<- Event
	command string
}

func newEmitter(ctx context.Context, out chan<- Event, command string) *emitter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &emitter{ctx: ctx, out: out, command: command}
}

func (e *emitter) send(event Event) error {
	if e.out == nil {
		return errors.New(errorNilChannelMessage)
	}
	event.Version = SchemaVersion
	if event.Command == "" {
		event.Command = e.command
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}
	select {
	case <-e.ctx.Done():
		return e.ctx.Err()
	case e.out <- event:
		return nil
	}
}

func (e *emitter) warn(path, message string) {
	trimmed := strings.TrimRight(message, "\n")
	if trimmed == "" {
		return
	}
	_ = e.send(Event{
		Kind:    EventKindWarning,
		Path:    path,
		Message: &LogEvent{Level: warningLevel, Message: trimmed},
	})
}

// StreamAnalysis analyzes opts.Analysis.Root and, when opts.Profiles is non-empty, writes one
// bundle per profile into opts.OutputDirectory. Progress, warnings, written bundles and the
// final summary are sent to out in that order. The analysis itself runs in the calling goroutine.
func StreamAnalysis(ctx context.Context, opts AnalyzeOptions, out chan<- Event) (AnalyzeResult, error) {
	command := opts.Command
	if command == "" {
		command = types.CommandAnalyze
	}
	emitter := newEmitter(ctx, out, command)
	if err := emitter.send(Event{Kind: EventKindStart, Path: opts.Analysis.Root}); err != nil {
		return AnalyzeResult{}, err
	}

	analysisOptions := opts.Analysis
	upstreamProgress := analysisOptions.Progress
	analysisOptions.Progress = func(progress analysis.Progress) {
		if upstreamProgress != nil {
			upstreamProgress(progress)
		}
		_ = emitter.send(Event{
			Kind: EventKindFile,
			Path: progress.Path,
			File: &FileEvent{Path: progress.Path, Directories: progress.Directories, Files: progress.Files},
		})
	}
	upstreamWarn := analysisOptions.Warn
	analysisOptions.Warn = func(warning error) {
		if upstreamWarn != nil {
			upstreamWarn(warning)
		}
		var readError *types.FileReadError
		path := opts.Analysis.Root
		if errors.As(warning, &readError) {
			path = readError.Path
		}
		emitter.warn(path, warning.Error())
	}

	tree, analyzeError := analysis.Analyze(ctx, analysisOptions)
	if analyzeError != nil {
		return AnalyzeResult{}, analyzeError
	}
	result := AnalyzeResult{Tree: tree}

	if len(opts.Profiles) > 0 {
		writtenPaths, emitError := bundle.Emit(tree, opts.OutputDirectory, opts.Profiles)
		if emitError != nil {
			return result, emitError
		}
		result.BundlePaths = writtenPaths
		for index, writtenPath := range writtenPaths {
			if err := emitter.send(Event{
				Kind:   EventKindBundle,
				Path:   writtenPath,
				Bundle: &BundleEvent{Profile: opts.Profiles[index].Name, Path: writtenPath},
			}); err != nil {
				return result, err
			}
		}
	}

	summary := tree.Summary()
	summaryEvent := &SummaryEvent{
		Directories: summary.Directories,
		Files:       summary.Files,
		Recognized:  summary.Recognized,
		Bytes:       summary.Bytes,
		Warnings:    summary.Warnings,
		OutputDir:   opts.OutputDirectory,
	}
	if analysisOptions.Hasher != nil {
		summaryEvent.Hash = analysisOptions.Hasher.Algorithm()
	}
	if err := emitter.send(Event{Kind: EventKindSummary, Path: tree.RootPath, Summary: summaryEvent}); err != nil {
		return result, err
	}
	if err := emitter.send(Event{Kind: EventKindDone, Path: tree.RootPath}); err != nil {
		return result, err
	}
	return result, nil
}
