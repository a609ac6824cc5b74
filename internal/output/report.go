package output

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/tyemirov/sitelens/internal/services/stream"
	"github.com/tyemirov/sitelens/internal/types"
)

const (
	completionTitle         = "Analysis complete!"
	resultsLocationFormat   = "Results saved to: %s\n"
	generatedFilesHeading   = "Files generated:"
	generatedFileFormat     = "- %s\n"
	noBundlesMessage        = "No bundles written."
	completionFooter        = "Analysis successful!"
	hashAlgorithmFormat     = "Digest: %s\n"
	progressLogMessage      = "analyzed file"
	warningLogMessage       = "analysis warning"
	bundleWrittenLogMessage = "bundle written"
	logFieldPath            = "path"
	logFieldFiles           = "files"
	logFieldDirectories     = "directories"
	logFieldProfile         = "profile"
	logFieldDetail          = "detail"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.FgHiBlack)
)

// CompletionReport is the data shown after an analyze run.
type CompletionReport struct {
	OutputDirectory string
	BundlePaths     []string
	Summary         types.OutputSummary
	HashAlgorithm   string
}

// WriteCompletionReport prints the written bundle files and the run summary.
func WriteCompletionReport(writer io.Writer, report CompletionReport) {
	titleColor.Fprintln(writer, completionTitle)
	fmt.Fprintln(writer)
	fmt.Fprintf(writer, resultsLocationFormat, report.OutputDirectory)
	fmt.Fprintln(writer)
	if len(report.BundlePaths) == 0 {
		warnColor.Fprintln(writer, noBundlesMessage)
	} else {
		fmt.Fprintln(writer, generatedFilesHeading)
		for _, bundlePath := range report.BundlePaths {
			fmt.Fprintf(writer, generatedFileFormat, filepath.Base(bundlePath))
		}
	}
	fmt.Fprintln(writer)
	summaryLine := FormatSummaryLine(report.Summary)
	if report.Summary.Warnings > 0 {
		warnColor.Fprintln(writer, summaryLine)
	} else {
		fmt.Fprintln(writer, summaryLine)
	}
	if report.HashAlgorithm != "" {
		dimColor.Fprintf(writer, hashAlgorithmFormat, report.HashAlgorithm)
	}
	fmt.Fprintln(writer)
	successColor.Fprintln(writer, completionFooter)
}

type analysisRenderer struct {
	stdout io.Writer
	logger *zap.Logger
	report CompletionReport
}

// NewAnalysisRenderer returns a renderer that logs progress and warnings through logger
// and prints the completion report to stdout on Flush.
func NewAnalysisRenderer(stdout io.Writer, logger *zap.Logger) StreamRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analysisRenderer{stdout: stdout, logger: logger}
}

func (renderer *analysisRenderer) Handle(event stream.Event) error {
	switch event.Kind {
	case stream.EventKindFile:
		if event.File != nil {
			renderer.logger.Debug(progressLogMessage,
				zap.String(logFieldPath, event.File.Path),
				zap.Int(logFieldFiles, event.File.Files),
				zap.Int(logFieldDirectories, event.File.Directories),
			)
		}
	case stream.EventKindWarning:
		if event.Message != nil {
			renderer.logger.Warn(warningLogMessage, zap.String(logFieldPath, event.Path), zap.String(logFieldDetail, event.Message.Message))
		}
	case stream.EventKindBundle:
		if event.Bundle != nil {
			renderer.logger.Debug(bundleWrittenLogMessage, zap.String(logFieldProfile, event.Bundle.Profile), zap.String(logFieldPath, event.Bundle.Path))
			renderer.report.BundlePaths = append(renderer.report.BundlePaths, event.Bundle.Path)
		}
	case stream.EventKindSummary:
		if event.Summary != nil {
			renderer.report.OutputDirectory = event.Summary.OutputDir
			renderer.report.HashAlgorithm = event.Summary.Hash
			renderer.report.Summary = types.OutputSummary{
				Directories: event.Summary.Directories,
				Files:       event.Summary.Files,
				Recognized:  event.Summary.Recognized,
				Bytes:       event.Summary.Bytes,
				Warnings:    event.Summary.Warnings,
			}
		}
	}
	return nil
}

func (renderer *analysisRenderer) Flush() error {
	if renderer.stdout == nil {
		return nil
	}
	WriteCompletionReport(renderer.stdout, renderer.report)
	return nil
}
