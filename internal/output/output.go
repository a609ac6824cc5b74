// Package output renders analysis trees and run reports for the terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tyemirov/sitelens/internal/types"
	"github.com/tyemirov/sitelens/internal/utils"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directoryLineFormat = "%s%s/\n"
	fileLineFormat      = "%s%s (%s)\n"
	fileTokenFormat     = "%s%s (%s, %d tokens)\n"
	unknownSizeLabel    = "size unknown"

	errorUnknownFilterFormat = "unknown extension filter %q; accepted values: %s"
)

// ExtensionFilters maps the tree view filter names to file extensions.
// "All" maps to no extension and keeps every file.
var ExtensionFilters = map[string]string{
	"All":        "",
	"PHP":        ".php",
	"HTML":       ".html",
	"CSS":        ".css",
	"JavaScript": ".js",
}

// ResolveExtensionFilters converts filter names or literal extensions into extensions.
// Names are matched case-insensitively; a value starting with "." is taken as is,
// since extensions compare case-sensitively.
func ResolveExtensionFilters(values []string) ([]string, error) {
	var extensions []string
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ".") {
			extensions = append(extensions, trimmed)
			continue
		}
		extension, known := lookupFilter(trimmed)
		if !known {
			return nil, fmt.Errorf(errorUnknownFilterFormat, trimmed, strings.Join(FilterNames(), ", "))
		}
		if extension == "" {
			return nil, nil
		}
		extensions = append(extensions, extension)
	}
	return utils.DeduplicatePatterns(extensions), nil
}

// FilterNames returns the filter names in sorted order.
func FilterNames() []string {
	names := make([]string, 0, len(ExtensionFilters))
	for name := range ExtensionFilters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFilter(name string) (string, bool) {
	for filterName, extension := range ExtensionFilters {
		if strings.EqualFold(filterName, name) {
			return extension, true
		}
	}
	return "", false
}

// WriteTreeRaw renders the tree directory-first with box-drawing connectors,
// followed by a summary line.
func WriteTreeRaw(writer io.Writer, tree *types.AnalysisTree) {
	if tree == nil || tree.Root == nil {
		return
	}
	fmt.Fprintln(writer, tree.RootPath)
	renderDirectory(writer, tree.Root, "")
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, FormatSummaryLine(tree.Summary()))
}

func renderDirectory(writer io.Writer, directory *types.DirectoryRecord, prefix string) {
	names := directory.SortedNames()
	for index, name := range names {
		isLast := index == len(names)-1
		connector := treeBranchConnector
		childPrefix := prefix + treeBranchPadding
		if isLast {
			connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
		switch child := directory.Children[name].(type) {
		case *types.DirectoryRecord:
			fmt.Fprintf(writer, directoryLineFormat, prefix+connector, name)
			renderDirectory(writer, child, childPrefix)
		case *types.FileRecord:
			size := unknownSizeLabel
			if child.Size != nil {
				size = utils.FormatFileSize(*child.Size)
			}
			if child.Tokens > 0 {
				fmt.Fprintf(writer, fileTokenFormat, prefix+connector, name, size, child.Tokens)
			} else {
				fmt.Fprintf(writer, fileLineFormat, prefix+connector, name, size)
			}
		}
	}
}

// RenderTreeJSON returns the indented document form of the tree.
func RenderTreeJSON(tree *types.AnalysisTree) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent(indentPrefix, indentSpacer)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(tree.Document()); err != nil {
		return "", err
	}
	return strings.TrimRight(buffer.String(), "\n"), nil
}

// FormatSummaryLine formats an OutputSummary into the raw summary line.
func FormatSummaryLine(summary types.OutputSummary) string {
	fileLabel := "files"
	if summary.Files == 1 {
		fileLabel = "file"
	}
	directoryLabel := "directories"
	if summary.Directories == 1 {
		directoryLabel = "directory"
	}
	warningSuffix := ""
	if summary.Warnings > 0 {
		warningSuffix = fmt.Sprintf(", %d warnings", summary.Warnings)
	}
	return fmt.Sprintf("Summary: %d %s (%d analyzed), %d %s, %s%s",
		summary.Files, fileLabel, summary.Recognized, summary.Directories, directoryLabel,
		utils.FormatFileSize(summary.Bytes), warningSuffix)
}
