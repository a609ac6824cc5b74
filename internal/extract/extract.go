// Package extract classifies files by extension and pulls structural features out of their text
// with plain pattern matching. Nothing here touches the filesystem.
package extract

import (
	"strings"

	"github.com/tyemirov/sitelens/internal/types"
)

const (
	serverScriptExtension = ".php"
	markupExtension       = ".html"
	scriptExtension       = ".js"
	stylesheetExtension   = ".css"
)

// Strategy turns decoded file content into structural fields. Strategies never fail.
type Strategy func(content string) types.StructuralFields

var extensionToKind = map[string]types.FileKind{
	serverScriptExtension: types.KindServerScript,
	markupExtension:       types.KindMarkup,
	scriptExtension:       types.KindScript,
	stylesheetExtension:   types.KindStylesheet,
}

var kindToStrategy = map[types.FileKind]Strategy{
	types.KindServerScript: ExtractServerScript,
	types.KindMarkup:       ExtractMarkup,
	types.KindScript:       ExtractScript,
	types.KindStylesheet:   ExtractStylesheet,
}

// Extension returns the extension of a file name including its dot.
// Leading dots belong to the name, so ".htaccess" has no extension.
func Extension(fileName string) string {
	trimmed := strings.TrimLeft(fileName, ".")
	dotIndex := strings.LastIndex(trimmed, ".")
	if dotIndex < 0 {
		return ""
	}
	return trimmed[dotIndex:]
}

// Classify maps a file name to its kind by exact, case-sensitive extension match.
func Classify(fileName string) types.FileKind {
	return extensionToKind[Extension(fileName)]
}

// For returns the strategy registered for kind.
func For(kind types.FileKind) (Strategy, bool) {
	strategy, found := kindToStrategy[kind]
	return strategy, found
}

// Extract runs the strategy for kind, returning nil for unknown kinds.
func Extract(kind types.FileKind, content string) types.StructuralFields {
	strategy, found := For(kind)
	if !found {
		return nil
	}
	return strategy(content)
}

// SupportedExtensions lists the recognized extensions in lexical order.
func SupportedExtensions() []string {
	return []string{stylesheetExtension, markupExtension, scriptExtension, serverScriptExtension}
}
