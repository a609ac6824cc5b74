package types

import (
	"encoding/json"
	"path"
	"sort"
	"time"

	"github.com/tyemirov/sitelens/internal/utils"
)

// Entry is a child of a directory: either *DirectoryRecord or *FileRecord.
type Entry interface {
	entryName() string
}

// DirectoryRecord is one visited directory keyed by its slash-separated path relative to the root.
type DirectoryRecord struct {
	RelativePath string
	Children     map[string]Entry
}

// NewDirectoryRecord returns an empty directory record.
func NewDirectoryRecord(relativePath string) *DirectoryRecord {
	return &DirectoryRecord{RelativePath: relativePath, Children: map[string]Entry{}}
}

func (directory *DirectoryRecord) entryName() string {
	return path.Base(directory.RelativePath)
}

// SortedNames returns child names with directories first, each group in lexical order.
func (directory *DirectoryRecord) SortedNames() []string {
	names := make([]string, 0, len(directory.Children))
	for name := range directory.Children {
		names = append(names, name)
	}
	sort.Slice(names, func(left, right int) bool {
		_, leftIsDirectory := directory.Children[names[left]].(*DirectoryRecord)
		_, rightIsDirectory := directory.Children[names[right]].(*DirectoryRecord)
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		return names[left] < names[right]
	})
	return names
}

// FileRecord holds the metadata collected for one regular file.
// Pointer and zero-valued fields are absent when the corresponding operation failed.
type FileRecord struct {
	Name        string
	Kind        FileKind
	Extension   string
	Size        *int64
	Modified    time.Time
	Created     time.Time
	Permissions string
	Hash        string
	Content     *string
	LineCount   *int
	Tokens      int
	Structure   StructuralFields
}

func (file *FileRecord) entryName() string {
	return file.Name
}

// StructuralFields is the extracted structure of a recognized file:
// *ServerScriptFields, *MarkupFields, *ScriptFields or *StylesheetFields.
type StructuralFields interface {
	Kind() FileKind
}

// ServerScriptFields is extracted from server-script files.
type ServerScriptFields struct {
	Functions []string
	Classes   []string
	Includes  []IncludeDirective
}

func (*ServerScriptFields) Kind() FileKind { return KindServerScript }

// MarkupFields is extracted from markup files.
type MarkupFields struct {
	Title    string
	MetaTags []string
}

func (*MarkupFields) Kind() FileKind { return KindMarkup }

// ScriptFields is extracted from script files.
type ScriptFields struct {
	Functions []string
	Variables []VariableDeclaration
}

func (*ScriptFields) Kind() FileKind { return KindScript }

// StylesheetFields is extracted from stylesheet files.
type StylesheetFields struct {
	Selectors  []string
	Properties []StyleProperty
}

func (*StylesheetFields) Kind() FileKind { return KindStylesheet }

// IncludeDirective is an include/require statement and its quoted target.
type IncludeDirective struct {
	Kind   string
	Target string
}

// MarshalJSON encodes the directive as a two-element array.
func (directive IncludeDirective) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{directive.Kind, directive.Target})
}

// VariableDeclaration is a var/let/const keyword with the declared identifier.
type VariableDeclaration struct {
	Keyword string
	Name    string
}

// MarshalJSON encodes the declaration as a two-element array.
func (declaration VariableDeclaration) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{declaration.Keyword, declaration.Name})
}

// StyleProperty is a property name with its raw value text.
type StyleProperty struct {
	Name  string
	Value string
}

// MarshalJSON encodes the property as a two-element array.
func (property StyleProperty) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{property.Name, property.Value})
}

// AnalysisTree is the result of one analysis run.
type AnalysisTree struct {
	RootPath string
	Root     *DirectoryRecord
	Warnings []error
}

// Directories returns every directory record, depth-first in lexical order, root first.
func (tree *AnalysisTree) Directories() []*DirectoryRecord {
	var directories []*DirectoryRecord
	Walk(tree, func(relativePath string, entry Entry) error {
		if directory, isDirectory := entry.(*DirectoryRecord); isDirectory {
			directories = append(directories, directory)
		}
		return nil
	})
	return directories
}

// Summary aggregates counts over the tree.
func (tree *AnalysisTree) Summary() OutputSummary {
	summary := OutputSummary{Warnings: len(tree.Warnings)}
	Walk(tree, func(relativePath string, entry Entry) error {
		switch typed := entry.(type) {
		case *DirectoryRecord:
			summary.Directories++
		case *FileRecord:
			summary.Files++
			if typed.Structure != nil {
				summary.Recognized++
			}
			if typed.Size != nil {
				summary.Bytes += *typed.Size
			}
		}
		return nil
	})
	return summary
}

type directoryDocument struct {
	Type     string         `json:"type"`
	Contents map[string]any `json:"contents"`
}

type fileDocument struct {
	Type        string                 `json:"type"`
	Size        *int64                 `json:"size,omitempty"`
	Extension   string                 `json:"extension"`
	Modified    string                 `json:"modified,omitempty"`
	Created     string                 `json:"created,omitempty"`
	Permissions string                 `json:"permissions,omitempty"`
	Hash        string                 `json:"hash,omitempty"`
	Content     *string                `json:"content,omitempty"`
	LineCount   *int                   `json:"line_count,omitempty"`
	Tokens      int                    `json:"tokens,omitempty"`
	Functions   *[]string              `json:"functions,omitempty"`
	Classes     *[]string              `json:"classes,omitempty"`
	Includes    *[]IncludeDirective    `json:"includes,omitempty"`
	Title       *string                `json:"title,omitempty"`
	MetaTags    *[]string              `json:"meta_tags,omitempty"`
	Variables   *[]VariableDeclaration `json:"variables,omitempty"`
	Selectors   *[]string              `json:"selectors,omitempty"`
	Properties  *[]StyleProperty       `json:"properties,omitempty"`
}

// MarshalJSON flattens the record and its structural fields into one object.
func (file *FileRecord) MarshalJSON() ([]byte, error) {
	document := fileDocument{
		Type:        NodeTypeFile,
		Size:        file.Size,
		Extension:   file.Extension,
		Modified:    utils.FormatTimestamp(file.Modified),
		Created:     utils.FormatTimestamp(file.Created),
		Permissions: file.Permissions,
		Hash:        file.Hash,
		Content:     file.Content,
		LineCount:   file.LineCount,
		Tokens:      file.Tokens,
	}
	switch structure := file.Structure.(type) {
	case *ServerScriptFields:
		document.Functions = nonNilStrings(structure.Functions)
		document.Classes = nonNilStrings(structure.Classes)
		includes := structure.Includes
		if includes == nil {
			includes = []IncludeDirective{}
		}
		document.Includes = &includes
	case *MarkupFields:
		title := structure.Title
		document.Title = &title
		document.MetaTags = nonNilStrings(structure.MetaTags)
	case *ScriptFields:
		document.Functions = nonNilStrings(structure.Functions)
		variables := structure.Variables
		if variables == nil {
			variables = []VariableDeclaration{}
		}
		document.Variables = &variables
	case *StylesheetFields:
		document.Selectors = nonNilStrings(structure.Selectors)
		properties := structure.Properties
		if properties == nil {
			properties = []StyleProperty{}
		}
		document.Properties = &properties
	}
	return json.Marshal(document)
}

func nonNilStrings(values []string) *[]string {
	if values == nil {
		values = []string{}
	}
	return &values
}

// Document returns the wire form of the tree: one top-level key per directory relative path.
// Inside contents, a subdirectory is a nested directory object holding its own contents.
func (tree *AnalysisTree) Document() map[string]any {
	document := map[string]any{}
	for _, directory := range tree.Directories() {
		document[directory.RelativePath] = newDirectoryDocument(directory)
	}
	return document
}

func newDirectoryDocument(directory *DirectoryRecord) directoryDocument {
	contents := make(map[string]any, len(directory.Children))
	for name, child := range directory.Children {
		switch typed := child.(type) {
		case *DirectoryRecord:
			contents[name] = newDirectoryDocument(typed)
		case *FileRecord:
			contents[name] = typed
		}
	}
	return directoryDocument{Type: NodeTypeDirectory, Contents: contents}
}
