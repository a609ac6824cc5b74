package types

import (
	"errors"
	"path"
)

// ErrSkipDirectory returned from a visitor for a directory skips its children.
var ErrSkipDirectory = errors.New("skip directory")

// Visitor receives every entry of a tree with the entry's slash-separated relative path.
type Visitor func(relativePath string, entry Entry) error

// Walk visits the tree read-only, directory-first and depth-first, siblings in lexical order.
// The root directory is visited first with an empty relative path.
func Walk(tree *AnalysisTree, visit Visitor) error {
	if tree == nil || tree.Root == nil {
		return nil
	}
	return walkDirectory(tree.Root, visit)
}

func walkDirectory(directory *DirectoryRecord, visit Visitor) error {
	if err := visit(directory.RelativePath, directory); err != nil {
		if errors.Is(err, ErrSkipDirectory) {
			return nil
		}
		return err
	}
	for _, name := range directory.SortedNames() {
		switch child := directory.Children[name].(type) {
		case *DirectoryRecord:
			if err := walkDirectory(child, visit); err != nil {
				return err
			}
		case *FileRecord:
			if err := visit(path.Join(directory.RelativePath, name), child); err != nil {
				return err
			}
		}
	}
	return nil
}

// FilterByExtension returns a pruned copy of the tree holding only files with one of the
// given extensions and the directories leading to them. The root is always kept.
// With no extensions the copy holds every entry. The input tree is not modified.
func FilterByExtension(tree *AnalysisTree, extensions ...string) *AnalysisTree {
	if tree == nil {
		return nil
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, extension := range extensions {
		allowed[extension] = struct{}{}
	}
	filtered := &AnalysisTree{RootPath: tree.RootPath, Warnings: tree.Warnings}
	if tree.Root == nil {
		return filtered
	}
	filtered.Root = filterDirectory(tree.Root, allowed)
	if filtered.Root == nil {
		filtered.Root = NewDirectoryRecord(tree.Root.RelativePath)
	}
	return filtered
}

func filterDirectory(directory *DirectoryRecord, allowed map[string]struct{}) *DirectoryRecord {
	copied := NewDirectoryRecord(directory.RelativePath)
	for name, child := range directory.Children {
		switch typed := child.(type) {
		case *DirectoryRecord:
			if filteredChild := filterDirectory(typed, allowed); filteredChild != nil {
				copied.Children[name] = filteredChild
			}
		case *FileRecord:
			if len(allowed) == 0 {
				copied.Children[name] = typed
				continue
			}
			if _, ok := allowed[typed.Extension]; ok {
				copied.Children[name] = typed
			}
		}
	}
	if len(copied.Children) == 0 && len(allowed) > 0 {
		return nil
	}
	return copied
}
