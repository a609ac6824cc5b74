// Package analysis walks a project tree and builds the in-memory analysis tree: per-file metadata,
// content digests and, for recognized file kinds, extracted structure.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/tyemirov/sitelens/internal/digest"
	"github.com/tyemirov/sitelens/internal/tokenizer"
	"github.com/tyemirov/sitelens/internal/types"
	"github.com/tyemirov/sitelens/internal/utils"
)

const (
	errorEmptyRootMessage     = "analysis root path is empty"
	errorRootNotDirectory     = "not a directory"
	errorAbsolutePathFormat   = "getting absolute path for %s: %w"
	warningTokenCountFormat   = "failed to count tokens for %s: %w"
	rootRelativePath          = ""
	ignoreDirectorySuffixMark = "/"
)

// IgnoreMatcher reports whether a slash-separated path relative to the root is excluded.
// *ignore.GitIgnore from github.com/sabhiram/go-gitignore satisfies it.
type IgnoreMatcher interface {
	MatchesPath(relativePath string) bool
}

// Progress is reported after every visited file. Counters never decrease within a run.
type Progress struct {
	Directories int
	Files       int
	Path        string
}

// Options configures one analysis run.
type Options struct {
	Root           string
	Hasher         digest.Hasher
	IgnorePatterns []string
	IgnoreMatcher  IgnoreMatcher
	TokenCounter   tokenizer.Counter
	Progress       func(Progress)
	Warn           func(error)
}

type walker struct {
	ctx      context.Context
	options  Options
	tree     *types.AnalysisTree
	progress Progress
}

// Analyze builds the analysis tree for options.Root. It runs sequentially in the calling goroutine.
// A missing or unlistable root, an unlistable subdirectory, or a cancelled context returns a
// *types.ScanError and no tree. Per-file failures are reported through options.Warn and
// recorded in the tree's Warnings.
func Analyze(ctx context.Context, options Options) (*types.AnalysisTree, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if options.Root == "" {
		return nil, &types.ScanError{Path: options.Root, Err: errors.New(errorEmptyRootMessage)}
	}
	absoluteRoot, absoluteError := filepath.Abs(options.Root)
	if absoluteError != nil {
		return nil, &types.ScanError{Path: options.Root, Err: fmt.Errorf(errorAbsolutePathFormat, options.Root, absoluteError)}
	}
	rootInfo, statError := os.Stat(absoluteRoot)
	if statError != nil {
		return nil, &types.ScanError{Path: absoluteRoot, Err: statError}
	}
	if !rootInfo.IsDir() {
		return nil, &types.ScanError{Path: absoluteRoot, Err: errors.New(errorRootNotDirectory)}
	}
	if options.Hasher == nil {
		defaultHasher, hasherError := digest.New(digest.DefaultAlgorithm)
		if hasherError != nil {
			return nil, hasherError
		}
		options.Hasher = defaultHasher
	}
	if options.Warn == nil {
		options.Warn = func(error) {}
	}

	analysisWalker := &walker{
		ctx:     ctx,
		options: options,
		tree: &types.AnalysisTree{
			RootPath: absoluteRoot,
			Root:     types.NewDirectoryRecord(rootRelativePath),
		},
	}
	if err := analysisWalker.walkDirectory(absoluteRoot, analysisWalker.tree.Root); err != nil {
		return nil, err
	}
	return analysisWalker.tree, nil
}

func (analysisWalker *walker) walkDirectory(directoryPath string, record *types.DirectoryRecord) error {
	if err := analysisWalker.ctx.Err(); err != nil {
		return &types.ScanError{Path: directoryPath, Err: err}
	}
	entries, readError := os.ReadDir(directoryPath)
	if readError != nil {
		return &types.ScanError{Path: directoryPath, Err: readError}
	}
	analysisWalker.progress.Directories++

	for _, entry := range entries {
		name := entry.Name()
		childPath := filepath.Join(directoryPath, name)
		relativePath := path.Join(record.RelativePath, name)

		if entry.IsDir() {
			if analysisWalker.ignored(relativePath, true) {
				continue
			}
			childRecord := types.NewDirectoryRecord(relativePath)
			record.Children[name] = childRecord
			if err := analysisWalker.walkDirectory(childPath, childRecord); err != nil {
				return err
			}
			continue
		}

		if analysisWalker.ignored(relativePath, false) {
			continue
		}
		if err := analysisWalker.ctx.Err(); err != nil {
			return &types.ScanError{Path: childPath, Err: err}
		}

		info, infoError := analysisWalker.fileInfo(childPath, entry)
		if infoError == nil && !info.Mode().IsRegular() {
			continue
		}
		if infoError != nil {
			analysisWalker.warn(&types.FileReadError{Path: childPath, Op: types.FileOperationStat, Err: infoError})
			info = nil
		}

		record.Children[name] = analysisWalker.inspectFile(childPath, name, info)
		analysisWalker.progress.Files++
		analysisWalker.progress.Path = relativePath
		if analysisWalker.options.Progress != nil {
			analysisWalker.options.Progress(analysisWalker.progress)
		}
	}
	return nil
}

// fileInfo follows symbolic links so linked files are analyzed as regular files;
// links to directories come back as non-regular and are skipped.
func (analysisWalker *walker) fileInfo(childPath string, entry fs.DirEntry) (fs.FileInfo, error) {
	if entry.Type()&fs.ModeSymlink != 0 {
		return os.Stat(childPath)
	}
	return entry.Info()
}

func (analysisWalker *walker) ignored(relativePath string, isDirectory bool) bool {
	if utils.ShouldIgnoreByPath(relativePath, analysisWalker.options.IgnorePatterns) {
		return true
	}
	matcher := analysisWalker.options.IgnoreMatcher
	if matcher == nil {
		return false
	}
	if matcher.MatchesPath(relativePath) {
		return true
	}
	return isDirectory && matcher.MatchesPath(relativePath+ignoreDirectorySuffixMark)
}

func (analysisWalker *walker) warn(err error) {
	analysisWalker.tree.Warnings = append(analysisWalker.tree.Warnings, err)
	analysisWalker.options.Warn(err)
}
