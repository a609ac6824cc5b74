// Package config loads application configuration and the ignore rules applied during traversal.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/tyemirov/sitelens/internal/utils"
)

const (
	errorCompileGitignoreFormat = "loading %s from %s: %w"
	errorWalkGitignoreFormat    = "collecting %s files under %s: %w"
)

// PathMatcher reports whether a slash-separated path relative to the analysis root is ignored.
type PathMatcher interface {
	MatchesPath(relativePath string) bool
}

type scopedMatcher struct {
	prefix  string
	matcher *ignore.GitIgnore
}

// gitignoreSet applies every .gitignore file of a tree to the paths below its directory.
type gitignoreSet struct {
	scopes []scopedMatcher
}

func (set *gitignoreSet) MatchesPath(relativePath string) bool {
	for _, scope := range set.scopes {
		candidate := relativePath
		if scope.prefix != "" {
			if !strings.HasPrefix(relativePath, scope.prefix) {
				continue
			}
			candidate = strings.TrimPrefix(relativePath, scope.prefix)
		}
		if candidate != "" && scope.matcher.MatchesPath(candidate) {
			return true
		}
	}
	return false
}

// LoadGitignoreMatcher compiles every .gitignore file found under rootDirectoryPath.
// Patterns of a nested .gitignore apply relative to the directory holding it.
// The .git directory is not descended into. Returns nil when the tree holds no .gitignore file.
func LoadGitignoreMatcher(rootDirectoryPath string) (PathMatcher, error) {
	absoluteRoot, absoluteError := filepath.Abs(rootDirectoryPath)
	if absoluteError != nil {
		return nil, fmt.Errorf(errorWalkGitignoreFormat, utils.GitIgnoreFileName, rootDirectoryPath, absoluteError)
	}
	set := &gitignoreSet{}

	walkFunction := func(currentDirectoryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if directoryEntry.Name() == utils.GitDirectoryName {
			return filepath.SkipDir
		}

		gitIgnoreFilePath := filepath.Join(currentDirectoryPath, utils.GitIgnoreFileName)
		if _, statError := os.Stat(gitIgnoreFilePath); statError != nil {
			if os.IsNotExist(statError) {
				return nil
			}
			return fmt.Errorf(errorCompileGitignoreFormat, utils.GitIgnoreFileName, currentDirectoryPath, statError)
		}
		compiled, compileError := ignore.CompileIgnoreFile(gitIgnoreFilePath)
		if compileError != nil {
			return fmt.Errorf(errorCompileGitignoreFormat, utils.GitIgnoreFileName, currentDirectoryPath, compileError)
		}

		relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, absoluteRoot)
		prefix := ""
		if relativeDirectory != "." {
			prefix = path.Clean(relativeDirectory) + "/"
		}
		set.scopes = append(set.scopes, scopedMatcher{prefix: prefix, matcher: compiled})
		return nil
	}

	if walkError := filepath.WalkDir(absoluteRoot, walkFunction); walkError != nil {
		return nil, fmt.Errorf(errorWalkGitignoreFormat, utils.GitIgnoreFileName, rootDirectoryPath, walkError)
	}
	if len(set.scopes) == 0 {
		return nil, nil
	}
	return set, nil
}

// NormalizeExclusionPatterns trims and deduplicates user-supplied exclusion patterns,
// dropping blank entries.
func NormalizeExclusionPatterns(patterns []string) []string {
	trimmedPatterns := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		trimmedPatterns = append(trimmedPatterns, trimmedPattern)
	}
	return utils.DeduplicatePatterns(trimmedPatterns)
}
