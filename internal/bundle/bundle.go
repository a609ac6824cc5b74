// Package bundle serializes an analysis tree into one JSON document per consumer profile.
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tyemirov/sitelens/internal/types"
)

const (
	// PromptKey is the top-level document key holding the profile prompt.
	PromptKey = "ai_prompt"

	fileNameFormat      = "site_analysis_%s.json"
	temporaryFilePrefix = ".site_analysis_*.tmp"
	jsonIndent          = "  "
	outputDirectoryMode = 0o755
	bundleFileMode      = 0o644

	errorInvalidProfilesFormat = "invalid profiles: %w"
	errorCreateDirectoryFormat = "create output directory %s: %w"
	errorEncodeFormat          = "encode bundle %s: %w"
	errorWriteFormat           = "write bundle %s: %w"
	errorNilTreeMessage        = "analysis tree is nil"
)

// ErrPromptKeyCollision is returned when the analyzed root contains a directory whose
// relative path equals PromptKey.
var ErrPromptKeyCollision = errors.New("directory path collides with the " + PromptKey + " key")

// FileName returns the bundle file name for a profile.
func FileName(profileName string) string {
	return fmt.Sprintf(fileNameFormat, profileName)
}

// Render returns the encoded document for a single profile.
func Render(tree *types.AnalysisTree, profile Profile) ([]byte, error) {
	if err := (ProfileSet{profile}).Validate(); err != nil {
		return nil, fmt.Errorf(errorInvalidProfilesFormat, err)
	}
	document, documentError := baseDocument(tree)
	if documentError != nil {
		return nil, documentError
	}
	return encode(document, profile)
}

// Emit writes one bundle per profile into outputDirectory, creating it when absent,
// and returns the written paths in profile order. The tree is not modified.
func Emit(tree *types.AnalysisTree, outputDirectory string, profiles ProfileSet) ([]string, error) {
	if err := profiles.Validate(); err != nil {
		return nil, fmt.Errorf(errorInvalidProfilesFormat, err)
	}
	document, documentError := baseDocument(tree)
	if documentError != nil {
		return nil, documentError
	}
	if err := os.MkdirAll(outputDirectory, outputDirectoryMode); err != nil {
		return nil, fmt.Errorf(errorCreateDirectoryFormat, outputDirectory, err)
	}

	writtenPaths := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		bundlePath := filepath.Join(outputDirectory, FileName(profile.Name))
		encoded, encodeError := encode(document, profile)
		if encodeError != nil {
			return writtenPaths, fmt.Errorf(errorEncodeFormat, bundlePath, encodeError)
		}
		if err := writeAtomically(outputDirectory, bundlePath, encoded); err != nil {
			return writtenPaths, fmt.Errorf(errorWriteFormat, bundlePath, err)
		}
		writtenPaths = append(writtenPaths, bundlePath)
	}
	return writtenPaths, nil
}

func baseDocument(tree *types.AnalysisTree) (map[string]any, error) {
	if tree == nil || tree.Root == nil {
		return nil, errors.New(errorNilTreeMessage)
	}
	document := tree.Document()
	if _, collides := document[PromptKey]; collides {
		return nil, ErrPromptKeyCollision
	}
	return document, nil
}

// encode adds the prompt to a shallow copy of the document so the shared base is reused
// across profiles.
func encode(document map[string]any, profile Profile) ([]byte, error) {
	profileDocument := make(map[string]any, len(document)+1)
	for key, value := range document {
		profileDocument[key] = value
	}
	profileDocument[PromptKey] = profile.Prompt

	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetIndent("", jsonIndent)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(profileDocument); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func writeAtomically(outputDirectory string, bundlePath string, data []byte) error {
	temporaryFile, createError := os.CreateTemp(outputDirectory, temporaryFilePrefix)
	if createError != nil {
		return createError
	}
	temporaryPath := temporaryFile.Name()
	if _, writeError := temporaryFile.Write(data); writeError != nil {
		temporaryFile.Close()
		os.Remove(temporaryPath)
		return writeError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		os.Remove(temporaryPath)
		return closeError
	}
	if chmodError := os.Chmod(temporaryPath, bundleFileMode); chmodError != nil {
		os.Remove(temporaryPath)
		return chmodError
	}
	if renameError := os.Rename(temporaryPath, bundlePath); renameError != nil {
		os.Remove(temporaryPath)
		return renameError
	}
	return nil
}
