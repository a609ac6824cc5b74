package bundle

import (
	"errors"
	"fmt"
	"strings"
)

const (
	errorEmptyProfileSetMessage = "profile set is empty"
	errorEmptyProfileNameFormat = "profile %d has an empty name"
	errorEmptyPromptFormat      = "profile %q has an empty prompt"
	errorDuplicateProfileFormat = "duplicate profile name %q"
	errorInvalidProfileFormat   = "profile name %q cannot be used in a file name"
)

// Profile names one downstream consumer and the instruction text embedded in its bundle.
type Profile struct {
	Name   string `mapstructure:"name" yaml:"name" json:"name"`
	Prompt string `mapstructure:"prompt" yaml:"prompt" json:"prompt"`
}

// ProfileSet is an ordered list of profiles; bundles are written in this order.
type ProfileSet []Profile

// DefaultProfiles returns the built-in consumer profiles.
func DefaultProfiles() ProfileSet {
	return ProfileSet{
		{
			Name:   "general",
			Prompt: "This JSON file contains a detailed analysis of a web project. Use this information to understand the structure and content of the project.",
		},
		{
			Name:   "chatgpt.3.5",
			Prompt: "You are ChatGPT 3.5, an AI assistant analyzing a web project. Use the provided JSON data to answer questions about the project's structure, file contents, and characteristics.",
		},
		{
			Name:   "chatgpt.4",
			Prompt: "You are ChatGPT 4, an advanced AI assistant analyzing a web project. Use the provided JSON data to answer questions about the project's structure, file contents, and characteristics.",
		},
		{
			Name:   "claude.2",
			Prompt: "As Claude 2, an AI assistant, your task is to analyze this web project data and provide insights on its architecture, code patterns, and potential improvements.",
		},
		{
			Name:   "claude.3",
			Prompt: "As Claude 3, an advanced AI assistant, your task is to analyze this web project data and provide detailed insights on its architecture, code patterns, and potential improvements.",
		},
		{
			Name:   "tabnine",
			Prompt: "You are Tabnine, an AI code assistant. Use this project analysis to help with code completion, suggesting best practices, and identifying potential issues in the codebase.",
		},
	}
}

// Validate checks that the set is non-empty, that names are unique ignoring case and usable as
// file-name fragments, and that every prompt is non-empty.
func (profiles ProfileSet) Validate() error {
	if len(profiles) == 0 {
		return errors.New(errorEmptyProfileSetMessage)
	}
	seenNames := make(map[string]struct{}, len(profiles))
	for index, profile := range profiles {
		if profile.Name == "" {
			return fmt.Errorf(errorEmptyProfileNameFormat, index)
		}
		if profile.Name == "." || profile.Name == ".." || strings.ContainsAny(profile.Name, `/\`+"\x00") {
			return fmt.Errorf(errorInvalidProfileFormat, profile.Name)
		}
		if strings.TrimSpace(profile.Prompt) == "" {
			return fmt.Errorf(errorEmptyPromptFormat, profile.Name)
		}
		// Names map to file names, which may be case-insensitive.
		foldedName := strings.ToLower(profile.Name)
		if _, duplicate := seenNames[foldedName]; duplicate {
			return fmt.Errorf(errorDuplicateProfileFormat, profile.Name)
		}
		seenNames[foldedName] = struct{}{}
	}
	return nil
}

// Lookup returns the profile with the given name.
func (profiles ProfileSet) Lookup(name string) (Profile, bool) {
	for _, profile := range profiles {
		if profile.Name == name {
			return profile, true
		}
	}
	return Profile{}, false
}

// Names returns the profile names in order.
func (profiles ProfileSet) Names() []string {
	names := make([]string, 0, len(profiles))
	for _, profile := range profiles {
		names = append(names, profile.Name)
	}
	return names
}
