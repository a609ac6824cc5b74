package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tyemirov/sitelens/internal/bundle"
	"github.com/tyemirov/sitelens/internal/digest"
	"github.com/tyemirov/sitelens/internal/tokenizer"
	"github.com/tyemirov/sitelens/internal/utils"
)

const (
	errorWorkingDirectoryFormat   = "determine working directory: %w"
	errorResolveConfigPathFormat  = "resolve configuration path %s: %w"
	errorStatConfigurationFormat  = "stat configuration %s: %w"
	errorConfigurationIsDirFormat = "configuration path %s is a directory"
	errorReadConfigurationFormat  = "read configuration from %s: %w"
	errorDecodeConfigurationFmt   = "decode configuration from %s: %w"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds the analyze defaults and the consumer profile set.
type ApplicationConfiguration struct {
	Analyze  AnalyzeConfiguration `mapstructure:"analyze" yaml:"analyze"`
	Profiles bundle.ProfileSet    `mapstructure:"profiles" yaml:"profiles"`
}

// AnalyzeConfiguration defines options of the analyze command.
type AnalyzeConfiguration struct {
	OutputDirectory string             `mapstructure:"output_dir" yaml:"output_dir"`
	Hash            string             `mapstructure:"hash" yaml:"hash"`
	Tokens          TokenConfiguration `mapstructure:"tokens" yaml:"tokens"`
	Paths           PathConfiguration  `mapstructure:"paths" yaml:"paths"`
	Clipboard       string             `mapstructure:"clipboard" yaml:"clipboard"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled" yaml:"enabled"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// PathConfiguration configures exclusion rules for path traversal.
type PathConfiguration struct {
	Exclude      []string `mapstructure:"exclude" yaml:"exclude"`
	UseGitignore *bool    `mapstructure:"use_gitignore" yaml:"use_gitignore"`
}

// DefaultApplicationConfiguration returns the configuration used when no file sets a value.
func DefaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Analyze: AnalyzeConfiguration{
			OutputDirectory: utils.DefaultOutputDirectoryName,
			Hash:            digest.DefaultAlgorithm,
			Tokens: TokenConfiguration{
				Enabled: boolPointer(false),
				Model:   tokenizer.DefaultModel,
			},
			Paths: PathConfiguration{
				Exclude:      []string{},
				UseGitignore: boolPointer(false),
			},
		},
		Profiles: bundle.DefaultProfiles(),
	}
}

// LoadApplicationConfiguration loads configuration from global and local files.
// Values not set by any file are left zero; see Resolved.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf(errorWorkingDirectoryFormat, err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.GlobalConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Analyze.Paths.Exclude = utils.DeduplicatePatterns(merged.Analyze.Paths.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf(errorResolveConfigPathFormat, explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf(errorStatConfigurationFormat, path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf(errorConfigurationIsDirFormat, path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorReadConfigurationFormat, path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf(errorDecodeConfigurationFmt, path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
// A non-empty profile list replaces the receiver's list as a whole.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Analyze = result.Analyze.merge(override.Analyze)
	if len(override.Profiles) > 0 {
		result.Profiles = append(bundle.ProfileSet{}, override.Profiles...)
	}
	return result
}

// Resolved fills every unset value from DefaultApplicationConfiguration.
func (config ApplicationConfiguration) Resolved() ApplicationConfiguration {
	return DefaultApplicationConfiguration().Merge(config)
}

func (config AnalyzeConfiguration) merge(override AnalyzeConfiguration) AnalyzeConfiguration {
	result := config
	if override.OutputDirectory != "" {
		result.OutputDirectory = override.OutputDirectory
	}
	if override.Hash != "" {
		result.Hash = override.Hash
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	result.Paths = result.Paths.merge(override.Paths)
	if override.Clipboard != "" {
		result.Clipboard = override.Clipboard
	}
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func (config PathConfiguration) merge(override PathConfiguration) PathConfiguration {
	result := config
	if len(override.Exclude) > 0 {
		result.Exclude = append([]string{}, utils.DeduplicatePatterns(override.Exclude)...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	return result
}

// BoolValue dereferences an optional flag, treating nil as false.
func BoolValue(value *bool) bool {
	return value != nil && *value
}

func boolPointer(value bool) *bool {
	return &value
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
