// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/sitelens/internal/analysis"
	"github.com/tyemirov/sitelens/internal/bundle"
	"github.com/tyemirov/sitelens/internal/config"
	"github.com/tyemirov/sitelens/internal/digest"
	"github.com/tyemirov/sitelens/internal/output"
	"github.com/tyemirov/sitelens/internal/services/clipboard"
	"github.com/tyemirov/sitelens/internal/services/stream"
	"github.com/tyemirov/sitelens/internal/tokenizer"
	"github.com/tyemirov/sitelens/internal/types"
	"github.com/tyemirov/sitelens/internal/utils"
)

const (
	exclusionFlagName    = "e"
	gitignoreFlagName    = "gitignore"
	formatFlagName       = "format"
	tokensFlagName       = "tokens"
	modelFlagName        = "model"
	hashFlagName         = "hash"
	outputFlagName       = "output"
	outputFlagShorthand  = "o"
	profileFlagName      = "profile"
	copyFlagName         = "copy"
	extensionFlagName    = "ext"
	configFlagName       = "config"
	globalFlagName       = "global"
	forceFlagName        = "force"
	versionTemplate      = "sitelens version: {{.Version}}\n"
	defaultPath          = "."
	rootUse              = "sitelens"
	rootShortDescription = "sitelens command line interface"
	rootLongDescription  = `sitelens analyzes web projects for AI assistants.
It walks a project tree, records metadata, content digests and the structure of PHP, HTML, JavaScript and CSS files,
and writes one JSON analysis bundle per consumer profile.`
	versionFlagDescription = "display application version"
	configFlagDescription  = "path to a configuration file used instead of ./" + utils.ConfigFileName

	analyzeUse              = "analyze [root]"
	analyzeAlias            = "a"
	analyzeShortDescription = "analyze a project and write bundles (" + analyzeAlias + ")"
	analyzeLongDescription  = `Analyze the project rooted at [root] (default: current directory) and write
site_analysis_<profile>.json for every consumer profile into the output directory.`
	analyzeUsageExample = `  # Analyze the current directory with the default profiles
  sitelens analyze

  # Write only the Claude 3 bundle, hashed with md5, and copy it to the clipboard
  sitelens a ./www --profile claude.3 --hash md5 --copy claude.3`

	treeUse              = "tree [root]"
	treeAlias            = "t"
	treeShortDescription = "display the analyzed tree (" + treeAlias + ")"
	treeLongDescription  = `Analyze the project rooted at [root] and print its directory tree without writing bundles.
Use --ext to keep only files of the given kinds (All, PHP, HTML, CSS, JavaScript or a literal extension).`
	treeUsageExample = `  # Show only stylesheets
  sitelens tree --ext CSS

  # Print the analysis document
  sitelens t --format json ./www`

	profilesUse              = "profiles"
	profilesShortDescription = "list the active consumer profiles"
	profileLineFormat        = "%s\t%s\n"

	initUse              = "init"
	initShortDescription = "write the default configuration file"
	initWrittenFormat    = "configuration written to %s\n"

	exclusionFlagDescription = "exclude path pattern"
	gitignoreFlagDescription = "skip paths matched by .gitignore files"
	formatFlagDescription    = "output format (raw or json)"
	tokensFlagDescription    = "include token counts"
	modelFlagDescription     = "tokenizer model to use for token counting"
	hashFlagDescription      = "digest algorithm (xxhash, md5 or sha256)"
	outputFlagDescription    = "directory receiving the analysis bundles"
	profileFlagDescription   = "write only the named profile (repeatable)"
	copyFlagDescription      = "copy the bundle of the named profile to the clipboard"
	extensionFlagDescription = "show only files of this kind (repeatable)"
	globalFlagDescription    = "write the global configuration instead of the local one"
	forceFlagDescription     = "overwrite an existing configuration file"

	invalidFormatMessage        = "Invalid format value '%s'"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	errorUnknownProfileFormat   = "unknown profile %q; active profiles: %s"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
	errorLoadGitignoreFormat    = "load gitignore rules: %w"
	// errorAbsolutePathFormat reports failure to resolve an absolute path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorPathMissingFormat reports a missing path.
	errorPathMissingFormat = "path '%s' does not exist"
	// errorStatFormat reports failure to retrieve file statistics.
	errorStatFormat = "stat failed for '%s': %w"
	// errorNoValidPaths indicates that all paths are invalid.
	errorNoValidPaths = "no valid paths"

	warningLogMessage = "analysis warning"
	logFieldPath      = "path"
	logFieldDetail    = "detail"
	logFieldProfile   = "profile"
	clipboardCopied   = "bundle copied to clipboard"
)

// isSupportedFormat reports whether the provided format is recognized.
func isSupportedFormat(format string) bool {
	switch format {
	case types.FormatRaw, types.FormatJSON:
		return true
	default:
		return false
	}
}

// application carries state shared by every subcommand.
type application struct {
	logger             *zap.Logger
	configPath         string
	copier             clipboard.Copier
	loadConfiguration  func(config.LoadOptions) (config.ApplicationConfiguration, error)
	workingDirectoryFn func() (string, error)
}

// Execute runs the sitelens application.
func Execute(logger *zap.Logger) error {
	rootCommand := createRootCommand(newApplication(logger))
	rootCommand.SetArgs(normalizeBooleanFlagArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

func newApplication(logger *zap.Logger) *application {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &application{
		logger:             logger,
		copier:             clipboard.NewService(),
		loadConfiguration:  config.LoadApplicationConfiguration,
		workingDirectoryFn: os.Getwd,
	}
}

// createRootCommand builds the root Cobra command.
func createRootCommand(app *application) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Version:      utils.GetApplicationVersion(),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	rootCommand.SetVersionTemplate(versionTemplate)
	rootCommand.Flags().Bool("version", false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&app.configPath, configFlagName, "", configFlagDescription)
	rootCommand.AddCommand(
		createAnalyzeCommand(app),
		createTreeCommand(app),
		createProfilesCommand(app),
		createInitCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// pathOptions stores configuration for path-related flags.
type pathOptions struct {
	exclusionPatterns []string
	useGitignore      *bool
}

// addPathFlags registers path-related flags on the command.
func addPathFlags(command *cobra.Command, options *pathOptions) {
	command.Flags().StringArrayVarP(&options.exclusionPatterns, exclusionFlagName, exclusionFlagName, nil, exclusionFlagDescription)
	registerOptionalBooleanFlag(command.Flags(), &options.useGitignore, gitignoreFlagName, gitignoreFlagDescription)
}

// analysisFlags are the flags shared by commands that run an analysis.
type analysisFlags struct {
	paths        pathOptions
	tokens       *bool
	model        string
	hash         string
	outputDir    string
	clipboard    string
	profileNames []string
}

func addAnalysisFlags(command *cobra.Command, flags *analysisFlags) {
	addPathFlags(command, &flags.paths)
	registerOptionalBooleanFlag(command.Flags(), &flags.tokens, tokensFlagName, tokensFlagDescription)
	command.Flags().StringVar(&flags.model, modelFlagName, "", modelFlagDescription)
	command.Flags().StringVar(&flags.hash, hashFlagName, "", hashFlagDescription)
}

// overrides converts command-line flags into a configuration layer; unset flags stay zero.
func (flags analysisFlags) overrides() config.ApplicationConfiguration {
	return config.ApplicationConfiguration{
		Analyze: config.AnalyzeConfiguration{
			OutputDirectory: flags.outputDir,
			Hash:            flags.hash,
			Tokens:          config.TokenConfiguration{Enabled: flags.tokens, Model: flags.model},
			Paths: config.PathConfiguration{
				Exclude:      config.NormalizeExclusionPatterns(flags.paths.exclusionPatterns),
				UseGitignore: flags.paths.useGitignore,
			},
			Clipboard: flags.clipboard,
		},
	}
}

// resolveConfiguration layers defaults, configuration files and flags, in that order.
func (app *application) resolveConfiguration(flags analysisFlags) (config.ApplicationConfiguration, string, error) {
	workingDirectory, workingDirectoryError := app.workingDirectoryFn()
	if workingDirectoryError != nil {
		return config.ApplicationConfiguration{}, "", fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}
	loaded, loadError := app.loadConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: app.configPath,
	})
	if loadError != nil {
		return config.ApplicationConfiguration{}, "", loadError
	}
	base := loaded.Resolved()
	resolved := base.Merge(flags.overrides())
	// -e adds to the configured exclusions instead of replacing them.
	resolved.Analyze.Paths.Exclude = utils.DeduplicatePatterns(append(append([]string{}, base.Analyze.Paths.Exclude...), config.NormalizeExclusionPatterns(flags.paths.exclusionPatterns)...))
	return resolved, workingDirectory, nil
}

// createAnalyzeCommand returns the analyze subcommand.
func createAnalyzeCommand(app *application) *cobra.Command {
	var flags analysisFlags

	analyzeCommand := &cobra.Command{
		Use:     analyzeUse,
		Aliases: []string{analyzeAlias},
		Short:   analyzeShortDescription,
		Long:    analyzeLongDescription,
		Example: analyzeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			return app.runAnalyze(command.Context(), command.OutOrStdout(), rootArgument(arguments), flags)
		},
	}

	addAnalysisFlags(analyzeCommand, &flags)
	analyzeCommand.Flags().StringVarP(&flags.outputDir, outputFlagName, outputFlagShorthand, "", outputFlagDescription)
	analyzeCommand.Flags().StringArrayVar(&flags.profileNames, profileFlagName, nil, profileFlagDescription)
	analyzeCommand.Flags().StringVar(&flags.clipboard, copyFlagName, "", copyFlagDescription)
	return analyzeCommand
}

// createTreeCommand returns the tree subcommand.
func createTreeCommand(app *application) *cobra.Command {
	var flags analysisFlags
	var outputFormat string
	var extensionFilters []string

	treeCommand := &cobra.Command{
		Use:     treeUse,
		Aliases: []string{treeAlias},
		Short:   treeShortDescription,
		Long:    treeLongDescription,
		Example: treeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			outputFormatLower := strings.ToLower(outputFormat)
			if !isSupportedFormat(outputFormatLower) {
				return fmt.Errorf(invalidFormatMessage, outputFormatLower)
			}
			extensions, filterError := output.ResolveExtensionFilters(extensionFilters)
			if filterError != nil {
				return filterError
			}
			return app.runTree(command.Context(), command.OutOrStdout(), rootArgument(arguments), flags, outputFormatLower, extensions)
		},
	}

	addAnalysisFlags(treeCommand, &flags)
	treeCommand.Flags().StringVar(&outputFormat, formatFlagName, types.FormatRaw, formatFlagDescription)
	treeCommand.Flags().StringArrayVar(&extensionFilters, extensionFlagName, nil, extensionFlagDescription)
	return treeCommand
}

// createProfilesCommand returns the profiles subcommand.
func createProfilesCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   profilesUse,
		Short: profilesShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			resolved, _, err := app.resolveConfiguration(analysisFlags{})
			if err != nil {
				return err
			}
			for _, profile := range resolved.Profiles {
				fmt.Fprintf(command.OutOrStdout(), profileLineFormat, profile.Name, profile.Prompt)
			}
			return nil
		},
	}
}

// createInitCommand returns the init subcommand.
func createInitCommand(app *application) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := app.workingDirectoryFn()
			if workingDirectoryError != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
			}
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			writtenPath, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: workingDirectory,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(command.OutOrStdout(), initWrittenFormat, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&global, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

func rootArgument(arguments []string) string {
	if len(arguments) == 0 {
		return defaultPath
	}
	return arguments[0]
}

// runAnalyze analyzes root and writes one bundle per selected profile.
func (app *application) runAnalyze(ctx context.Context, stdout io.Writer, root string, flags analysisFlags) error {
	resolved, workingDirectory, err := app.resolveConfiguration(flags)
	if err != nil {
		return err
	}
	profiles, profileError := selectProfiles(resolved.Profiles, flags.profileNames)
	if profileError != nil {
		return profileError
	}
	if err := profiles.Validate(); err != nil {
		return err
	}
	if resolved.Analyze.Clipboard != "" {
		if _, found := resolved.Profiles.Lookup(resolved.Analyze.Clipboard); !found {
			return fmt.Errorf(errorUnknownProfileFormat, resolved.Analyze.Clipboard, strings.Join(resolved.Profiles.Names(), ", "))
		}
	}

	analysisOptions, optionsError := app.buildAnalysisOptions(root, resolved.Analyze)
	if optionsError != nil {
		return optionsError
	}
	outputDirectory := resolved.Analyze.OutputDirectory
	if !filepath.IsAbs(outputDirectory) {
		outputDirectory = filepath.Join(workingDirectory, outputDirectory)
	}

	renderer := output.NewAnalysisRenderer(stdout, app.logger)
	var result stream.AnalyzeResult
	producer := func(streamCtx context.Context, ch chan<- stream.Event) error {
		var streamErr error
		result, streamErr = stream.StreamAnalysis(streamCtx, stream.AnalyzeOptions{
			Analysis:        analysisOptions,
			OutputDirectory: outputDirectory,
			Profiles:        profiles,
		}, ch)
		return streamErr
	}
	if err := dispatchStream(ctx, producer, renderer.Handle); err != nil {
		return err
	}
	if err := renderer.Flush(); err != nil {
		return err
	}

	if resolved.Analyze.Clipboard != "" {
		if err := clipboard.CopyBundle(app.copier, result.Tree, resolved.Profiles, resolved.Analyze.Clipboard); err != nil {
			return err
		}
		app.logger.Info(clipboardCopied, zap.String(logFieldProfile, resolved.Analyze.Clipboard))
	}
	return nil
}

// runTree analyzes root and prints the, optionally filtered, tree.
func (app *application) runTree(ctx context.Context, stdout io.Writer, root string, flags analysisFlags, format string, extensions []string) error {
	resolved, _, err := app.resolveConfiguration(flags)
	if err != nil {
		return err
	}
	analysisOptions, optionsError := app.buildAnalysisOptions(root, resolved.Analyze)
	if optionsError != nil {
		return optionsError
	}

	var result stream.AnalyzeResult
	producer := func(streamCtx context.Context, ch chan<- stream.Event) error {
		var streamErr error
		result, streamErr = stream.StreamAnalysis(streamCtx, stream.AnalyzeOptions{Command: types.CommandTree, Analysis: analysisOptions}, ch)
		return streamErr
	}
	consumer := func(event stream.Event) error {
		if event.Kind == stream.EventKindWarning && event.Message != nil {
			app.logger.Warn(warningLogMessage, zap.String(logFieldPath, event.Path), zap.String(logFieldDetail, event.Message.Message))
		}
		return nil
	}
	if err := dispatchStream(ctx, producer, consumer); err != nil {
		return err
	}

	filtered := types.FilterByExtension(result.Tree, extensions...)
	if format == types.FormatJSON {
		rendered, renderError := output.RenderTreeJSON(filtered)
		if renderError != nil {
			return renderError
		}
		fmt.Fprintln(stdout, rendered)
		return nil
	}
	output.WriteTreeRaw(stdout, filtered)
	return nil
}

// buildAnalysisOptions validates root and builds the hasher, token counter and ignore rules.
func (app *application) buildAnalysisOptions(root string, analyzeConfiguration config.AnalyzeConfiguration) (analysis.Options, error) {
	validatedPaths, pathValidationError := resolveAndValidatePaths([]string{root})
	if pathValidationError != nil {
		return analysis.Options{}, pathValidationError
	}
	rootPath := validatedPaths[0]
	if !rootPath.IsDir {
		return analysis.Options{}, fmt.Errorf(errorNotDirectoryFormat, root)
	}

	hasher, hasherError := digest.New(analyzeConfiguration.Hash)
	if hasherError != nil {
		return analysis.Options{}, hasherError
	}
	options := analysis.Options{
		Root:           rootPath.AbsolutePath,
		Hasher:         hasher,
		IgnorePatterns: analyzeConfiguration.Paths.Exclude,
	}

	if config.BoolValue(analyzeConfiguration.Tokens.Enabled) {
		tokenCounter, _, counterError := tokenizer.NewCounter(tokenizer.Config{Model: analyzeConfiguration.Tokens.Model})
		if counterError != nil {
			return analysis.Options{}, counterError
		}
		options.TokenCounter = tokenCounter
	}

	if config.BoolValue(analyzeConfiguration.Paths.UseGitignore) {
		matcher, matcherError := config.LoadGitignoreMatcher(rootPath.AbsolutePath)
		if matcherError != nil {
			return analysis.Options{}, fmt.Errorf(errorLoadGitignoreFormat, matcherError)
		}
		if matcher != nil {
			options.IgnoreMatcher = matcher
		}
	}
	return options, nil
}

// selectProfiles keeps the named profiles in the order given; no names keeps the whole set.
func selectProfiles(profiles bundle.ProfileSet, names []string) (bundle.ProfileSet, error) {
	if len(names) == 0 {
		return profiles, nil
	}
	selected := make(bundle.ProfileSet, 0, len(names))
	for _, name := range utils.DeduplicatePatterns(names) {
		profile, found := profiles.Lookup(name)
		if !found {
			return nil, fmt.Errorf(errorUnknownProfileFormat, name, strings.Join(profiles.Names(), ", "))
		}
		selected = append(selected, profile)
	}
	return selected, nil
}

func dispatchStream(
	ctx context.Context,
	produce func(context.Context, chan<- stream.Event) error,
	consume func(stream.Event) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	group, streamCtx := errgroup.WithContext(ctx)
	events := make(chan stream.Event)

	var produceErr error
	group.Go(func() error {
		defer close(events)
		produceErr = produce(streamCtx, events)
		return produceErr
	})

	group.Go(func() error {
		for {
			select {
			case <-streamCtx.Done():
				return streamCtx.Err()
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := consume(event); err != nil {
					return err
				}
			}
		}
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	// A cancelled producer has no result to render.
	return produceErr
}

// resolveAndValidatePaths converts input paths to absolute form and validates their existence.
func resolveAndValidatePaths(inputs []string) ([]types.ValidatedPath, error) {
	seen := make(map[string]struct{})
	var result []types.ValidatedPath
	for _, inputPath := range inputs {
		absolutePath, absolutePathError := filepath.Abs(inputPath)
		if absolutePathError != nil {
			return nil, fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
		}
		cleanPath := filepath.Clean(absolutePath)
		if _, ok := seen[cleanPath]; ok {
			continue
		}
		info, fileStatusError := os.Stat(cleanPath)
		if fileStatusError != nil {
			if os.IsNotExist(fileStatusError) {
				return nil, fmt.Errorf(errorPathMissingFormat, inputPath)
			}
			return nil, fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
		}
		seen[cleanPath] = struct{}{}
		result = append(result, types.ValidatedPath{AbsolutePath: cleanPath, IsDir: info.IsDir()})
	}
	if len(result) == 0 {
		return nil, errors.New(errorNoValidPaths)
	}
	return result, nil
}
