// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/temirov/ingest/internal/classifier"
	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/matcher"
	"github.com/temirov/ingest/internal/render"
	"github.com/temirov/ingest/internal/selector"
	"github.com/temirov/ingest/internal/services/clipboard"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	includeFlagName           = "include"
	excludeFlagName           = "exclude"
	noDefaultExcludesFlagName = "no-default-excludes"
	noGitignoreFlagName       = "no-gitignore"
	noIgnoreFlagName          = "no-ignore"
	maxFileSizeFlagName       = "max-file-size"
	maxTotalSizeFlagName      = "max-total-size"
	topFlagName               = "top"
	outputFlagName            = "output"
	charsetFlagName           = "charset"
	tokensFlagName            = "tokens"
	modelFlagName             = "model"
	clipboardFlagName         = "clipboard"
	footerFlagName            = "footer"
	configFlagName            = "config"
	forceFlagName             = "force"
	globalFlagName            = "global"
	versionFlagName           = "version"

	versionTemplate      = "ingest version: %s\n"
	defaultRootPath      = "."
	rootUse              = "ingest [path]"
	rootShortDescription = "convert a directory tree into LLM-ready Markdown"
	rootLongDescription  = `ingest converts a local directory tree into a single Markdown document with
three sections: Summary, Directory Tree, and File Contents. The document is
meant to be handed to a language model as a codebase snapshot.`
	rootUsageExample = `  # Ingest the current directory to stdout
  ingest

  # Only Rust sources, written to a file
  ingest -i '**/*.rs' -o snapshot.md .

  # Exclude generated code and count tokens
  ingest -e 'gen/**' --tokens --model gpt-4o .`

	initUse              = "init"
	initShortDescription = "write a default configuration file"
	initLongDescription  = `Write a commented default configuration file. The local target places
.ingest.yaml into the working directory; --global places it under
~/.config/ingest instead.`

	includeFlagDescription           = "include glob (repeatable)"
	excludeFlagDescription           = "exclude glob (repeatable)"
	noDefaultExcludesFlagDescription = "do not apply built-in excludes for hidden and VCS entries"
	disableGitignoreFlagDescription  = "do not read .gitignore files"
	disableIgnoreFlagDescription     = "do not read .ingestignore files"
	maxFileSizeFlagDescription       = "maximum size of a single included file in bytes"
	maxTotalSizeFlagDescription      = "maximum size of the rendered document in bytes"
	topFlagDescription               = "number of extensions listed in the summary"
	outputFlagDescription            = "write the document to this file instead of stdout"
	charsetFlagDescription           = "tree charset: unicode or ascii"
	tokensFlagDescription            = "include an approximate token count"
	modelFlagDescription             = "tokenizer model used for token counting"
	clipboardFlagDescription         = "copy the document to the system clipboard"
	footerFlagDescription            = "append this footer to the document"
	configFlagDescription            = "path to a configuration file"
	forceFlagDescription             = "overwrite an existing configuration file"
	globalFlagDescription            = "write the global configuration file"
	versionFlagDescription           = "display application version"

	invalidCharsetFormat        = "invalid charset value '%s'"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
	// errorAbsolutePathFormat reports failure to resolve the root path.
	errorAbsolutePathFormat = "abs failed for '%s': %w"
	// errorRootMissingFormat reports a missing root path.
	errorRootMissingFormat = "root path '%s' does not exist"
	// errorRootStatFormat reports failure to stat the root path.
	errorRootStatFormat = "stat failed for '%s': %w"
	// errorOutputFormat reports an unwritable output destination.
	errorOutputFormat = "writing output to %s: %w"
	// warningClipboardFormat reports a failed clipboard copy.
	warningClipboardFormat = "Warning: clipboard copy failed: %v\n"
	// warningIgnoreFilesFormat reports unusable ignore files.
	warningIgnoreFilesFormat = "Warning: ignore files under %s were not loaded: %v\n"
	initializedConfigFormat  = "Wrote configuration to %s\n"
)

// Execute runs the ingest application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// runOptions stores every flag value for the root command.
type runOptions struct {
	includePatterns   []string
	excludePatterns   []string
	noDefaultExcludes bool
	disableGitignore  bool
	disableIgnoreFile bool
	maxFileSizeBytes  int64
	maxTotalSizeBytes int64
	topExtensions     int
	outputPath        string
	charset           string
	tokensEnabled     bool
	tokenModel        string
	copyToClipboard   bool
	footer            string
	configPath        string
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool
	var options runOptions

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			rootPath := defaultRootPath
			if len(arguments) == 1 {
				rootPath = arguments[0]
			}
			return runIngest(command, rootPath, options)
		},
	}

	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	flags := rootCommand.Flags()
	flags.StringArrayVarP(&options.includePatterns, includeFlagName, "i", nil, includeFlagDescription)
	flags.StringArrayVarP(&options.excludePatterns, excludeFlagName, "e", nil, excludeFlagDescription)
	flags.BoolVar(&options.noDefaultExcludes, noDefaultExcludesFlagName, false, noDefaultExcludesFlagDescription)
	flags.BoolVar(&options.disableGitignore, noGitignoreFlagName, false, disableGitignoreFlagDescription)
	flags.BoolVar(&options.disableIgnoreFile, noIgnoreFlagName, false, disableIgnoreFlagDescription)
	flags.Int64Var(&options.maxFileSizeBytes, maxFileSizeFlagName, classifier.DefaultMaxFileSizeBytes, maxFileSizeFlagDescription)
	flags.Int64Var(&options.maxTotalSizeBytes, maxTotalSizeFlagName, render.DefaultMaxTotalBytes, maxTotalSizeFlagDescription)
	flags.IntVar(&options.topExtensions, topFlagName, render.DefaultTopExtensions, topFlagDescription)
	flags.StringVarP(&options.outputPath, outputFlagName, "o", "", outputFlagDescription)
	flags.StringVar(&options.charset, charsetFlagName, types.CharsetUnicode, charsetFlagDescription)
	flags.BoolVar(&options.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	flags.StringVar(&options.tokenModel, modelFlagName, "", modelFlagDescription)
	flags.BoolVar(&options.copyToClipboard, clipboardFlagName, false, clipboardFlagDescription)
	flags.StringVar(&options.footer, footerFlagName, "", footerFlagDescription)
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)

	rootCommand.AddCommand(createInitCommand())
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	var writeGlobal bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Long:  initLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			writtenPath, initializeError := config.InitializeConfiguration(config.InitOptions{
				Target: target,
				Force:  force,
			})
			if initializeError != nil {
				return initializeError
			}
			fmt.Fprintf(command.OutOrStdout(), initializedConfigFormat, writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&writeGlobal, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&force, forceFlagName, false, forceFlagDescription)
	return initCommand
}

// runIngest executes the full pipeline: configuration, selection, rendering,
// and delivery of the document.
func runIngest(command *cobra.Command, rootPath string, options runOptions) error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.configPath,
	})
	if configurationError != nil {
		return configurationError
	}
	settings := resolveSettings(command, options, applicationConfiguration)

	if settings.charset != types.CharsetUnicode && settings.charset != types.CharsetASCII {
		return fmt.Errorf(invalidCharsetFormat, settings.charset)
	}

	absoluteRootPath, rootResolveError := resolveRootPath(rootPath)
	if rootResolveError != nil {
		return rootResolveError
	}

	timings := newStageTimings()

	timings.start("patterns")
	patternSet, patternError := buildPatternSet(absoluteRootPath, settings)
	if patternError != nil {
		return patternError
	}
	timings.stop("patterns")

	fileClassifier := classifier.NewClassifier(settings.maxFileSizeBytes, nil)

	timings.start("select")
	selectionResult, selectionError := selector.Select(context.Background(), selector.Options{
		Root:       absoluteRootPath,
		Patterns:   patternSet,
		Classifier: fileClassifier,
	})
	if selectionError != nil {
		return selectionError
	}
	timings.stop("select")

	var tokenCounter tokenizer.Counter
	var tokenModel string
	var fileTokenCounts map[string]int
	if settings.tokensEnabled {
		tokenCounter, tokenModel = tokenizer.NewCounter(tokenizer.Config{Model: settings.tokenModel})
		fileTokenCounts = annotateFileTokens(tokenCounter, selectionResult.Included)
	}

	timings.start("render")
	document := render.Render(selectionResult, render.Options{
		TopExtensions: settings.topExtensions,
		Charset:       settings.charset,
		MaxFileBytes:  settings.maxFileSizeBytes,
		MaxTotalBytes: settings.maxTotalSizeBytes,
		Footer:        settings.footer,
		TokenCounter:  tokenCounter,
		TokenModel:    tokenModel,
	})
	timings.stop("render")

	timings.start("output")
	if writeError := writeDocument(command.OutOrStdout(), settings.outputPath, document.Document()); writeError != nil {
		return writeError
	}

	clipboardState := clipboardNotRequested
	if settings.copyToClipboard {
		clipboardState = clipboardCopied
		if copyError := clipboard.NewService().Copy(document.Document()); copyError != nil {
			clipboardState = clipboardFailed
			fmt.Fprintf(command.ErrOrStderr(), warningClipboardFormat, copyError)
		}
	}
	timings.stop("output")

	printConsoleReport(command.ErrOrStderr(), consoleReport{
		root:            absoluteRootPath,
		result:          selectionResult,
		document:        document,
		outputPath:      settings.outputPath,
		clipboardState:  clipboardState,
		fileTokenCounts: fileTokenCounts,
		timings:         timings,
	})
	return nil
}

// effectiveSettings is the flag/configuration merge for one run. Changed
// flags win over configuration values, which win over defaults.
type effectiveSettings struct {
	includePatterns   []string
	excludePatterns   []string
	useDefaultExcl    bool
	useGitignore      bool
	useIgnoreFile     bool
	maxFileSizeBytes  int64
	maxTotalSizeBytes int64
	topExtensions     int
	outputPath        string
	charset           string
	tokensEnabled     bool
	tokenModel        string
	copyToClipboard   bool
	footer            string
}

func resolveSettings(command *cobra.Command, options runOptions, configuration config.ApplicationConfiguration) effectiveSettings {
	flags := command.Flags()

	settings := effectiveSettings{
		includePatterns:   append(append([]string(nil), configuration.Include...), options.includePatterns...),
		excludePatterns:   append(append([]string(nil), configuration.Exclude...), options.excludePatterns...),
		useDefaultExcl:    boolSetting(flags.Changed(noDefaultExcludesFlagName), !options.noDefaultExcludes, configuration.UseDefaultExcludes, true),
		useGitignore:      boolSetting(flags.Changed(noGitignoreFlagName), !options.disableGitignore, configuration.UseGitignore, true),
		useIgnoreFile:     boolSetting(flags.Changed(noIgnoreFlagName), !options.disableIgnoreFile, configuration.UseIgnoreFile, true),
		maxFileSizeBytes:  options.maxFileSizeBytes,
		maxTotalSizeBytes: options.maxTotalSizeBytes,
		topExtensions:     options.topExtensions,
		outputPath:        options.outputPath,
		charset:           options.charset,
		tokensEnabled:     boolSetting(flags.Changed(tokensFlagName), options.tokensEnabled, configuration.Tokens.Enabled, false),
		tokenModel:        options.tokenModel,
		copyToClipboard:   boolSetting(flags.Changed(clipboardFlagName), options.copyToClipboard, configuration.Clipboard, false),
		footer:            options.footer,
	}

	if !flags.Changed(maxFileSizeFlagName) && configuration.MaxFileSizeBytes > 0 {
		settings.maxFileSizeBytes = configuration.MaxFileSizeBytes
	}
	if !flags.Changed(maxTotalSizeFlagName) && configuration.MaxTotalSizeBytes > 0 {
		settings.maxTotalSizeBytes = configuration.MaxTotalSizeBytes
	}
	if !flags.Changed(topFlagName) && configuration.TopExtensions > 0 {
		settings.topExtensions = configuration.TopExtensions
	}
	if !flags.Changed(outputFlagName) && configuration.Output != "" {
		settings.outputPath = configuration.Output
	}
	if !flags.Changed(charsetFlagName) && configuration.Charset != "" {
		settings.charset = strings.ToLower(configuration.Charset)
	}
	if !flags.Changed(modelFlagName) && configuration.Tokens.Model != "" {
		settings.tokenModel = configuration.Tokens.Model
	}
	if !flags.Changed(footerFlagName) && configuration.Footer != "" {
		settings.footer = configuration.Footer
	}
	return settings
}

// boolSetting resolves one boolean: the flag value when the flag changed,
// the configuration value when present, the fallback otherwise.
func boolSetting(flagChanged bool, flagValue bool, configured *bool, fallback bool) bool {
	if flagChanged {
		return flagValue
	}
	if configured != nil {
		return *configured
	}
	return fallback
}

// buildPatternSet merges user patterns, the built-in default excludes, and
// patterns read from ignore files into one validated PatternSet.
func buildPatternSet(absoluteRootPath string, settings effectiveSettings) (*matcher.PatternSet, error) {
	excludePatterns := append([]string(nil), settings.excludePatterns...)
	if settings.useDefaultExcl {
		excludePatterns = append(excludePatterns, matcher.DefaultExcludePatterns...)
	}
	if settings.useGitignore || settings.useIgnoreFile {
		ignorePatterns, ignoreError := config.LoadRecursiveIgnorePatterns(absoluteRootPath, settings.useGitignore, settings.useIgnoreFile)
		if ignoreError != nil {
			fmt.Fprintf(os.Stderr, warningIgnoreFilesFormat, absoluteRootPath, ignoreError)
		} else {
			excludePatterns = append(excludePatterns, ignorePatterns...)
		}
	}
	return matcher.NewPatternSet(settings.includePatterns, utils.DeduplicatePatterns(excludePatterns))
}

// resolveRootPath converts the root argument to absolute form and validates
// that it exists and is a directory.
func resolveRootPath(rootPath string) (string, error) {
	absolutePath, absolutePathError := filepath.Abs(rootPath)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, rootPath, absolutePathError)
	}
	cleanPath := filepath.Clean(absolutePath)
	pathInformation, statError := os.Stat(cleanPath)
	if statError != nil {
		if os.IsNotExist(statError) {
			return "", fmt.Errorf(errorRootMissingFormat, rootPath)
		}
		return "", fmt.Errorf(errorRootStatFormat, rootPath, statError)
	}
	if !pathInformation.IsDir() {
		return "", fmt.Errorf("root path '%s' is not a directory", rootPath)
	}
	return cleanPath, nil
}

// writeDocument delivers the rendered document to the standard output writer
// or to the output file, creating parent directories as needed.
func writeDocument(standardOutput io.Writer, outputPath string, documentText string) error {
	if outputPath == "" || outputPath == "-" {
		_, writeError := fmt.Fprint(standardOutput, documentText)
		return writeError
	}
	absoluteOutputPath, absoluteError := filepath.Abs(outputPath)
	if absoluteError != nil {
		return fmt.Errorf(errorOutputFormat, outputPath, absoluteError)
	}
	if makeDirectoryError := os.MkdirAll(filepath.Dir(absoluteOutputPath), 0o755); makeDirectoryError != nil {
		return fmt.Errorf(errorOutputFormat, outputPath, makeDirectoryError)
	}
	if writeError := os.WriteFile(absoluteOutputPath, []byte(documentText), 0o644); writeError != nil {
		return fmt.Errorf(errorOutputFormat, outputPath, writeError)
	}
	return nil
}

// stageTimings records wall-clock durations for pipeline stages in start
// order.
type stageTimings struct {
	order     []string
	started   map[string]time.Time
	durations map[string]time.Duration
}

func newStageTimings() *stageTimings {
	return &stageTimings{
		started:   map[string]time.Time{},
		durations: map[string]time.Duration{},
	}
}

func (timings *stageTimings) start(stageName string) {
	if _, exists := timings.durations[stageName]; !exists {
		timings.order = append(timings.order, stageName)
	}
	timings.started[stageName] = time.Now()
}

func (timings *stageTimings) stop(stageName string) {
	startedAt, exists := timings.started[stageName]
	if !exists {
		return
	}
	timings.durations[stageName] = time.Since(startedAt)
}
