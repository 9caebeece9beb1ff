// Package cli provides the command line interface for the ingest tool.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/ingest"
	"github.com/temirov/ingest/internal/config"
	"github.com/temirov/ingest/internal/patterns"
	"github.com/temirov/ingest/internal/services/clipboard"
	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	includeFlagName     = "include"
	excludeFlagName     = "exclude"
	maxFileSizeFlagName = "max-size"
	outputFlagName      = "output"
	tokensFlagName      = "tokens"
	modelFlagName       = "model"
	copyFlagName        = "copy"
	configFlagName      = "config"
	versionFlagName     = "version"

	versionTemplate = "ingest version: %s\n"
	defaultPath     = "."
	stdoutOutput    = "-"

	rootUse              = "ingest [paths...]"
	rootShortDescription = "produce an LLM-ready digest of a repository or directory"
	rootLongDescription  = `ingest converts a local repository or directory into a single text digest:
a summary, a directory tree, and the concatenated file contents, bounded by
depth, file-count, and size limits.
Use --include and --exclude to filter paths, --output to write the digest to
a file, and --tokens to include a token estimate in the summary.`
	rootUsageExample = `  # Digest the current directory to stdout
  ingest

  # Digest only Python sources, write to a file
  ingest --include "*.py" --output digest.txt .

  # Digest a single file and copy the result to the clipboard
  ingest --copy ./README.md`

	includeFlagDescription     = "glob patterns to include (comma or space separated, repeatable)"
	excludeFlagDescription     = "glob patterns to exclude (comma or space separated, repeatable)"
	maxFileSizeFlagDescription = "maximum size of a single ingested file in bytes"
	outputFlagDescription      = "output destination; a path or '-' for stdout"
	tokensFlagDescription      = "include an estimated token count in the summary"
	modelFlagDescription       = "model whose tokenizer is used for estimation"
	copyFlagDescription        = "copy the digest to the system clipboard"
	configFlagDescription      = "path to an explicit configuration file"
	versionFlagDescription     = "display application version"

	errorAbsolutePathFormat = "resolving absolute path for %s: %w"
	errorPathMissingFormat  = "path %s does not exist"
	errorStatFormat         = "inspecting path %s: %w"
	errorNoValidPaths       = "no valid paths provided"
	errorWriteOutputFormat  = "writing digest to %s: %w"
	errorClipboardFormat    = "copying digest to clipboard: %w"

	digestSectionSeparator = "\n\n"
	outputFilePermissions  = 0o644
)

// Execute runs the root command.
func Execute() error {
	return newRootCommand().Execute()
}

func newRootCommand() *cobra.Command {
	var includePatternArguments []string
	var excludePatternArguments []string
	var maxFileSizeArgument int64
	var outputArgument string
	var tokensArgument bool
	var modelArgument string
	var copyArgument bool
	var configPathArgument string
	var versionArgument bool

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		Example:       rootUsageExample,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if versionArgument {
				fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return nil
			}

			applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
				ExplicitFilePath: configPathArgument,
			})
			if configurationError != nil {
				return configurationError
			}

			options := runOptions{
				paths:           arguments,
				includePatterns: includePatternArguments,
				excludePatterns: excludePatternArguments,
				maxFileSize:     maxFileSizeArgument,
				output:          outputArgument,
				tokensEnabled:   tokensArgument,
				tokenModel:      modelArgument,
				copyToClipboard: copyArgument,
			}
			options.applyConfiguration(command, applicationConfiguration)

			return runIngest(command, options)
		},
	}

	rootCommand.Flags().StringSliceVarP(&includePatternArguments, includeFlagName, "i", nil, includeFlagDescription)
	rootCommand.Flags().StringSliceVarP(&excludePatternArguments, excludeFlagName, "e", nil, excludeFlagDescription)
	rootCommand.Flags().Int64VarP(&maxFileSizeArgument, maxFileSizeFlagName, "s", 0, maxFileSizeFlagDescription)
	rootCommand.Flags().StringVarP(&outputArgument, outputFlagName, "o", stdoutOutput, outputFlagDescription)
	rootCommand.Flags().BoolVar(&tokensArgument, tokensFlagName, true, tokensFlagDescription)
	rootCommand.Flags().StringVar(&modelArgument, modelFlagName, "", modelFlagDescription)
	rootCommand.Flags().BoolVar(&copyArgument, copyFlagName, false, copyFlagDescription)
	rootCommand.Flags().StringVar(&configPathArgument, configFlagName, "", configFlagDescription)
	rootCommand.Flags().BoolVar(&versionArgument, versionFlagName, false, versionFlagDescription)

	return rootCommand
}

// runOptions collects the effective settings for one invocation after flags
// and configuration files have been merged.
type runOptions struct {
	paths           []string
	includePatterns []string
	excludePatterns []string
	maxFileSize     int64
	output          string
	tokensEnabled   bool
	tokenModel      string
	copyToClipboard bool
}

// applyConfiguration overlays configuration file defaults onto options for
// every flag the user left unset.
func (options *runOptions) applyConfiguration(command *cobra.Command, applicationConfiguration config.ApplicationConfiguration) {
	ingestConfiguration := applicationConfiguration.Ingest

	if !command.Flags().Changed(outputFlagName) && ingestConfiguration.Output != "" {
		options.output = ingestConfiguration.Output
	}
	if !command.Flags().Changed(maxFileSizeFlagName) && ingestConfiguration.MaxFileSize != nil {
		options.maxFileSize = *ingestConfiguration.MaxFileSize
	}
	if !command.Flags().Changed(copyFlagName) && ingestConfiguration.Clipboard != nil {
		options.copyToClipboard = *ingestConfiguration.Clipboard
	}
	if !command.Flags().Changed(tokensFlagName) && ingestConfiguration.Tokens.Enabled != nil {
		options.tokensEnabled = *ingestConfiguration.Tokens.Enabled
	}
	if !command.Flags().Changed(modelFlagName) && ingestConfiguration.Tokens.Model != "" {
		options.tokenModel = ingestConfiguration.Tokens.Model
	}
	options.excludePatterns = append(options.excludePatterns, ingestConfiguration.Paths.Exclude...)
	options.includePatterns = append(options.includePatterns, ingestConfiguration.Paths.Include...)
}

// runIngest validates the input paths, ingests each one concurrently with
// its own query and tree, and renders the digests in input order.
func runIngest(command *cobra.Command, options runOptions) error {
	inputPaths := options.paths
	if len(inputPaths) == 0 {
		inputPaths = []string{defaultPath}
	}

	validatedPaths, validationError := resolveAndValidatePaths(inputPaths)
	if validationError != nil {
		return validationError
	}

	ignorePatterns, includePatterns, patternError := patterns.ProcessPatterns(options.excludePatterns, options.includePatterns)
	if patternError != nil {
		return patternError
	}

	var tokenCounter tokenizer.Counter
	if options.tokensEnabled {
		counter, _, tokenizerError := tokenizer.NewCounter(tokenizer.Config{Model: options.tokenModel})
		if tokenizerError != nil {
			return tokenizerError
		}
		tokenCounter = counter
	}

	applicationLogger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		return loggerError
	}
	defer applicationLogger.Sync()

	engine := ingest.NewEngine(applicationLogger, tokenCounter)

	digests := make([]ingest.Digest, len(validatedPaths))
	var ingestGroup errgroup.Group
	for pathIndex, validatedPath := range validatedPaths {
		ingestGroup.Go(func() error {
			query := &types.IngestionQuery{
				Slug:            filepath.Base(validatedPath.AbsolutePath),
				LocalPath:       validatedPath.AbsolutePath,
				Subpath:         "/",
				MaxFileSize:     options.maxFileSize,
				IgnorePatterns:  ignorePatterns,
				IncludePatterns: includePatterns,
			}
			if !validatedPath.IsDir {
				query.Type = types.IngestTypeBlob
			}
			digest, ingestError := engine.IngestQuery(query)
			if ingestError != nil {
				return ingestError
			}
			digests[pathIndex] = digest
			return nil
		})
	}
	if groupError := ingestGroup.Wait(); groupError != nil {
		return groupError
	}

	renderedDigest := renderDigests(digests)

	if options.copyToClipboard {
		if clipboardError := clipboard.NewService().Copy(renderedDigest); clipboardError != nil {
			return fmt.Errorf(errorClipboardFormat, clipboardError)
		}
	}

	if options.output == stdoutOutput || options.output == "" {
		fmt.Fprint(command.OutOrStdout(), renderedDigest)
		return nil
	}
	if writeError := os.WriteFile(options.output, []byte(renderedDigest), outputFilePermissions); writeError != nil {
		return fmt.Errorf(errorWriteOutputFormat, options.output, writeError)
	}
	return nil
}

// renderDigests concatenates each digest's summary, tree, and content.
func renderDigests(digests []ingest.Digest) string {
	var rendered strings.Builder
	for _, digest := range digests {
		rendered.WriteString(digest.Summary)
		rendered.WriteString(digestSectionSeparator)
		rendered.WriteString(digest.Tree)
		rendered.WriteString("\n")
		rendered.WriteString(digest.Content)
	}
	return rendered.String()
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
		if _, alreadySeen := seen[cleanPath]; alreadySeen {
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
