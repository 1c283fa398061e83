// Package config loads application configuration and ignore files.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/ingest/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds configuration defaults for a run. Pointer
// booleans distinguish "unset" from an explicit false during merging.
type ApplicationConfiguration struct {
	Include            []string           `mapstructure:"include"`
	Exclude            []string           `mapstructure:"exclude"`
	UseDefaultExcludes *bool              `mapstructure:"use_default_excludes"`
	UseGitignore       *bool              `mapstructure:"use_gitignore"`
	UseIgnoreFile      *bool              `mapstructure:"use_ignore"`
	MaxFileSizeBytes   int64              `mapstructure:"max_file_size"`
	MaxTotalSizeBytes  int64              `mapstructure:"max_total_size"`
	TopExtensions      int                `mapstructure:"top_extensions"`
	Output             string             `mapstructure:"output"`
	Charset            string             `mapstructure:"charset"`
	Tokens             TokenConfiguration `mapstructure:"tokens"`
	Clipboard          *bool              `mapstructure:"clipboard"`
	Footer             string             `mapstructure:"footer"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from the global and local
// files and merges them, the local file winning.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, filepath.FromSlash(utils.GlobalConfigDirectoryName), utils.ConfigFileName)
		globalConfiguration, loadError := loadConfigurationFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfiguration)
	}

	localPath, resolveError := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveError != nil {
		return ApplicationConfiguration{}, resolveError
	}
	if localPath != "" {
		localConfiguration, loadError := loadConfigurationFromPath(localPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(localConfiguration)
	}

	merged.Include = utils.DeduplicatePatterns(merged.Include)
	merged.Exclude = utils.DeduplicatePatterns(merged.Exclude)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
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
	pathInformation, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if pathInformation.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	merged := configuration
	if len(override.Include) > 0 {
		merged.Include = append(merged.Include, override.Include...)
	}
	if len(override.Exclude) > 0 {
		merged.Exclude = append(merged.Exclude, override.Exclude...)
	}
	if override.UseDefaultExcludes != nil {
		merged.UseDefaultExcludes = override.UseDefaultExcludes
	}
	if override.UseGitignore != nil {
		merged.UseGitignore = override.UseGitignore
	}
	if override.UseIgnoreFile != nil {
		merged.UseIgnoreFile = override.UseIgnoreFile
	}
	if override.MaxFileSizeBytes > 0 {
		merged.MaxFileSizeBytes = override.MaxFileSizeBytes
	}
	if override.MaxTotalSizeBytes > 0 {
		merged.MaxTotalSizeBytes = override.MaxTotalSizeBytes
	}
	if override.TopExtensions > 0 {
		merged.TopExtensions = override.TopExtensions
	}
	if override.Output != "" {
		merged.Output = override.Output
	}
	if override.Charset != "" {
		merged.Charset = override.Charset
	}
	if override.Tokens.Enabled != nil {
		merged.Tokens.Enabled = override.Tokens.Enabled
	}
	if override.Tokens.Model != "" {
		merged.Tokens.Model = override.Tokens.Model
	}
	if override.Clipboard != nil {
		merged.Clipboard = override.Clipboard
	}
	if override.Footer != "" {
		merged.Footer = override.Footer
	}
	return merged
}
