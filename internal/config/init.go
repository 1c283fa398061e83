package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/ingest/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `# ingest configuration
include: []
exclude: []
use_default_excludes: true
use_gitignore: true
use_ignore: true
max_file_size: 524288
max_total_size: 10485760
top_extensions: 5
charset: unicode
tokens:
  enabled: false
  model: gpt-4o
clipboard: false
footer: ""
`
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes the default configuration to the requested
// target and returns the written path. Existing files are preserved unless
// Force is set.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}

	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			currentDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", workingDirectoryError)
			}
			workingDirectory = currentDirectory
		}
		destinationPath = filepath.Join(workingDirectory, utils.ConfigFileName)
	case InitTargetGlobal:
		homeDirectory, homeError := os.UserHomeDir()
		if homeError != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", homeError)
		}
		destinationDirectory := filepath.Join(homeDirectory, filepath.FromSlash(utils.GlobalConfigDirectoryName))
		if makeDirectoryError := os.MkdirAll(destinationDirectory, 0o755); makeDirectoryError != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", destinationDirectory, makeDirectoryError)
		}
		destinationPath = filepath.Join(destinationDirectory, utils.ConfigFileName)
	default:
		return "", fmt.Errorf("unknown configuration target %q", target)
	}

	if !options.Force {
		if _, statError := os.Stat(destinationPath); statError == nil {
			return "", fmt.Errorf("configuration %s already exists; use --force to overwrite", destinationPath)
		}
	}

	if writeError := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), 0o644); writeError != nil {
		return "", fmt.Errorf("write configuration %s: %w", destinationPath, writeError)
	}
	return destinationPath, nil
}
