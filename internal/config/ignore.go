package config

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/temirov/ingest/internal/utils"
)

// LoadIgnoreFilePatterns reads an ignore file and returns its patterns
// normalized into glob form. Blank lines, comments, and negation lines are
// skipped. A missing file yields no patterns and no error.
//
// #nosec G304
func LoadIgnoreFilePatterns(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var patterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") {
			continue
		}
		// Negation patterns have no glob equivalent here; re-including an
		// ignored path is handled through explicit include patterns instead.
		if strings.HasPrefix(trimmedLine, "!") {
			continue
		}
		patterns = append(patterns, normalizeIgnoreLine(trimmedLine))
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patterns, nil
}

// normalizeIgnoreLine converts one gitignore-style line into a doublestar
// glob: a trailing slash marks a directory and matches its whole subtree,
// and a separator-free pattern applies at any depth.
func normalizeIgnoreLine(line string) string {
	normalized := strings.TrimPrefix(line, "./")
	normalized = strings.TrimPrefix(normalized, "/")
	if strings.HasSuffix(normalized, "/") {
		normalized += "**"
	}
	if !strings.Contains(normalized, "/") {
		normalized = "**/" + normalized
	}
	return normalized
}

// LoadRecursiveIgnorePatterns walks rootDirectoryPath and aggregates patterns
// from utils.GitIgnoreFileName and utils.IngestIgnoreFileName in every nested
// directory. Patterns found below the root are prefixed with that directory's
// relative path so they stay anchored where they were declared.
func LoadRecursiveIgnorePatterns(rootDirectoryPath string, useGitignore bool, useIgnoreFile bool) ([]string, error) {
	var aggregatedPatterns []string

	walkFunction := func(currentDirectoryPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			if currentDirectoryPath == rootDirectoryPath {
				return walkError
			}
			if directoryEntry != nil && directoryEntry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		if directoryEntry.Name() == utils.GitDirectoryName {
			return filepath.SkipDir
		}

		relativeDirectory := utils.RelativePathOrSelf(currentDirectoryPath, rootDirectoryPath)
		prefix := ""
		if relativeDirectory != "." {
			prefix = relativeDirectory + "/"
		}

		ignoreFileNames := []string{}
		if useIgnoreFile {
			ignoreFileNames = append(ignoreFileNames, utils.IngestIgnoreFileName)
		}
		if useGitignore {
			ignoreFileNames = append(ignoreFileNames, utils.GitIgnoreFileName)
		}

		for _, ignoreFileName := range ignoreFileNames {
			ignoreFilePath := filepath.Join(currentDirectoryPath, ignoreFileName)
			filePatterns, loadError := LoadIgnoreFilePatterns(ignoreFilePath)
			if loadError != nil {
				return fmt.Errorf("loading %s from %s: %w", ignoreFileName, currentDirectoryPath, loadError)
			}
			for _, pattern := range filePatterns {
				aggregatedPatterns = append(aggregatedPatterns, prefix+pattern)
			}
		}
		return nil
	}

	if walkError := filepath.WalkDir(rootDirectoryPath, walkFunction); walkError != nil {
		return nil, walkError
	}

	return utils.DeduplicatePatterns(aggregatedPatterns), nil
}
