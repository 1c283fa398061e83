// Package matcher decides whether slash-separated relative paths match
// glob-style include and exclude pattern sets.
package matcher

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// errorInvalidPatternFormat reports a malformed glob at construction time.
const errorInvalidPatternFormat = "invalid pattern %q: %w"

// DefaultExcludePatterns covers hidden entries, VCS metadata, and common
// heavy build or dependency directories. Directory patterns appear in two
// forms so that both the directory itself and its descendants match.
var DefaultExcludePatterns = []string{
	"**/.*",
	"**/.*/**",
	"**/node_modules",
	"**/node_modules/**",
	"**/__pycache__",
	"**/__pycache__/**",
	"**/venv",
	"**/venv/**",
	"**/dist",
	"**/dist/**",
	"**/build",
	"**/build/**",
	"**/out",
	"**/out/**",
	"**/target",
	"**/target/**",
}

// PatternSet holds validated include and exclude globs. A path is matched
// when it satisfies at least one include pattern (an empty include list
// matches everything) and no exclude pattern. Exclude always wins.
// PatternSet is immutable once constructed.
type PatternSet struct {
	includePatterns []string
	excludePatterns []string
	includeHints    map[string]struct{}
}

// NewPatternSet validates and normalizes the provided globs. Bare wildcard
// patterns such as *.py are expanded to **/*.py so they match in
// subdirectories. A malformed pattern fails construction immediately.
func NewPatternSet(includePatterns []string, excludePatterns []string) (*PatternSet, error) {
	normalizedIncludes, includeError := normalizePatterns(includePatterns)
	if includeError != nil {
		return nil, includeError
	}
	normalizedExcludes, excludeError := normalizePatterns(excludePatterns)
	if excludeError != nil {
		return nil, excludeError
	}
	return &PatternSet{
		includePatterns: normalizedIncludes,
		excludePatterns: normalizedExcludes,
		includeHints:    extractDirectoryHints(includePatterns),
	}, nil
}

// Matches reports whether the relative path passes the pattern set.
func (patternSet *PatternSet) Matches(relativePath string) bool {
	if matchesAny(patternSet.excludePatterns, relativePath) {
		return false
	}
	if len(patternSet.includePatterns) == 0 {
		return true
	}
	return matchesAny(patternSet.includePatterns, relativePath)
}

// ExcludesDirectory reports whether traversal may prune the directory at the
// relative path entirely. A directory named by an include pattern segment is
// never pruned so explicit includes can reach inside default-excluded trees.
func (patternSet *PatternSet) ExcludesDirectory(relativePath string) bool {
	segments := strings.Split(relativePath, "/")
	baseName := segments[len(segments)-1]
	if _, hinted := patternSet.includeHints[baseName]; hinted {
		return false
	}
	return matchesAny(patternSet.excludePatterns, relativePath)
}

// IncludePatterns returns a copy of the normalized include globs.
func (patternSet *PatternSet) IncludePatterns() []string {
	return append([]string(nil), patternSet.includePatterns...)
}

// ExcludePatterns returns a copy of the normalized exclude globs.
func (patternSet *PatternSet) ExcludePatterns() []string {
	return append([]string(nil), patternSet.excludePatterns...)
}

func matchesAny(patterns []string, relativePath string) bool {
	for _, pattern := range patterns {
		// Patterns are validated at construction; doublestar only errors
		// on malformed globs.
		matched, _ := doublestar.Match(pattern, relativePath)
		if matched {
			return true
		}
	}
	return false
}

func normalizePatterns(patterns []string) ([]string, error) {
	normalized := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		trimmedPattern := strings.TrimSpace(pattern)
		if trimmedPattern == "" {
			continue
		}
		expandedPattern := expandBarePattern(trimmedPattern)
		if !doublestar.ValidatePattern(expandedPattern) {
			return nil, fmt.Errorf(errorInvalidPatternFormat, pattern, doublestar.ErrBadPattern)
		}
		normalized = append(normalized, expandedPattern)
	}
	return normalized, nil
}

// expandBarePattern turns segment-local wildcard masks like *.py into
// **/*.py so they apply at any depth.
func expandBarePattern(pattern string) string {
	hasWildcard := strings.ContainsAny(pattern, "*?[")
	if hasWildcard && !strings.Contains(pattern, "/") {
		return "**/" + pattern
	}
	return pattern
}

// extractDirectoryHints pulls literal path segments from include patterns.
func extractDirectoryHints(includePatterns []string) map[string]struct{} {
	hints := make(map[string]struct{})
	for _, pattern := range includePatterns {
		for _, segment := range strings.Split(strings.ReplaceAll(pattern, "\\", "/"), "/") {
			if segment == "" || segment == "." {
				continue
			}
			if strings.ContainsAny(segment, "*?[]") {
				continue
			}
			hints[segment] = struct{}{}
		}
	}
	return hints
}
