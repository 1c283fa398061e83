// Package types defines every cross-package data structure used by the ingest CLI.
package types

import "strings"

const (
	// DecisionIncluded marks a file that passed every filter.
	DecisionIncluded = "included"
	// DecisionExcludedByPattern marks a file rejected by the pattern set.
	DecisionExcludedByPattern = "excluded-by-pattern"
	// DecisionExcludedBinary marks a file rejected by binary detection.
	DecisionExcludedBinary = "excluded-binary"
	// DecisionExcludedTooLarge marks a file above the size cutoff.
	DecisionExcludedTooLarge = "excluded-too-large"

	// SkipReasonUnreadable marks a file that could not be read.
	SkipReasonUnreadable = "unreadable"
	// SkipReasonBrokenSymlink marks a symbolic link whose target cannot be resolved.
	SkipReasonBrokenSymlink = "broken-symlink"

	// CharsetUnicode selects unicode branch connectors for the rendered tree.
	CharsetUnicode = "unicode"
	// CharsetASCII selects plain ASCII branch connectors for the rendered tree.
	CharsetASCII = "ascii"

	// ExtensionNone is the histogram bucket for files without an extension.
	ExtensionNone = "<none>"
)

// FileRecord describes one discovered regular file after classification.
// Records are created once per filesystem entry and never mutated afterwards.
type FileRecord struct {
	RelativePath string
	AbsolutePath string
	SizeBytes    int64
	IsBinary     bool
	LanguageHint string
	Decision     string
}

// SkipNote records why a discovered file was left out of the output.
type SkipNote struct {
	Path   string
	Reason string
}

// ExtensionStat aggregates included files sharing one extension.
type ExtensionStat struct {
	Files int
	Bytes int64
}

// SelectionResult is the complete outcome of one selection pass. Included
// records are ordered lexicographically by relative path; skip notes preserve
// discovery order.
type SelectionResult struct {
	Root       string
	Included   []FileRecord
	Extensions map[string]ExtensionStat
	TotalFiles int
	TotalBytes int64
	SkipNotes  []SkipNote
}

// RenderedDocument holds the three Markdown sections produced by the renderer
// plus metadata about the render.
type RenderedDocument struct {
	Summary   string
	Tree      string
	Contents  string
	Footer    string
	Truncated bool
	Tokens    int
	Model     string
}

// Document concatenates the sections in their fixed order.
func (document RenderedDocument) Document() string {
	var builder strings.Builder
	builder.WriteString(document.Summary)
	builder.WriteString(document.Tree)
	builder.WriteString(document.Contents)
	if document.Footer != "" {
		builder.WriteString(document.Footer)
		if !strings.HasSuffix(document.Footer, "\n") {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}
