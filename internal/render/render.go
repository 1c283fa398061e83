// Package render turns a selection result into the three Markdown sections:
// Summary, Directory Tree, and File Contents. Rendering is a pure function of
// its inputs; repeated calls produce identical bytes.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

const (
	// DefaultTopExtensions limits the extension listing in the Summary.
	DefaultTopExtensions = 5
	// DefaultMaxTotalBytes caps the byte size of the Contents section.
	DefaultMaxTotalBytes = 10 * 1024 * 1024

	summaryHeading  = "## Summary\n\n"
	treeHeading     = "## Directory Tree\n\n"
	contentsHeading = "## File Contents\n\n"

	fileTruncatedMarker  = "[... truncated: maximum file size reached ...]"
	totalTruncatedMarker = "[... omitted: total size limit reached ...]"
	binaryPlaceholder    = "_Binary or undecodable content omitted._"
	unreadableFormat     = "_Unavailable at render time: %v._"
)

// Options controls rendering. ReadFile defaults to os.ReadFile and exists so
// tests can stub read failures; TokenCounter is optional.
type Options struct {
	TopExtensions int
	Charset       string
	MaxFileBytes  int64
	MaxTotalBytes int64
	Footer        string
	TokenCounter  tokenizer.Counter
	TokenModel    string
	ReadFile      func(path string) ([]byte, error)
}

func (options Options) withDefaults() Options {
	if options.TopExtensions <= 0 {
		options.TopExtensions = DefaultTopExtensions
	}
	if options.Charset == "" {
		options.Charset = types.CharsetUnicode
	}
	if options.MaxTotalBytes <= 0 {
		options.MaxTotalBytes = DefaultMaxTotalBytes
	}
	if options.ReadFile == nil {
		options.ReadFile = os.ReadFile
	}
	return options
}

// Render produces the three sections for the selection result.
func Render(result types.SelectionResult, options Options) types.RenderedDocument {
	options = options.withDefaults()

	treeSection := renderTreeSection(result, options)
	contentsSection, truncated := renderContentsSection(result, options)

	document := types.RenderedDocument{
		Tree:      treeSection,
		Contents:  contentsSection,
		Footer:    options.Footer,
		Truncated: truncated,
	}

	if options.TokenCounter != nil {
		if tokens, countError := options.TokenCounter.CountString(treeSection + contentsSection); countError == nil {
			document.Tokens = tokens
			document.Model = options.TokenCounter.Name()
		}
	}

	document.Summary = renderSummarySection(result, options, document)
	return document
}

// renderSummarySection builds the Summary: totals, top extensions by byte
// total, and skip notes grouped by reason.
func renderSummarySection(result types.SelectionResult, options Options, document types.RenderedDocument) string {
	var builder strings.Builder
	builder.WriteString(summaryHeading)

	builder.WriteString(fmt.Sprintf("%s, %s\n", pluralizeFiles(result.TotalFiles), humanize.Bytes(uint64(result.TotalBytes))))
	if document.Tokens > 0 {
		builder.WriteString(fmt.Sprintf("Approximate tokens: %d (%s)\n", document.Tokens, document.Model))
	}
	builder.WriteString("\n")

	topExtensions := rankExtensions(result.Extensions, options.TopExtensions)
	if len(topExtensions) > 0 {
		builder.WriteString("Top extensions by size:\n\n")
		for _, entry := range topExtensions {
			builder.WriteString(fmt.Sprintf("- %s: %s, %s\n", entry.extension, pluralizeFiles(entry.stat.Files), humanize.Bytes(uint64(entry.stat.Bytes))))
		}
		builder.WriteString("\n")
	}

	if len(result.SkipNotes) > 0 {
		builder.WriteString("### Notes\n\n")
		for _, group := range groupSkipNotes(result.SkipNotes) {
			builder.WriteString(fmt.Sprintf("- %s (%d): %s\n", group.reason, len(group.paths), strings.Join(group.paths, ", ")))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func renderTreeSection(result types.SelectionResult, options Options) string {
	var builder strings.Builder
	builder.WriteString(treeHeading)
	if len(result.Included) == 0 {
		return builder.String()
	}
	builder.WriteString("```text\n")
	writeTree(&builder, filepath.Base(result.Root), buildTree(result.Included), options.Charset)
	builder.WriteString("```\n\n")
	return builder.String()
}

// renderContentsSection emits one heading and fenced block per included file
// in path order. Read failures and undecodable content become inline
// placeholder notes; the per-file and total byte caps insert truncation
// markers. Returns the section and whether the total cap was reached.
func renderContentsSection(result types.SelectionResult, options Options) (string, bool) {
	var builder strings.Builder
	builder.WriteString(contentsHeading)

	emittedBytes := int64(len(contentsHeading))
	for _, record := range result.Included {
		chunk := renderFileChunk(record, options)
		chunkLength := int64(len(chunk))
		if emittedBytes+chunkLength > options.MaxTotalBytes {
			builder.WriteString(fileHeading(record))
			builder.WriteString(totalTruncatedMarker + "\n\n")
			return builder.String(), true
		}
		builder.WriteString(chunk)
		emittedBytes += chunkLength
	}
	return builder.String(), false
}

func renderFileChunk(record types.FileRecord, options Options) string {
	var builder strings.Builder
	builder.WriteString(fileHeading(record))

	data, readError := options.ReadFile(record.AbsolutePath)
	if readError != nil {
		builder.WriteString(fmt.Sprintf(unreadableFormat, readErrorCause(readError)) + "\n\n")
		return builder.String()
	}
	if utils.IsBinary(data) || !utf8.Valid(data) {
		builder.WriteString(binaryPlaceholder + "\n\n")
		return builder.String()
	}

	content := string(data)
	fileTruncated := false
	if options.MaxFileBytes > 0 && int64(len(data)) > options.MaxFileBytes {
		content = strings.ToValidUTF8(string(data[:options.MaxFileBytes]), "")
		fileTruncated = true
	}

	fence := fenceFor(content)
	builder.WriteString(fence)
	if record.LanguageHint != "" {
		builder.WriteString(record.LanguageHint)
	}
	builder.WriteString("\n")
	builder.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		builder.WriteString("\n")
	}
	if fileTruncated {
		builder.WriteString(fileTruncatedMarker + "\n")
	}
	builder.WriteString(fence + "\n\n")
	return builder.String()
}

func fileHeading(record types.FileRecord) string {
	return fmt.Sprintf("### `%s`\n\n", record.RelativePath)
}

// fenceFor picks a backtick fence longer than any backtick run in the
// content so embedded Markdown cannot break the block.
func fenceFor(content string) string {
	longestRun := 0
	currentRun := 0
	for _, character := range content {
		if character == '`' {
			currentRun++
			if currentRun > longestRun {
				longestRun = currentRun
			}
		} else {
			currentRun = 0
		}
	}
	fenceLength := 3
	if longestRun >= fenceLength {
		fenceLength = longestRun + 1
	}
	return strings.Repeat("`", fenceLength)
}

// readErrorCause strips the path prefix from os errors so the placeholder
// stays single-line and stable.
func readErrorCause(readError error) string {
	if pathError, isPathError := readError.(*os.PathError); isPathError {
		return pathError.Err.Error()
	}
	return readError.Error()
}

type extensionRanking struct {
	extension string
	stat      types.ExtensionStat
}

// rankExtensions orders extensions by byte total descending, then file count
// descending, then alphabetically, and keeps the top limit entries.
func rankExtensions(extensions map[string]types.ExtensionStat, limit int) []extensionRanking {
	ranked := make([]extensionRanking, 0, len(extensions))
	for extension, stat := range extensions {
		ranked = append(ranked, extensionRanking{extension: extension, stat: stat})
	}
	sort.Slice(ranked, func(firstIndex, secondIndex int) bool {
		first, second := ranked[firstIndex], ranked[secondIndex]
		if first.stat.Bytes != second.stat.Bytes {
			return first.stat.Bytes > second.stat.Bytes
		}
		if first.stat.Files != second.stat.Files {
			return first.stat.Files > second.stat.Files
		}
		return first.extension < second.extension
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

type skipGroup struct {
	reason string
	paths  []string
}

// groupSkipNotes groups notes by reason preserving first-appearance order of
// reasons and discovery order of paths.
func groupSkipNotes(notes []types.SkipNote) []skipGroup {
	groupIndexByReason := map[string]int{}
	var groups []skipGroup
	for _, note := range notes {
		groupIndex, exists := groupIndexByReason[note.Reason]
		if !exists {
			groupIndex = len(groups)
			groupIndexByReason[note.Reason] = groupIndex
			groups = append(groups, skipGroup{reason: note.Reason})
		}
		groups[groupIndex].paths = append(groups[groupIndex].paths, note.Path)
	}
	return groups
}

func pluralizeFiles(count int) string {
	if count == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", count)
}
