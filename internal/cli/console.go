package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/temirov/ingest/internal/tokenizer"
	"github.com/temirov/ingest/internal/types"
)

// timingResolution rounds stage durations for display.
const timingResolution = 100 * time.Microsecond

// clipboardState describes the clipboard outcome in the console report.
type clipboardState string

const (
	clipboardNotRequested clipboardState = ""
	clipboardCopied       clipboardState = "copied"
	clipboardFailed       clipboardState = "failed"
)

// consoleReport holds everything the post-run console summary prints.
type consoleReport struct {
	root            string
	result          types.SelectionResult
	document        types.RenderedDocument
	outputPath      string
	clipboardState  clipboardState
	fileTokenCounts map[string]int
	timings         *stageTimings
}

// annotateFileTokens counts tokens per included file for the console report.
// Files that cannot be read or that hold binary data are left unannotated.
func annotateFileTokens(counter tokenizer.Counter, included []types.FileRecord) map[string]int {
	annotations := make(map[string]int, len(included))
	for _, record := range included {
		data, readError := os.ReadFile(record.AbsolutePath)
		if readError != nil {
			continue
		}
		countResult, countError := tokenizer.CountBytes(counter, data)
		if countError != nil || !countResult.Counted {
			continue
		}
		annotations[record.RelativePath] = countResult.Tokens
	}
	return annotations
}

// reportColors defines the color scheme for the console report: cyan labels,
// plain values, yellow warnings.
type reportColors struct {
	label *color.Color
	value *color.Color
	warn  *color.Color
}

func newReportColors() *reportColors {
	return &reportColors{
		label: color.New(color.FgCyan),
		value: color.New(color.FgWhite),
		warn:  color.New(color.FgYellow),
	}
}

// printConsoleReport writes the post-run summary to the writer. Colors are
// disabled when the writer is not a terminal.
func printConsoleReport(writer io.Writer, report consoleReport) {
	restoreColorState := disableColorsForNonTerminal(writer)
	defer restoreColorState()

	colors := newReportColors()

	fmt.Fprintf(writer, "%s %s, %s",
		colors.label.Sprint("ingested:"),
		colors.value.Sprint(pluralizeFiles(report.result.TotalFiles)),
		colors.value.Sprint(humanize.Bytes(uint64(report.result.TotalBytes))),
	)
	if report.document.Tokens > 0 {
		fmt.Fprintf(writer, ", %s", colors.value.Sprintf("~%d tokens (%s)", report.document.Tokens, report.document.Model))
	}
	fmt.Fprintln(writer)

	if len(report.fileTokenCounts) > 0 {
		for _, record := range report.result.Included {
			tokens, annotated := report.fileTokenCounts[record.RelativePath]
			if !annotated {
				continue
			}
			fmt.Fprintf(writer, "  %s %s\n",
				colors.value.Sprint(record.RelativePath),
				colors.label.Sprintf("~%d tokens", tokens),
			)
		}
	}

	if len(report.result.SkipNotes) > 0 {
		fmt.Fprintf(writer, "%s %s\n",
			colors.label.Sprint("skipped:"),
			colors.value.Sprint(pluralizeFiles(len(report.result.SkipNotes))),
		)
	}
	if report.document.Truncated {
		fmt.Fprintln(writer, colors.warn.Sprint("document truncated at the total size limit"))
	}

	var stageParts []string
	for _, stageName := range report.timings.order {
		stageParts = append(stageParts, fmt.Sprintf("%s %s", stageName, report.timings.durations[stageName].Round(timingResolution)))
	}
	if len(stageParts) > 0 {
		fmt.Fprintf(writer, "%s %s\n", colors.label.Sprint("stages:"), colors.value.Sprint(strings.Join(stageParts, ", ")))
	}

	destination := "stdout"
	if report.outputPath != "" && report.outputPath != "-" {
		destination = report.outputPath
	}
	line := fmt.Sprintf("%s %s", colors.label.Sprint("output:"), colors.value.Sprint(destination))
	switch report.clipboardState {
	case clipboardCopied:
		line += fmt.Sprintf(" (%s)", colors.value.Sprint("clipboard: copied"))
	case clipboardFailed:
		line += fmt.Sprintf(" (%s)", colors.warn.Sprint("clipboard: failed"))
	}
	fmt.Fprintln(writer, line)
}

func pluralizeFiles(count int) string {
	if count == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", count)
}

// disableColorsForNonTerminal turns colors off when the writer is not a TTY
// and returns a function restoring the previous state.
func disableColorsForNonTerminal(writer io.Writer) func() {
	previousNoColor := color.NoColor
	fileWriter, isFile := writer.(*os.File)
	if !isFile || !isatty.IsTerminal(fileWriter.Fd()) {
		color.NoColor = true
	}
	return func() { color.NoColor = previousNoColor }
}
