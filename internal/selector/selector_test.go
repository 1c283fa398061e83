package selector_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/temirov/ingest/internal/classifier"
	"github.com/temirov/ingest/internal/matcher"
	"github.com/temirov/ingest/internal/selector"
	"github.com/temirov/ingest/internal/types"
)

func writeFixtureFile(t *testing.T, rootDirectory string, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(rootDirectory, filepath.FromSlash(relativePath))
	if makeDirectoryError := os.MkdirAll(filepath.Dir(fullPath), 0o755); makeDirectoryError != nil {
		t.Fatalf("create fixture directory: %v", makeDirectoryError)
	}
	if writeError := os.WriteFile(fullPath, content, 0o644); writeError != nil {
		t.Fatalf("write fixture file %s: %v", relativePath, writeError)
	}
}

func newSelectorOptions(t *testing.T, rootDirectory string, includePatterns []string, excludePatterns []string, maxFileSizeBytes int64) selector.Options {
	t.Helper()
	patternSet, constructionError := matcher.NewPatternSet(includePatterns, excludePatterns)
	if constructionError != nil {
		t.Fatalf("construct pattern set: %v", constructionError)
	}
	return selector.Options{
		Root:       rootDirectory,
		Patterns:   patternSet,
		Classifier: classifier.NewClassifier(maxFileSizeBytes, nil),
	}
}

func TestSelectPatternExclusionShortCircuitsClassification(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFixtureFile(t, rootDirectory, "a.py", []byte("print(42)\n"))
	writeFixtureFile(t, rootDirectory, "b.bin", []byte{'x', 0x00, 'y', 'z', 0x00, 1, 2, 3, 4, 5})

	options := newSelectorOptions(t, rootDirectory, nil, []string{"*.bin"}, 0)
	result, selectionError := selector.Select(context.Background(), options)
	if selectionError != nil {
		t.Fatalf("unexpected selection error: %v", selectionError)
	}

	if len(result.Included) != 1 || result.Included[0].RelativePath != "a.py" {
		t.Fatalf("expected only a.py included, got %+v", result.Included)
	}
	if len(result.SkipNotes) != 1 {
		t.Fatalf("expected exactly one skip note, got %+v", result.SkipNotes)
	}
	note := result.SkipNotes[0]
	if note.Path != "b.bin" || note.Reason != types.DecisionExcludedByPattern {
		t.Fatalf("expected pattern skip note for b.bin, got %+v", note)
	}
}

func TestSelectOversizeFileBecomesSkipNote(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFixtureFile(t, rootDirectory, "big.txt", make([]byte, 100))

	options := newSelectorOptions(t, rootDirectory, nil, nil, 5)
	result, selectionError := selector.Select(context.Background(), options)
	if selectionError != nil {
		t.Fatalf("unexpected selection error: %v", selectionError)
	}

	if result.TotalFiles != 0 {
		t.Fatalf("expected no included files, got %d", result.TotalFiles)
	}
	if len(result.SkipNotes) != 1 || result.SkipNotes[0].Reason != types.DecisionExcludedTooLarge {
		t.Fatalf("expected excluded-too-large skip note, got %+v", result.SkipNotes)
	}
	if len(result.Extensions) != 0 {
		t.Fatalf("oversize file must not enter the extension histogram: %+v", result.Extensions)
	}
}

func TestSelectEmptyDirectory(t *testing.T) {
	rootDirectory := t.TempDir()

	options := newSelectorOptions(t, rootDirectory, nil, nil, 0)
	result, selectionError := selector.Select(context.Background(), options)
	if selectionError != nil {
		t.Fatalf("unexpected selection error: %v", selectionError)
	}

	if result.TotalFiles != 0 || result.TotalBytes != 0 {
		t.Fatalf("expected empty result, got %d files and %d bytes", result.TotalFiles, result.TotalBytes)
	}
	if len(result.SkipNotes) != 0 {
		t.Fatalf("expected no skip notes, got %+v", result.SkipNotes)
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFixtureFile(t, rootDirectory, "dir/x.rs", []byte("fn x() {}\n"))
	writeFixtureFile(t, rootDirectory, "dir/y.rs", []byte("fn y() {}\n"))
	writeFixtureFile(t, rootDirectory, "a.py", []byte("print(1)\n"))
	writeFixtureFile(t, rootDirectory, "noext", []byte("plain\n"))

	options := newSelectorOptions(t, rootDirectory, nil, nil, 0)
	firstResult, firstError := selector.Select(context.Background(), options)
	if firstError != nil {
		t.Fatalf("unexpected selection error: %v", firstError)
	}
	secondResult, secondError := selector.Select(context.Background(), options)
	if secondError != nil {
		t.Fatalf("unexpected selection error: %v", secondError)
	}

	if !reflect.DeepEqual(firstResult, secondResult) {
		t.Fatalf("repeated selection produced different results:\nfirst: %+v\nsecond: %+v", firstResult, secondResult)
	}

	expectedOrder := []string{"a.py", "dir/x.rs", "dir/y.rs", "noext"}
	var actualOrder []string
	for _, record := range firstResult.Included {
		actualOrder = append(actualOrder, record.RelativePath)
	}
	if !reflect.DeepEqual(actualOrder, expectedOrder) {
		t.Fatalf("included order = %v, expected %v", actualOrder, expectedOrder)
	}
}

func TestSelectExtensionHistogram(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFixtureFile(t, rootDirectory, "dir/x.rs", []byte("fn x() {}\n"))
	writeFixtureFile(t, rootDirectory, "dir/y.RS", []byte("fn y() {}\n"))
	writeFixtureFile(t, rootDirectory, "noext", []byte("plain\n"))

	options := newSelectorOptions(t, rootDirectory, nil, nil, 0)
	result, selectionError := selector.Select(context.Background(), options)
	if selectionError != nil {
		t.Fatalf("unexpected selection error: %v", selectionError)
	}

	rustStat := result.Extensions["rs"]
	if rustStat.Files != 2 {
		t.Fatalf("expected 2 rust files in the histogram, got %+v", result.Extensions)
	}
	if _, exists := result.Extensions[types.ExtensionNone]; !exists {
		t.Fatalf("expected a %s bucket, got %+v", types.ExtensionNone, result.Extensions)
	}

	var includedBytes int64
	for _, record := range result.Included {
		includedBytes += record.SizeBytes
	}
	if result.TotalBytes != includedBytes {
		t.Fatalf("total bytes %d do not match the record sum %d", result.TotalBytes, includedBytes)
	}
}

func TestSelectPrunesHiddenAndVCSEntries(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFixtureFile(t, rootDirectory, ".git/config", []byte("[core]\n"))
	writeFixtureFile(t, rootDirectory, ".hidden", []byte("secret\n"))
	writeFixtureFile(t, rootDirectory, "node_modules/lib/index.js", []byte("module.exports = {}\n"))
	writeFixtureFile(t, rootDirectory, "src/main.go", []byte("package main\n"))

	options := newSelectorOptions(t, rootDirectory, nil, matcher.DefaultExcludePatterns, 0)
	result, selectionError := selector.Select(context.Background(), options)
	if selectionError != nil {
		t.Fatalf("unexpected selection error: %v", selectionError)
	}

	if len(result.Included) != 1 || result.Included[0].RelativePath != "src/main.go" {
		t.Fatalf("expected only src/main.go included, got %+v", result.Included)
	}
	// Pruned directories disappear silently; only the hidden file at the
	// root produces a skip note.
	for _, note := range result.SkipNotes {
		if note.Path != ".hidden" {
			t.Fatalf("unexpected skip note: %+v", note)
		}
	}
}

func TestSelectMissingRootIsFatal(t *testing.T) {
	missingRoot := filepath.Join(t.TempDir(), "missing")

	options := newSelectorOptions(t, missingRoot, nil, nil, 0)
	if _, selectionError := selector.Select(context.Background(), options); selectionError == nil {
		t.Fatalf("expected an error for a missing root path")
	}
}

func TestSelectBrokenSymlinkBecomesSkipNote(t *testing.T) {
	rootDirectory := t.TempDir()
	writeFixtureFile(t, rootDirectory, "a.txt", []byte("content\n"))
	symlinkPath := filepath.Join(rootDirectory, "dangling")
	if symlinkError := os.Symlink(filepath.Join(rootDirectory, "gone"), symlinkPath); symlinkError != nil {
		t.Skipf("symlinks unsupported: %v", symlinkError)
	}

	options := newSelectorOptions(t, rootDirectory, nil, nil, 0)
	result, selectionError := selector.Select(context.Background(), options)
	if selectionError != nil {
		t.Fatalf("unexpected selection error: %v", selectionError)
	}

	if len(result.Included) != 1 || result.Included[0].RelativePath != "a.txt" {
		t.Fatalf("expected only a.txt included, got %+v", result.Included)
	}
	if len(result.SkipNotes) != 1 || result.SkipNotes[0].Reason != types.SkipReasonBrokenSymlink {
		t.Fatalf("expected broken-symlink skip note, got %+v", result.SkipNotes)
	}
}
