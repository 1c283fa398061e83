package render_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	goldmarkast "github.com/yuin/goldmark/ast"
	goldmarktext "github.com/yuin/goldmark/text"

	"github.com/temirov/ingest/internal/render"
	"github.com/temirov/ingest/internal/types"
)

func fixtureSelectionResult(contentByPath map[string]string, languageByPath map[string]string) (types.SelectionResult, func(string) ([]byte, error)) {
	result := types.SelectionResult{
		Root:       "/workspace/project",
		Extensions: map[string]types.ExtensionStat{},
	}
	var orderedPaths []string
	for relativePath := range contentByPath {
		orderedPaths = append(orderedPaths, relativePath)
	}
	sort.Strings(orderedPaths)
	contentByAbsolutePath := map[string]string{}
	for _, relativePath := range orderedPaths {
		absolutePath := "/workspace/project/" + relativePath
		contentByAbsolutePath[absolutePath] = contentByPath[relativePath]
		result.Included = append(result.Included, types.FileRecord{
			RelativePath: relativePath,
			AbsolutePath: absolutePath,
			SizeBytes:    int64(len(contentByPath[relativePath])),
			LanguageHint: languageByPath[relativePath],
			Decision:     types.DecisionIncluded,
		})
		result.TotalFiles++
		result.TotalBytes += int64(len(contentByPath[relativePath]))
	}
	readFile := func(path string) ([]byte, error) {
		content, exists := contentByAbsolutePath[path]
		if !exists {
			return nil, fmt.Errorf("no fixture for %s", path)
		}
		return []byte(content), nil
	}
	return result, readFile
}

type fixedCounter struct {
	tokens int
}

func (counter fixedCounter) Name() string { return "fixed" }

func (counter fixedCounter) CountString(text string) (int, error) { return counter.tokens, nil }

func TestRenderDocumentSections(t *testing.T) {
	result, readFile := fixtureSelectionResult(
		map[string]string{
			"dir/x.rs": "fn x() {}\n",
			"dir/y.rs": "fn y() {}\n",
			"a.py":     "print(1)\n",
		},
		map[string]string{"dir/x.rs": "rust", "dir/y.rs": "rust", "a.py": "python"},
	)
	result.Extensions["rs"] = types.ExtensionStat{Files: 2, Bytes: 20}
	result.Extensions["py"] = types.ExtensionStat{Files: 1, Bytes: 9}

	document := render.Render(result, render.Options{ReadFile: readFile})

	if !strings.HasPrefix(document.Summary, "## Summary\n") {
		t.Fatalf("summary section missing heading:\n%s", document.Summary)
	}
	if !strings.Contains(document.Summary, "3 files, 29 B") {
		t.Fatalf("summary totals missing:\n%s", document.Summary)
	}
	if !strings.Contains(document.Summary, "- rs: 2 files, 20 B") {
		t.Fatalf("extension listing missing:\n%s", document.Summary)
	}
	if !strings.Contains(document.Tree, "project/\n") {
		t.Fatalf("tree root line missing:\n%s", document.Tree)
	}
	if !strings.Contains(document.Tree, "└── dir/") || !strings.Contains(document.Tree, "├── x.rs") {
		t.Fatalf("unexpected tree layout:\n%s", document.Tree)
	}
	if !strings.Contains(document.Contents, "### `dir/x.rs`") || !strings.Contains(document.Contents, "```rust\nfn x() {}\n```") {
		t.Fatalf("contents section missing rust chunk:\n%s", document.Contents)
	}
	if document.Truncated {
		t.Fatalf("document unexpectedly marked truncated")
	}
}

func TestRenderEmptyResult(t *testing.T) {
	result := types.SelectionResult{Root: "/workspace/empty", Extensions: map[string]types.ExtensionStat{}}
	document := render.Render(result, render.Options{})

	if !strings.Contains(document.Summary, "0 files, 0 B") {
		t.Fatalf("expected zero totals:\n%s", document.Summary)
	}
	if strings.Contains(document.Tree, "```") {
		t.Fatalf("empty tree must not contain a code block:\n%s", document.Tree)
	}
}

func TestRenderIsPure(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{"a.txt": "hello\n"}, nil)
	options := render.Options{ReadFile: readFile}

	firstDocument := render.Render(result, options)
	secondDocument := render.Render(result, options)
	if firstDocument.Document() != secondDocument.Document() {
		t.Fatalf("repeated rendering produced different documents")
	}
}

func TestRenderPerFileTruncation(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{"big.txt": strings.Repeat("a", 100)}, nil)

	document := render.Render(result, render.Options{ReadFile: readFile, MaxFileBytes: 10})
	if !strings.Contains(document.Contents, "[... truncated: maximum file size reached ...]") {
		t.Fatalf("per-file truncation marker missing:\n%s", document.Contents)
	}
	if strings.Contains(document.Contents, strings.Repeat("a", 11)) {
		t.Fatalf("truncated content exceeds the per-file cap:\n%s", document.Contents)
	}
	if document.Truncated {
		t.Fatalf("per-file truncation must not set the total truncation flag")
	}
}

func TestRenderTotalTruncation(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{
		"a.txt": strings.Repeat("a", 200),
		"b.txt": strings.Repeat("b", 200),
	}, nil)

	document := render.Render(result, render.Options{ReadFile: readFile, MaxTotalBytes: 300})
	if !document.Truncated {
		t.Fatalf("expected the total truncation flag")
	}
	if !strings.Contains(document.Contents, "[... omitted: total size limit reached ...]") {
		t.Fatalf("total truncation marker missing:\n%s", document.Contents)
	}
	if !strings.Contains(document.Contents, "### `b.txt`") {
		t.Fatalf("omitted file heading missing:\n%s", document.Contents)
	}
	if strings.Contains(document.Contents, strings.Repeat("b", 200)) {
		t.Fatalf("omitted file content leaked into the section")
	}
}

func TestRenderUnreadableFilePlaceholder(t *testing.T) {
	result, _ := fixtureSelectionResult(map[string]string{"gone.txt": ""}, nil)
	readFile := func(path string) ([]byte, error) {
		return nil, fmt.Errorf("permission denied")
	}

	document := render.Render(result, render.Options{ReadFile: readFile})
	if !strings.Contains(document.Contents, "_Unavailable at render time: permission denied._") {
		t.Fatalf("unreadable placeholder missing:\n%s", document.Contents)
	}
}

func TestRenderBinaryContentPlaceholder(t *testing.T) {
	result, _ := fixtureSelectionResult(map[string]string{"data.dat": ""}, nil)
	readFile := func(path string) ([]byte, error) {
		return []byte{'x', 0x00, 'y'}, nil
	}

	document := render.Render(result, render.Options{ReadFile: readFile})
	if !strings.Contains(document.Contents, "_Binary or undecodable content omitted._") {
		t.Fatalf("binary placeholder missing:\n%s", document.Contents)
	}
	if strings.Contains(document.Contents, "```") {
		t.Fatalf("binary chunk must not carry a fence:\n%s", document.Contents)
	}
}

func TestRenderFenceOutgrowsEmbeddedBackticks(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{"doc.md": "````\ninner\n````\n"}, nil)

	document := render.Render(result, render.Options{ReadFile: readFile})
	if !strings.Contains(document.Contents, "`````\n") {
		t.Fatalf("fence did not outgrow embedded backtick runs:\n%s", document.Contents)
	}
}

func TestRenderASCIITreeCharset(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{"dir/a.txt": "a\n", "b.txt": "b\n"}, nil)

	document := render.Render(result, render.Options{ReadFile: readFile, Charset: types.CharsetASCII})
	if !strings.Contains(document.Tree, "|-- ") || !strings.Contains(document.Tree, "`-- ") {
		t.Fatalf("ascii connectors missing:\n%s", document.Tree)
	}
	if strings.Contains(document.Tree, "├──") {
		t.Fatalf("unicode connectors leaked into an ascii tree:\n%s", document.Tree)
	}
}

func TestRenderTokenCountAppearsInSummary(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{"a.txt": "hello\n"}, nil)

	document := render.Render(result, render.Options{ReadFile: readFile, TokenCounter: fixedCounter{tokens: 42}})
	if document.Tokens != 42 || document.Model != "fixed" {
		t.Fatalf("token metadata missing: %+v", document)
	}
	if !strings.Contains(document.Summary, "Approximate tokens: 42 (fixed)") {
		t.Fatalf("token line missing from summary:\n%s", document.Summary)
	}
}

func TestRenderSkipNotesGrouping(t *testing.T) {
	result, readFile := fixtureSelectionResult(map[string]string{"a.txt": "a\n"}, nil)
	result.SkipNotes = []types.SkipNote{
		{Path: "x.bin", Reason: types.DecisionExcludedBinary},
		{Path: "y.bin", Reason: types.DecisionExcludedBinary},
		{Path: "big.log", Reason: types.DecisionExcludedTooLarge},
	}

	document := render.Render(result, render.Options{ReadFile: readFile})
	if !strings.Contains(document.Summary, "### Notes") {
		t.Fatalf("notes heading missing:\n%s", document.Summary)
	}
	if !strings.Contains(document.Summary, "- excluded-binary (2): x.bin, y.bin") {
		t.Fatalf("binary note group missing:\n%s", document.Summary)
	}
	if !strings.Contains(document.Summary, "- excluded-too-large (1): big.log") {
		t.Fatalf("oversize note group missing:\n%s", document.Summary)
	}
}

func TestRenderedDocumentIsValidMarkdown(t *testing.T) {
	result, readFile := fixtureSelectionResult(
		map[string]string{"dir/x.rs": "fn x() {}\n", "a.py": "print(1)\n"},
		map[string]string{"dir/x.rs": "rust", "a.py": "python"},
	)

	document := render.Render(result, render.Options{ReadFile: readFile, Footer: "Generated for LLM consumption."})
	source := []byte(document.Document())
	parsedDocument := goldmark.DefaultParser().Parse(goldmarktext.NewReader(source))

	levelTwoHeadings := 0
	fencedLanguages := map[string]int{}
	walkError := goldmarkast.Walk(parsedDocument, func(node goldmarkast.Node, entering bool) (goldmarkast.WalkStatus, error) {
		if !entering {
			return goldmarkast.WalkContinue, nil
		}
		switch typedNode := node.(type) {
		case *goldmarkast.Heading:
			if typedNode.Level == 2 {
				levelTwoHeadings++
			}
		case *goldmarkast.FencedCodeBlock:
			fencedLanguages[string(typedNode.Language(source))]++
		}
		return goldmarkast.WalkContinue, nil
	})
	if walkError != nil {
		t.Fatalf("walking the markdown tree: %v", walkError)
	}

	if levelTwoHeadings != 3 {
		t.Fatalf("expected 3 level-two headings, found %d", levelTwoHeadings)
	}
	if fencedLanguages["rust"] != 1 || fencedLanguages["python"] != 1 {
		t.Fatalf("unexpected fenced languages: %+v", fencedLanguages)
	}
}
