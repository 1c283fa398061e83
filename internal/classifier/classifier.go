// Package classifier decides how discovered files are treated: binary versus
// text, fence language hint, and whether a file exceeds the size cutoff.
package classifier

import (
	"path"
	"strings"

	"github.com/temirov/ingest/internal/types"
	"github.com/temirov/ingest/internal/utils"
)

// DefaultMaxFileSizeBytes is the size cutoff applied when no explicit value
// is configured.
const DefaultMaxFileSizeBytes = 512 * 1024

// Classification is the outcome of classifying one file.
type Classification struct {
	IsBinary     bool
	LanguageHint string
	Decision     string
}

// Classifier applies binary detection, language hinting, and the size cutoff.
// The language table is injected at construction and never mutated, so tests
// can substitute custom mappings.
type Classifier struct {
	maxFileSizeBytes    int64
	languageByExtension map[string]string
	binaryExtensions    map[string]struct{}
}

// NewClassifier constructs a Classifier. A non-positive maxFileSizeBytes
// falls back to DefaultMaxFileSizeBytes and a nil language table falls back
// to DefaultLanguageByExtension.
func NewClassifier(maxFileSizeBytes int64, languageByExtension map[string]string) *Classifier {
	if maxFileSizeBytes <= 0 {
		maxFileSizeBytes = DefaultMaxFileSizeBytes
	}
	if languageByExtension == nil {
		languageByExtension = DefaultLanguageByExtension
	}
	return &Classifier{
		maxFileSizeBytes:    maxFileSizeBytes,
		languageByExtension: languageByExtension,
		binaryExtensions:    defaultBinaryExtensions,
	}
}

// MaxFileSizeBytes returns the configured size cutoff.
func (fileClassifier *Classifier) MaxFileSizeBytes() int64 {
	return fileClassifier.maxFileSizeBytes
}

// NeedsSample reports whether Classify requires sample bytes for the file.
// Files above the size cutoff and files with a known binary extension are
// decided without reading them.
func (fileClassifier *Classifier) NeedsSample(relativePath string, sizeBytes int64) bool {
	if sizeBytes > fileClassifier.maxFileSizeBytes {
		return false
	}
	_, knownBinary := fileClassifier.binaryExtensions[lowercaseExtension(relativePath)]
	return !knownBinary
}

// Classify determines the classification for the file at relativePath with
// the given size and content sample. The size cutoff is applied regardless
// of content; binary detection inspects the sample.
func (fileClassifier *Classifier) Classify(relativePath string, sizeBytes int64, sample []byte) Classification {
	extension := lowercaseExtension(relativePath)

	if sizeBytes > fileClassifier.maxFileSizeBytes {
		return Classification{Decision: types.DecisionExcludedTooLarge}
	}

	if _, knownBinary := fileClassifier.binaryExtensions[extension]; knownBinary {
		return Classification{IsBinary: true, Decision: types.DecisionExcludedBinary}
	}

	if utils.IsBinary(sample) {
		return Classification{IsBinary: true, Decision: types.DecisionExcludedBinary}
	}

	return Classification{
		LanguageHint: fileClassifier.languageByExtension[extension],
		Decision:     types.DecisionIncluded,
	}
}

func lowercaseExtension(relativePath string) string {
	return strings.ToLower(path.Ext(relativePath))
}
