// Package tokenizer estimates token counts for text destined for a language
// model.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI.
type Config struct {
	Model string
}

const (
	defaultModel        = "gpt-4o"
	defaultEncodingName = "cl100k_base"
	estimateCounterName = "estimate"
	// estimateCharsPerToken is the rough chars-per-token ratio used when no
	// encoding is available.
	estimateCharsPerToken = 4
)

// NewCounter returns a Counter for the requested model along with the
// resolved counter name. Unknown models fall back to the cl100k_base
// encoding; if tiktoken cannot be initialized at all, a character-based
// estimator is returned instead of an error.
func NewCounter(configuration Config) (Counter, string) {
	model := strings.ToLower(strings.TrimSpace(configuration.Model))
	if model == "" {
		model = defaultModel
	}

	encoding, encodingError := tiktoken.EncodingForModel(model)
	if encodingError == nil && encoding != nil {
		return openAICounter{encoding: encoding, name: model}, model
	}

	fallbackEncoding, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError == nil && fallbackEncoding != nil {
		return openAICounter{encoding: fallbackEncoding, name: defaultEncodingName}, defaultEncodingName
	}

	return estimateCounter{}, estimateCounterName
}

type openAICounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter openAICounter) Name() string {
	return counter.name
}

func (counter openAICounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, fmt.Errorf("nil tiktoken encoder")
	}
	tokenIdentifiers := counter.encoding.Encode(input, nil, nil)
	return len(tokenIdentifiers), nil
}

// estimateCounter approximates tokens at estimateCharsPerToken characters
// per token.
type estimateCounter struct{}

func (counter estimateCounter) Name() string {
	return estimateCounterName
}

func (counter estimateCounter) CountString(input string) (int, error) {
	if len(input) == 0 {
		return 0, nil
	}
	estimated := len(input) / estimateCharsPerToken
	if estimated < 1 {
		estimated = 1
	}
	return estimated, nil
}
