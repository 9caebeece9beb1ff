// Package tokenizer estimates token counts for digest text.
package tokenizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters.
type Config struct {
	Model string
}

const (
	// defaultEncodingName is the encoding used for estimation when no model
	// is requested or the requested model is unknown. It matches the gpt-4o
	// family of models.
	defaultEncodingName = "o200k_base"
)

// NewCounter returns a Counter for the requested model together with the
// resolved model or encoding name. Unknown models fall back to the default
// encoding rather than failing, because estimates only need to be
// approximate.
func NewCounter(configuration Config) (Counter, string, error) {
	model := strings.ToLower(strings.TrimSpace(configuration.Model))
	if model != "" {
		encoding, encodingError := tiktoken.EncodingForModel(model)
		if encodingError == nil && encoding != nil {
			return encodingCounter{encoding: encoding, name: model}, model, nil
		}
	}
	fallback, fallbackError := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackError != nil {
		return nil, "", fmt.Errorf("initialize tokenizer encoding %s: %w", defaultEncodingName, fallbackError)
	}
	return encodingCounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

type encodingCounter struct {
	encoding *tiktoken.Tiktoken
	name     string
}

func (counter encodingCounter) Name() string {
	return counter.name
}

func (counter encodingCounter) CountString(input string) (int, error) {
	if counter.encoding == nil {
		return 0, errors.New("nil tiktoken encoder")
	}
	tokenIdentifiers := counter.encoding.Encode(input, nil, nil)
	return len(tokenIdentifiers), nil
}
