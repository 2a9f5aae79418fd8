// Package token counts prompt and reply sizes in model tokens, for logging
// and for the per-message accounting persisted with chat transcripts.
package token

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Common encoding names
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo, text-embedding-3-*
	EncodingO200kBase  = "o200k_base"  // GPT-4o and GPT-4.1 models
)

// Counter reports the number of model tokens in a text.
type Counter interface {
	// CountTokens returns the number of tokens in the text.
	CountTokens(text string) int
}

// Model to encoding mapping. Prefixes cover dated snapshot names.
var modelEncodingPrefixes = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", EncodingO200kBase},
	{"gpt-4.1", EncodingO200kBase},
	{"gpt-4", EncodingCL100kBase},
	{"gpt-3.5", EncodingCL100kBase},
	{"gpt-35", EncodingCL100kBase}, // Azure naming
	{"text-embedding-3", EncodingCL100kBase},
	{"text-embedding-ada", EncodingCL100kBase},
}

// GetEncodingForModel returns the encoding name for a given model.
// Unknown models default to o200k_base, the encoding of current models.
func GetEncodingForModel(model string) string {
	for _, m := range modelEncodingPrefixes {
		if strings.HasPrefix(model, m.prefix) {
			return m.encoding
		}
	}
	return EncodingO200kBase
}

// TiktokenCounter counts tokens with a tiktoken encoding.
type TiktokenCounter struct {
	encoding     *tiktoken.Tiktoken
	encodingName string
}

// NewCounterForModel creates a counter using the encoding for the given model.
func NewCounterForModel(model string) (*TiktokenCounter, error) {
	return NewCounterForEncoding(GetEncodingForModel(model))
}

// NewCounterForEncoding creates a counter using a specific encoding name.
func NewCounterForEncoding(encodingName string) (*TiktokenCounter, error) {
	if encodingName == "" {
		encodingName = EncodingO200kBase
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}
	return &TiktokenCounter{
		encoding:     enc,
		encodingName: encodingName,
	}, nil
}

// CountTokens returns the number of tokens in the text.
func (t *TiktokenCounter) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// EncodingName returns the encoding name.
func (t *TiktokenCounter) EncodingName() string {
	return t.encodingName
}

var _ Counter = (*TiktokenCounter)(nil)
