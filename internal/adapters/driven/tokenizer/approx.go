// Package tokenizer provides token counting for chunk sizing.
package tokenizer

import (
	"unicode/utf8"

	"github.com/prism-labs/prism-cli/internal/core/ports/driven"
)

// Ensure Approx implements the interface.
var _ driven.TokenCounter = (*Approx)(nil)

// charsPerToken is the rough characters-per-token ratio for English
// prose under cl100k-style encodings.
const charsPerToken = 4

// Approx is the character-based token estimate used when no real
// tokenizer is wired in. It over- and under-counts individual texts but
// is stable, cheap and close enough to drive split decisions.
type Approx struct{}

// NewApprox creates the approximate counter.
func NewApprox() *Approx {
	return &Approx{}
}

// CountTokens estimates the token count as one token per four runes.
func (a *Approx) CountTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}
