package driven

// TokenCounter maps text to an integer token count. Token counting, not
// character counting, drives chunk split decisions and overlap sizing.
//
// Implementations may wrap a real tokenizer or fall back to an
// approximate character-based estimate.
type TokenCounter interface {
	// CountTokens returns the token count for the text.
	CountTokens(text string) int
}
