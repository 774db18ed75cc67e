package conversation

import "strings"

// WordTokenRatio approximates model tokens per whitespace-separated word.
const WordTokenRatio = 1.3

// EstimateTokens estimates the token count of text from its word count.
// Empty text is 0 tokens; any non-empty text is at least 1.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	tokens := int(float64(words) * WordTokenRatio)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
