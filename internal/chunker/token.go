package chunker

import "strings"

// EstimateTokens gives a rough LLM token count for logging prompt sizes.
// Chunk limits are measured in characters, not with this estimate.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 1.33 tokens per English word.
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
