// Package chunker packs flattened document text into size-bounded chunks on
// word boundaries and joins rewritten chunks back into one stream.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the chunk limit, in characters, used when none is
// configured.
const DefaultMaxChunkSize = 1500

// Chunk is one size-bounded piece of the flattened text.
type Chunk struct {
	Index int
	Text  string

	// LeadingBreaks is the number of line boundaries between the previous
	// chunk and this one. Zero means the chunk continues the previous line.
	LeadingBreaks int
}

// Len is the chunk's length in characters.
func (c Chunk) Len() int { return utf8.RuneCountInString(c.Text) }

type token struct {
	text   string
	breaks int // line boundaries before this token
}

// tokenize splits text on whitespace, remembering how many line boundaries
// precede each token. It also returns the line boundaries after the last
// token.
func tokenize(text string) ([]token, int) {
	var tokens []token
	pending := 0
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			pending++
		}
		for _, w := range strings.Fields(line) {
			tokens = append(tokens, token{text: w, breaks: pending})
			pending = 0
		}
	}
	return tokens, pending
}

// Split packs the whitespace tokens of text greedily into chunks whose
// rendered length is at most maxChunkSize characters. Tokens on the same
// line are joined with a space and line boundaries are kept as newlines.
// A single token longer than the limit is emitted as a chunk on its own.
func Split(text string, maxChunkSize int) []Chunk {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	tokens, _ := tokenize(text)

	var chunks []Chunk
	var current strings.Builder
	currentLen := 0
	leading := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Text: current.String(), LeadingBreaks: leading})
		current.Reset()
		currentLen = 0
	}

	for _, tk := range tokens {
		n := utf8.RuneCountInString(tk.text)
		if currentLen > 0 {
			sep := separator(tk.breaks)
			if currentLen+len(sep)+n <= maxChunkSize {
				current.WriteString(sep)
				current.WriteString(tk.text)
				currentLen += len(sep) + n
				continue
			}
			flush()
		}
		leading = tk.breaks
		current.WriteString(tk.text)
		currentLen = n
	}
	flush()
	return chunks
}

func separator(breaks int) string {
	if breaks == 0 {
		return " "
	}
	return strings.Repeat("\n", breaks)
}

// TrailingBreaks returns the number of line boundaries after the last word
// of text, which Split does not carry in any chunk.
func TrailingBreaks(text string) int {
	_, trailing := tokenize(text)
	return trailing
}

// Join reassembles per-chunk outputs, in chunk order, into one stream: each
// output is preceded by its chunk's line boundaries, or by a space when the
// chunk boundary fell inside a line.
func Join(chunks []Chunk, outputs []string, trailingBreaks int) string {
	var sb strings.Builder
	for i, c := range chunks {
		switch {
		case c.LeadingBreaks > 0:
			sb.WriteString(strings.Repeat("\n", c.LeadingBreaks))
		case i > 0:
			sb.WriteByte(' ')
		}
		if i < len(outputs) {
			sb.WriteString(outputs[i])
		}
	}
	if trailingBreaks > 0 {
		sb.WriteString(strings.Repeat("\n", trailingBreaks))
	}
	return sb.String()
}
