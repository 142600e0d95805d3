package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestSplit_FitsOneChunk(t *testing.T) {
	chunks := Split("Jane Doe\nSenior Engineer", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Jane Doe\nSenior Engineer", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].LeadingBreaks)
}

func TestSplit_GreedyWordBoundaries(t *testing.T) {
	chunks := Split("aaa bbb ccc ddd", 7)
	assert.Equal(t, []string{"aaa bbb", "ccc ddd"}, texts(chunks))
	assert.Equal(t, 0, chunks[1].LeadingBreaks)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestSplit_LengthInvariant(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 40) +
		"\n\nSkills: Go, Kubernetes, PostgreSQL, observability"
	for _, max := range []int{10, 25, 80, 500} {
		for _, c := range Split(text, max) {
			assert.LessOrEqual(t, c.Len(), max, "max=%d chunk=%q", max, c.Text)
		}
	}
}

func TestSplit_OversizeToken(t *testing.T) {
	long := strings.Repeat("x", 30)
	chunks := Split("ab "+long+" cd", 10)
	require.Equal(t, []string{"ab", long, "cd"}, texts(chunks))
	assert.Greater(t, chunks[1].Len(), 10, "an oversize token is the only chunk allowed past the limit")
	for _, c := range []Chunk{chunks[0], chunks[2]} {
		assert.LessOrEqual(t, c.Len(), 10)
	}
}

func TestSplit_MultibyteLength(t *testing.T) {
	chunks := Split("héllo wörld ünïcode", 11)
	assert.Equal(t, []string{"héllo wörld", "ünïcode"}, texts(chunks))
}

func TestSplit_LineBoundaries(t *testing.T) {
	chunks := Split("one two\n\nthree four\nfive", 9)
	assert.Equal(t, []string{"one two", "three", "four\nfive"}, texts(chunks))
	assert.Equal(t, []int{0, 2, 0}, []int{chunks[0].LeadingBreaks, chunks[1].LeadingBreaks, chunks[2].LeadingBreaks})
}

func TestSplit_EmptyAndDefault(t *testing.T) {
	assert.Empty(t, Split("", 10))
	assert.Empty(t, Split("\n\n  \n", 10))
	chunks := Split(strings.Repeat("word ", 1000), 0)
	for _, c := range chunks {
		assert.LessOrEqual(t, c.Len(), DefaultMaxChunkSize)
	}
}

func TestJoin_IdentityPreservesLines(t *testing.T) {
	text := "\nJane Doe\n\nSenior Engineer at Acme\n- Led the platform team\n- Cut costs by 30%\n\n"
	for _, max := range []int{5, 12, 40, 1000} {
		chunks := Split(text, max)
		joined := Join(chunks, texts(chunks), TrailingBreaks(text))
		assert.Equal(t, text, joined, "max=%d", max)
	}
}

func TestJoin_Ordering(t *testing.T) {
	text := "alpha beta\ngamma delta\nepsilon"
	chunks := Split(text, 11)
	outputs := make([]string, len(chunks))
	for i, c := range chunks {
		outputs[i] = strings.ToUpper(c.Text)
	}
	assert.Equal(t, "ALPHA BETA\nGAMMA DELTA\nEPSILON", Join(chunks, outputs, 0))
}

func TestTrailingBreaks(t *testing.T) {
	assert.Equal(t, 0, TrailingBreaks("a\nb"))
	assert.Equal(t, 2, TrailingBreaks("a\n\n"))
	assert.Equal(t, 2, TrailingBreaks("\n\n"))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("x"))
	assert.Equal(t, 13, EstimateTokens(strings.Repeat("word ", 10)))
}
