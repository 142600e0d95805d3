package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/doctailor/internal/config"
	"github.com/dgallion1/doctailor/internal/reapply"
	"github.com/dgallion1/doctailor/internal/rewrite"
	"github.com/dgallion1/doctailor/internal/storage"
)

func TestNewTailor(t *testing.T) {
	cfg := config.Config{LinePolicy: "strict", MaxChunkSize: 900, RewriteRetries: 2, RewriteConcurrency: 3}
	tl, err := NewTailor(cfg, storage.FetcherFunc(nil), rewrite.Identity(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, reapply.PairStrict, tl.Policy)
	assert.Equal(t, 900, tl.MaxChunkSize)
	assert.Equal(t, 2, tl.Retries)
	assert.Equal(t, 3, tl.Concurrency)
	assert.NotNil(t, tl.Tracer)

	_, err = NewTailor(config.Config{LinePolicy: "loose"}, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestNewRewriter_SelectsProvider(t *testing.T) {
	cfg := config.Config{LLMProvider: "anthropic", AnthropicAPIKey: "k", AnthropicModel: "claude-test"}
	rw, err := NewRewriter(context.Background(), cfg)
	require.NoError(t, err)
	defer CloseRewriter(rw)
	assert.Equal(t, "claude-test", rw.Model())

	_, err = NewRewriter(context.Background(), config.Config{LLMProvider: "openai"})
	assert.ErrorContains(t, err, "api key is required")
}

type closer struct{ closed bool }

func (c *closer) Close() error { c.closed = true; return nil }

func TestCloseRewriter(t *testing.T) {
	c := &closer{}
	CloseRewriter(struct {
		rewrite.Rewriter
		*closer
	}{rewrite.Identity(), c})
	assert.True(t, c.closed)
	assert.NotPanics(t, func() { CloseRewriter(rewrite.Identity()) })
}

func TestServe_RejectsInvalidConfig(t *testing.T) {
	err := Serve(context.Background(), config.Config{}, nil)
	assert.ErrorContains(t, err, "invalid configuration")
}
