package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/doctailor/internal/chunker"
	"github.com/dgallion1/doctailor/internal/metrics"
	"github.com/dgallion1/doctailor/internal/rewrite"
	"github.com/dgallion1/doctailor/internal/snapshot"
)

// ChunkOptions tune RewriteInChunks. The zero value rewrites sequentially
// with the default chunk size and a single attempt per chunk.
type ChunkOptions struct {
	MaxChunkSize int
	// Concurrency above 1 rewrites that many chunks at once; outputs are
	// still joined in chunk order.
	Concurrency int
	Retries     int
	RetryDelay  time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Tracer  trace.Tracer

	// Progress, when set, is called after each chunk with the number of
	// chunks done so far. It may be called from several goroutines.
	Progress func(done, total int)
}

// RewriteInChunks rewrites the snapshot's flattened text chunk by chunk and
// joins the outputs, verbatim and in chunk order, into one stream. If any
// chunk fails the whole call fails with *RewriteFailedError and no text is
// returned.
func RewriteInChunks(ctx context.Context, snap *snapshot.DocumentSnapshot, job rewrite.JobContext, rw rewrite.Rewriter, opts ChunkOptions) (string, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	tracer := tracerOrNoop(opts.Tracer)

	text := snap.FlattenedText()
	chunks := chunker.Split(text, opts.MaxChunkSize)
	trailing := chunker.TrailingBreaks(text)
	log.Info("chunked document",
		"chunks", len(chunks),
		"paragraphs", len(snap.Paragraphs),
		"approx_tokens", chunker.EstimateTokens(text),
	)

	outputs := make([]string, len(chunks))
	var done atomic.Int64

	rewriteOne := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return &RewriteFailedError{Chunk: i, Total: len(chunks), Cause: err}
		}
		c := chunks[i]
		ctx, span := tracer.Start(ctx, "rewrite.chunk", trace.WithAttributes(
			attribute.Int("chunk.index", i),
			attribute.Int("chunk.length", c.Len()),
			attribute.String("rewrite.model", rw.Model()),
		))
		defer span.End()

		var out string
		err := withRetry(ctx, opts.Retries, opts.RetryDelay, func() error {
			var err error
			out, err = rw.Rewrite(ctx, c.Text, job)
			return err
		}, func(n uint, err error) {
			opts.Metrics.RewriteRetried()
			log.Warn("retryable rewrite error", "chunk", i, "attempt", n, "error", err)
		})
		if err != nil {
			span.RecordError(err)
			log.Error("rewrite failed", "chunk", i, "total", len(chunks), "error", err)
			return &RewriteFailedError{Chunk: i, Total: len(chunks), Cause: err}
		}

		outputs[i] = out
		opts.Metrics.ChunkRewritten()
		n := int(done.Add(1))
		if opts.Progress != nil {
			opts.Progress(n, len(chunks))
		}
		return nil
	}

	if opts.Concurrency <= 1 {
		for i := range chunks {
			if err := rewriteOne(ctx, i); err != nil {
				return "", err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for i := range chunks {
			g.Go(func() error { return rewriteOne(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return "", err
		}
	}

	return chunker.Join(chunks, outputs, trailing), nil
}
