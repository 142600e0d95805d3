package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/dgallion1/doctailor/internal/metrics"
	"github.com/dgallion1/doctailor/internal/parser"
	"github.com/dgallion1/doctailor/internal/reapply"
	"github.com/dgallion1/doctailor/internal/rewrite"
	"github.com/dgallion1/doctailor/internal/snapshot"
	"github.com/dgallion1/doctailor/internal/storage"
)

// Tailor produces tailored resumes. Every collaborator is a field so each
// caller decides which fetcher, rewriter and instrumentation to use.
type Tailor struct {
	Fetcher  storage.Fetcher
	Rewriter rewrite.Rewriter
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer

	MaxChunkSize int
	Concurrency  int
	Retries      int
	RetryDelay   time.Duration
	Policy       reapply.LinePolicy

	// Progress is forwarded to RewriteInChunks.
	Progress func(done, total int)
}

// Produce fetches the resume at sourceLocator, rewrites it for the job and
// writes the tailored document to outputPath, which it returns. On error
// nothing is left at outputPath.
func (t *Tailor) Produce(ctx context.Context, sourceLocator, jobTitle, jobDescription, outputPath string) (string, error) {
	ctx, span := tracerOrNoop(t.Tracer).Start(ctx, "tailor.produce",
		trace.WithAttributes(attribute.String("line_policy", t.Policy.String())))
	defer span.End()

	start := time.Now()
	err := t.produce(ctx, sourceLocator, rewrite.JobContext{JobTitle: jobTitle, JobDescription: jobDescription}, outputPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.Metrics.Failed(ErrorKind(err))
		return "", err
	}
	t.Metrics.DocumentProduced()
	t.logger().Info("tailored document written", "path", outputPath, "duration_ms", time.Since(start).Milliseconds())
	return outputPath, nil
}

func (t *Tailor) produce(ctx context.Context, source string, job rewrite.JobContext, outputPath string) error {
	log := t.logger()
	if t.Fetcher == nil || t.Rewriter == nil {
		return errors.New("tailor: fetcher and rewriter are required")
	}
	job = rewrite.NormalizeJob(job)
	if err := job.Validate(); err != nil {
		return err
	}

	var data []byte
	err := t.stage(ctx, "fetch", func(ctx context.Context) error {
		var err error
		data, err = t.Fetcher.Fetch(ctx, source)
		return err
	})
	if err != nil {
		return err
	}

	var snap *snapshot.DocumentSnapshot
	err = t.stage(ctx, "extract", func(context.Context) error {
		var err error
		snap, err = parser.Extract(data)
		return err
	})
	if err != nil {
		return err
	}
	log.Info("extracted document", "sections", len(snap.Sections), "paragraphs", len(snap.Paragraphs), "bytes", len(data))
	if msg, err := parser.ParagraphCountMismatch(data, len(snap.Paragraphs)); err != nil {
		log.Warn("paragraph cross-check failed", "error", err)
	} else if msg != "" {
		log.Warn("paragraph count mismatch", "detail", msg)
	}

	var rewritten string
	err = t.stage(ctx, "rewrite", func(ctx context.Context) error {
		var err error
		rewritten, err = RewriteInChunks(ctx, snap, job, t.Rewriter, ChunkOptions{
			MaxChunkSize: t.MaxChunkSize,
			Concurrency:  t.Concurrency,
			Retries:      t.Retries,
			RetryDelay:   t.RetryDelay,
			Logger:       log,
			Metrics:      t.Metrics,
			Tracer:       t.Tracer,
			Progress:     t.Progress,
		})
		return err
	})
	if err != nil {
		return err
	}

	var res *reapply.Result
	err = t.stage(ctx, "reapply", func(context.Context) error {
		var err error
		res, err = reapply.Reapply(snap, rewritten, reapply.Options{Policy: t.Policy, Title: job.JobTitle})
		return err
	})
	if err != nil {
		return err
	}
	if res.Padded > 0 || res.Dropped > 0 {
		log.Warn("rewritten lines did not pair one to one",
			"paired", res.Paired, "padded", res.Padded, "dropped", res.Dropped)
	}

	return t.stage(ctx, "write", func(context.Context) error {
		if err := storage.WriteLocal(res.Document, outputPath); err != nil {
			return &reapply.ReapplicationError{Message: "write output", Cause: err}
		}
		return nil
	})
}

// stage runs fn inside a span and records its duration.
func (t *Tailor) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracerOrNoop(t.Tracer).Start(ctx, "tailor."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	t.Metrics.ObserveStage(name, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (t *Tailor) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return t.Logger
}

func tracerOrNoop(t trace.Tracer) trace.Tracer {
	if t == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	return t
}

// ErrorKind names the failure class of err, for metrics and API mapping.
func ErrorKind(err error) string {
	var (
		fetchErr     *storage.FetchError
		malformedErr *parser.MalformedDocumentError
		rewriteErr   *RewriteFailedError
		reapplyErr   *reapply.ReapplicationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, rewrite.ErrInvalidJob):
		return "invalid_job"
	case errors.Is(err, ErrNoMasterResume), errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &malformedErr):
		return "malformed"
	case errors.As(err, &rewriteErr):
		return "rewrite"
	case errors.As(err, &reapplyErr):
		return "reapply"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// RemoveQuietly deletes a scratch file, ignoring a file that is already
// gone.
func RemoveQuietly(log *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("remove scratch file", "path", path, "error", err)
	}
}
