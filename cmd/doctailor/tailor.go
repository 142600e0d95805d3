package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/doctailor/internal/app"
	"github.com/dgallion1/doctailor/internal/config"
	"github.com/dgallion1/doctailor/internal/pipeline"
	"github.com/dgallion1/doctailor/internal/rewrite"
	"github.com/dgallion1/doctailor/internal/storage"
)

type tailorOptions struct {
	source          string
	title           string
	description     string
	descriptionFile string
	out             string
	policy          string
	maxChunkSize    int
	dryRun          bool
}

func newTailorCmd(root *rootOptions) *cobra.Command {
	opts := &tailorOptions{}
	cmd := &cobra.Command{
		Use:   "tailor",
		Short: "Tailor one resume and write the result locally",
		Example: `  doctailor tailor --source cv.docx --title "Staff Engineer" --description-file job.txt
  doctailor tailor --source https://bucket.example/cv.docx?X-Amz-Signature=... --title SRE --description "..." --out sre.docx
  doctailor tailor --source cv.docx --title Test --description x --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTailor(cmd, root, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.source, "source", "", "resume locator: local path, file:// or http(s) URL, s3://bucket/key")
	f.StringVar(&opts.title, "title", "", "job title")
	f.StringVar(&opts.description, "description", "", "job description text (HTML is flattened)")
	f.StringVar(&opts.descriptionFile, "description-file", "", "read the job description from a file")
	f.StringVar(&opts.out, "out", "", "output path (default: <title>_Tailored_Resume.docx)")
	f.StringVar(&opts.policy, "line-policy", "", "tolerant or strict (default from config)")
	f.IntVar(&opts.maxChunkSize, "max-chunk-size", 0, "chunk limit in characters (default from config)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "keep the text unchanged and skip the LLM")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("description", "description-file")
	return cmd
}

func runTailor(cmd *cobra.Command, root *rootOptions, opts *tailorOptions) error {
	ctx := cmd.Context()
	log := root.logger(false)

	cfg, err := config.Load(root.cfgFile)
	if err != nil {
		return err
	}
	if opts.policy != "" {
		cfg.LinePolicy = opts.policy
	}
	if opts.maxChunkSize > 0 {
		cfg.MaxChunkSize = opts.maxChunkSize
	}

	description := opts.description
	if opts.descriptionFile != "" {
		data, err := os.ReadFile(opts.descriptionFile)
		if err != nil {
			return fmt.Errorf("read description: %w", err)
		}
		description = string(data)
	}
	if strings.TrimSpace(description) == "" {
		return errors.New("a job description is required (--description or --description-file)")
	}

	var rw rewrite.Rewriter
	if opts.dryRun {
		rw = rewrite.Identity()
	} else {
		if err := cfg.ValidateRewrite(); err != nil {
			return err
		}
		provider, err := app.NewRewriter(ctx, cfg)
		if err != nil {
			return err
		}
		defer app.CloseRewriter(provider)
		rw = provider
	}

	fetcher := &storage.LocatorFetcher{
		HTTP:       storage.NewHTTPFetcher(cfg.RewriteTimeout),
		AllowLocal: true,
	}
	if cfg.MinIO.AccessKey != "" && cfg.MinIO.SecretKey != "" {
		store, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return err
		}
		fetcher.Objects = &storage.ObjectFetcher{Store: store}
	}

	tl, err := app.NewTailor(cfg, fetcher, rw, log, nil)
	if err != nil {
		return err
	}

	out := opts.out
	if out == "" {
		out = pipeline.TailoredFileName(opts.title)
	}
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}

	written, err := tl.Produce(ctx, opts.source, opts.title, description, out)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), written)
	return nil
}
