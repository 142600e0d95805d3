package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "doctailor",
		Short: "Tailor a .docx resume to a job posting without losing its formatting",
		Long: `doctailor rewrites the text of a Word resume for a specific job with an LLM
and writes it back into the original layout.

The pipeline:
  - extracts sections, paragraphs and runs with their formatting
  - rewrites the text in size-bounded chunks, one line per paragraph
  - reapplies the original formatting to the rewritten lines`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(
		&opts.cfgFile, "config", "", "config file (default: ./doctailor.yaml or ~/.doctailor/doctailor.yaml)",
	)
	cmd.PersistentFlags().StringVar(
		&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	cmd.AddCommand(
		newServeCmd(opts),
		newTailorCmd(opts),
		newInspectCmd(),
	)
	return cmd
}

func (o *rootOptions) logger(json bool) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stdout, hopts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, hopts))
}
