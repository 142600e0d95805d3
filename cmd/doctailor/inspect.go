package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/doctailor/internal/parser"
	"github.com/dgallion1/doctailor/internal/snapshot"
	"github.com/dgallion1/doctailor/internal/storage"
)

func newInspectCmd() *cobra.Command {
	var asJSON, noText bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the structure extracted from a .docx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := storage.ReadLocal(args[0])
			if err != nil {
				return err
			}
			snap, err := parser.Extract(data)
			if err != nil {
				return err
			}
			if noText {
				snap = snap.WithoutText()
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			if msg, err := parser.ParagraphCountMismatch(data, len(snap.Paragraphs)); err == nil && msg != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", msg)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&noText, "no-text", false, "omit paragraph and run text")
	return cmd
}

func printSnapshot(w io.Writer, snap *snapshot.DocumentSnapshot) {
	for i, s := range snap.Sections {
		fmt.Fprintf(w, "section %d: page %.2fin x %.2fin, margins t%.2f b%.2f l%.2f r%.2f\n",
			i, s.PageWidth.Inches(), s.PageHeight.Inches(),
			s.MarginTop.Inches(), s.MarginBottom.Inches(), s.MarginLeft.Inches(), s.MarginRight.Inches())
		if s.HeaderText != nil {
			fmt.Fprintf(w, "  header: %q\n", *s.HeaderText)
		}
		if s.FooterText != nil {
			fmt.Fprintf(w, "  footer: %q\n", *s.FooterText)
		}
	}
	for i, p := range snap.Paragraphs {
		style := p.Style
		if style == "" {
			style = "-"
		}
		fmt.Fprintf(w, "%4d  s%d  %-16s %2d runs  %s\n", i, p.Section, style, len(p.Runs), truncate(p.Content(), 60))
	}
	fmt.Fprintf(w, "%d sections, %d paragraphs\n", len(snap.Sections), len(snap.Paragraphs))
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}
