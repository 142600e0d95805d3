// Package reapply rebuilds a .docx from a formatting snapshot and rewritten
// text, pairing one line of text with each snapshot paragraph.
package reapply

import (
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/doctailor/internal/ooxml"
	"github.com/dgallion1/doctailor/internal/snapshot"
)

// LinePolicy decides what happens when the rewritten text does not have one
// line per paragraph.
type LinePolicy int

const (
	// PairTolerant pairs lines by position, pads missing lines with empty
	// text and drops excess lines.
	PairTolerant LinePolicy = iota
	// PairStrict fails on any difference.
	PairStrict
)

func (p LinePolicy) String() string {
	if p == PairStrict {
		return "strict"
	}
	return "tolerant"
}

// ParsePolicy parses "tolerant" or "strict". Empty means tolerant.
func ParsePolicy(s string) (LinePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tolerant":
		return PairTolerant, nil
	case "strict":
		return PairStrict, nil
	}
	return PairTolerant, fmt.Errorf("unknown line policy %q", s)
}

// Options tunes Reapply.
type Options struct {
	Policy LinePolicy
	// Title is written to the document properties when set.
	Title string
}

// Result is the rebuilt document plus how lines were paired.
type Result struct {
	Document []byte
	Paired   int
	Padded   int
	Dropped  int
}

// CheckLines reports ErrLineCountMismatch, wrapped in a ReapplicationError,
// when text does not have exactly one line per paragraph.
func CheckLines(snap *snapshot.DocumentSnapshot, text string) error {
	lines := splitLines(text, len(snap.Paragraphs))
	if len(lines) != len(snap.Paragraphs) {
		return &ReapplicationError{
			Message: fmt.Sprintf("%d lines for %d paragraphs", len(lines), len(snap.Paragraphs)),
			Cause:   ErrLineCountMismatch,
		}
	}
	return nil
}

// Reapply builds a new document that carries the snapshot's formatting and
// the rewritten text. Fields absent from the snapshot are not written, so the
// output inherits them from styles.
func Reapply(snap *snapshot.DocumentSnapshot, rewritten string, opts Options) (*Result, error) {
	if snap == nil {
		return nil, &ReapplicationError{Message: "nil snapshot"}
	}
	if err := snap.Validate(); err != nil {
		return nil, &ReapplicationError{Message: "invalid geometry", Cause: err}
	}
	if opts.Policy == PairStrict {
		if err := CheckLines(snap, rewritten); err != nil {
			return nil, err
		}
	}

	pkg := ooxml.New()
	pkg.Title = opts.Title

	sections := make([]*ooxml.Section, len(snap.Sections))
	for i, g := range snap.Sections {
		sections[i] = section(g)
	}
	if len(sections) > 0 {
		pkg.Final = sections[len(sections)-1]
	}

	lines := splitLines(rewritten, len(snap.Paragraphs))
	res := &Result{}
	for i, rec := range snap.Paragraphs {
		line := ""
		if i < len(lines) {
			line = lines[i]
			res.Paired++
		} else {
			res.Padded++
		}

		p := pkg.AddParagraph()
		paragraph(pkg, p, rec, line)

		// A section ends at its last paragraph.
		cur := clampSection(rec.Section, len(sections))
		next := len(sections) - 1
		if i+1 < len(snap.Paragraphs) {
			next = clampSection(snap.Paragraphs[i+1].Section, len(sections))
		}
		if next > cur && cur < len(sections)-1 {
			p.SectionBreak = sections[cur]
		}
	}
	if len(lines) > len(snap.Paragraphs) {
		res.Dropped = len(lines) - len(snap.Paragraphs)
	}

	data, err := pkg.Bytes()
	if err != nil {
		return nil, &ReapplicationError{Message: "serialize document", Cause: err}
	}
	res.Document = data
	return res, nil
}

func splitLines(text string, paragraphs int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if text == "" && paragraphs == 0 {
		return nil
	}
	return strings.Split(text, "\n")
}

func clampSection(i, n int) int {
	if i < 0 || n == 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func section(g snapshot.SectionGeometry) *ooxml.Section {
	s := &ooxml.Section{
		PageSize: &ooxml.PageSize{
			W: snapshot.FormatMeasure(g.PageWidth),
			H: snapshot.FormatMeasure(g.PageHeight),
		},
		Margins: &ooxml.PageMargins{
			Top:    snapshot.FormatMeasure(g.MarginTop),
			Right:  snapshot.FormatMeasure(g.MarginRight),
			Bottom: snapshot.FormatMeasure(g.MarginBottom),
			Left:   snapshot.FormatMeasure(g.MarginLeft),
			Header: snapshot.FormatMeasure(g.HeaderDistance),
			Footer: snapshot.FormatMeasure(g.FooterDistance),
			Gutter: "0",
		},
	}
	if g.PageWidth > g.PageHeight {
		s.PageSize.Orient = "landscape"
	}
	if g.HeaderText != nil {
		s.Header = headerFooter(ooxml.StyleHeader, *g.HeaderText)
	}
	if g.FooterText != nil {
		s.Footer = headerFooter(ooxml.StyleFooter, *g.FooterText)
	}
	return s
}

func headerFooter(style, text string) *ooxml.HeaderFooter {
	p := &ooxml.Paragraph{Props: ooxml.ParagraphProps{StyleID: style}}
	p.AddRun(text)
	return &ooxml.HeaderFooter{Paragraphs: []*ooxml.Paragraph{p}}
}

var bulletMarkers = []string{"- ", "* ", "• "}

// stripBullet removes a leading list marker.
func stripBullet(s string) (string, bool) {
	trimmed := strings.TrimLeft(s, " \t")
	for _, m := range bulletMarkers {
		if strings.HasPrefix(trimmed, m) {
			return strings.TrimLeft(trimmed[len(m):], " "), true
		}
	}
	return s, false
}

func paragraph(pkg *ooxml.Package, p *ooxml.Paragraph, rec snapshot.ParagraphRecord, line string) {
	text, bullet := stripBullet(line)
	if _, was := stripBullet(rec.Content()); was {
		bullet = true
	}

	switch {
	case bullet:
		p.Props.StyleID = ooxml.StyleListBullet
	case rec.Style != "":
		p.Props.StyleID = styleID(pkg, rec.Style)
	}
	p.Props.Justification = justification(rec.Alignment)
	p.Props.Spacing = spacing(rec)
	p.Props.Indent = indent(rec)

	if bullet && len(rec.Runs) > 0 {
		// The marker was part of the first run's text.
		if orig, ok := stripBullet(rec.Content()); ok {
			rec = withContent(rec, orig)
		}
	}
	p.Runs = runs(rec, text)
}

// styleID resolves a style name to an ID, registering a stub definition for
// names the fresh document does not know.
func styleID(pkg *ooxml.Package, name string) string {
	if name == pkg.DefaultParagraphStyle().Name {
		return ""
	}
	if s, ok := pkg.StyleByName(name); ok {
		return s.ID
	}
	id := ooxml.StyleID(name)
	pkg.AddStyle(ooxml.Style{ID: id, Name: name, Type: "paragraph", BasedOn: ooxml.StyleNormal})
	return id
}

func justification(a snapshot.Alignment) string {
	switch a {
	case snapshot.AlignLeft:
		return "left"
	case snapshot.AlignCenter:
		return "center"
	case snapshot.AlignRight:
		return "right"
	case snapshot.AlignJustify:
		return "both"
	}
	return ""
}

func spacing(rec snapshot.ParagraphRecord) *ooxml.Spacing {
	if rec.SpaceBefore == nil && rec.SpaceAfter == nil && rec.LineSpacing == nil {
		return nil
	}
	s := &ooxml.Spacing{
		Before: measure(rec.SpaceBefore),
		After:  measure(rec.SpaceAfter),
	}
	if rec.LineSpacing != nil {
		rule := snapshot.LineAuto
		if rec.LineRule != nil {
			rule = *rec.LineRule
		}
		var line int64
		if rule == snapshot.LineAuto {
			line = int64(math.Round(*rec.LineSpacing * 240))
		} else {
			line = int64(math.Round(*rec.LineSpacing * snapshot.TwipsPerPoint))
		}
		s.Line = snapshot.Ptr(fmt.Sprintf("%d", line))
		s.LineRule = string(rule)
	}
	return s
}

func indent(rec snapshot.ParagraphRecord) *ooxml.Indent {
	if rec.LeftIndent == nil && rec.RightIndent == nil && rec.FirstLineIndent == nil {
		return nil
	}
	ind := &ooxml.Indent{
		Left:  measure(rec.LeftIndent),
		Right: measure(rec.RightIndent),
	}
	if fl := rec.FirstLineIndent; fl != nil {
		if *fl < 0 {
			ind.Hanging = snapshot.Ptr(snapshot.FormatMeasure(-*fl))
		} else {
			ind.FirstLine = measure(fl)
		}
	}
	return ind
}

func measure(l *snapshot.Length) *string {
	if l == nil {
		return nil
	}
	return snapshot.Ptr(snapshot.FormatMeasure(*l))
}
