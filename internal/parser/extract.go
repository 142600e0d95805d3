package parser

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/doctailor/internal/ooxml"
	"github.com/dgallion1/doctailor/internal/snapshot"
)

// Geometry used when a section leaves page size or margins unset; these are
// Word's own defaults.
const (
	defaultPageWidth  snapshot.Length = 12240
	defaultPageHeight snapshot.Length = 15840
	defaultMargin     snapshot.Length = 1440
	defaultHdrFtr     snapshot.Length = 720
)

// Extract reads a .docx and captures its structural snapshot: section
// geometry, paragraph formatting and run formatting in reading order.
// Attributes the document leaves unset stay nil in the snapshot.
func Extract(data []byte) (*snapshot.DocumentSnapshot, error) {
	pkg, err := ooxml.Open(data)
	if err != nil {
		return nil, &MalformedDocumentError{Message: "cannot open container", Cause: err}
	}

	snap := &snapshot.DocumentSnapshot{}
	for i, sec := range pkg.Sections() {
		g, err := sectionGeometry(sec)
		if err != nil {
			return nil, &MalformedDocumentError{Message: fmt.Sprintf("section %d", i), Cause: err}
		}
		snap.Sections = append(snap.Sections, g)
	}

	section := 0
	for i, p := range pkg.Body {
		rec, err := paragraphRecord(pkg, p)
		if err != nil {
			return nil, &MalformedDocumentError{Message: fmt.Sprintf("paragraph %d", i), Cause: err}
		}
		rec.Section = section
		snap.Paragraphs = append(snap.Paragraphs, rec)
		if p.SectionBreak != nil {
			section++
		}
	}
	return snap, nil
}

type measureField struct {
	raw string
	dst *snapshot.Length
}

func sectionGeometry(sec *ooxml.Section) (snapshot.SectionGeometry, error) {
	g := snapshot.SectionGeometry{
		PageWidth:      defaultPageWidth,
		PageHeight:     defaultPageHeight,
		MarginTop:      defaultMargin,
		MarginBottom:   defaultMargin,
		MarginLeft:     defaultMargin,
		MarginRight:    defaultMargin,
		HeaderDistance: defaultHdrFtr,
		FooterDistance: defaultHdrFtr,
	}
	var fields []measureField
	if ps := sec.PageSize; ps != nil {
		fields = append(fields, measureField{ps.W, &g.PageWidth}, measureField{ps.H, &g.PageHeight})
	}
	if m := sec.Margins; m != nil {
		fields = append(fields,
			measureField{m.Top, &g.MarginTop},
			measureField{m.Bottom, &g.MarginBottom},
			measureField{m.Left, &g.MarginLeft},
			measureField{m.Right, &g.MarginRight},
			measureField{m.Header, &g.HeaderDistance},
			measureField{m.Footer, &g.FooterDistance},
		)
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		v, err := snapshot.ParseMeasure(f.raw)
		if err != nil {
			return g, err
		}
		*f.dst = v
	}
	g.HeaderText = firstParagraphText(sec.Header)
	g.FooterText = firstParagraphText(sec.Footer)
	return g, nil
}

func firstParagraphText(hf *ooxml.HeaderFooter) *string {
	if hf == nil || len(hf.Paragraphs) == 0 {
		return nil
	}
	t := hf.Paragraphs[0].Text()
	return &t
}

func paragraphRecord(pkg *ooxml.Package, p *ooxml.Paragraph) (snapshot.ParagraphRecord, error) {
	rec := snapshot.ParagraphRecord{
		Text:      p.Text(),
		Style:     styleName(pkg, p.Props.StyleID),
		Alignment: alignment(p.Props.Justification),
		Runs:      make([]snapshot.RunRecord, 0, len(p.Runs)),
	}

	if sp := p.Props.Spacing; sp != nil {
		var err error
		if rec.SpaceBefore, err = optionalMeasure(sp.Before); err != nil {
			return rec, fmt.Errorf("spacing before: %w", err)
		}
		if rec.SpaceAfter, err = optionalMeasure(sp.After); err != nil {
			return rec, fmt.Errorf("spacing after: %w", err)
		}
		if sp.Line != nil {
			line, err := strconv.ParseFloat(*sp.Line, 64)
			if err != nil {
				return rec, fmt.Errorf("line spacing %q: %w", *sp.Line, err)
			}
			rule := snapshot.LineRule(sp.LineRule)
			switch rule {
			case snapshot.LineExact, snapshot.LineAtLeast:
				v := line / snapshot.TwipsPerPoint
				rec.LineSpacing = &v
			default:
				// 240ths of a line
				rule = snapshot.LineAuto
				v := line / 240
				rec.LineSpacing = &v
			}
			rec.LineRule = &rule
		}
	}

	if in := p.Props.Indent; in != nil {
		var err error
		if rec.LeftIndent, err = optionalMeasure(in.Left); err != nil {
			return rec, fmt.Errorf("left indent: %w", err)
		}
		if rec.RightIndent, err = optionalMeasure(in.Right); err != nil {
			return rec, fmt.Errorf("right indent: %w", err)
		}
		if rec.FirstLineIndent, err = optionalMeasure(in.FirstLine); err != nil {
			return rec, fmt.Errorf("first line indent: %w", err)
		}
		hanging, err := optionalMeasure(in.Hanging)
		if err != nil {
			return rec, fmt.Errorf("hanging indent: %w", err)
		}
		if hanging != nil {
			neg := -*hanging
			rec.FirstLineIndent = &neg
		}
	}

	for _, r := range p.Runs {
		rec.Runs = append(rec.Runs, runRecord(r))
	}
	return rec, nil
}

func optionalMeasure(raw *string) (*snapshot.Length, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := snapshot.ParseMeasure(*raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func styleName(pkg *ooxml.Package, id string) string {
	if id == "" {
		return pkg.DefaultParagraphStyle().Name
	}
	if s, ok := pkg.StyleByID(id); ok {
		return s.Name
	}
	return id
}

func alignment(jc string) snapshot.Alignment {
	switch jc {
	case "":
		return snapshot.AlignUnset
	case "left", "start":
		return snapshot.AlignLeft
	case "center":
		return snapshot.AlignCenter
	case "right", "end":
		return snapshot.AlignRight
	case "both", "distribute", "lowKashida", "mediumKashida", "highKashida", "thaiDistribute":
		return snapshot.AlignJustify
	}
	return snapshot.AlignUnset
}

func runRecord(r *ooxml.Run) snapshot.RunRecord {
	rec := snapshot.RunRecord{
		Text:   r.Text,
		Bold:   copyBool(r.Props.Bold),
		Italic: copyBool(r.Props.Italic),
	}
	if u := r.Props.Underline; u != nil {
		on := *u != "none"
		rec.Underline = &on
	}
	if f := r.Props.Fonts; f != nil {
		name := f.ASCII
		if name == "" {
			name = f.HAnsi
		}
		if name != "" {
			rec.FontName = &name
		}
	}
	if sz := r.Props.Size; sz != nil {
		pt := float64(*sz) / 2
		rec.FontSize = &pt
	}
	if c := r.Props.Color; c != nil && *c != "auto" {
		if rgb, err := snapshot.ParseHex(*c); err == nil {
			rec.Color = &rgb
		}
	}
	return rec
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
