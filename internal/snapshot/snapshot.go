// Package snapshot holds the serializable structural representation of a
// rich-text document: sections, paragraphs and runs with their formatting.
//
// Optional formatting fields are pointers. A nil field means the source left
// the attribute unset and it must stay inherited when the document is rebuilt.
package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// Alignment is a paragraph's horizontal alignment. The zero value is unset.
type Alignment string

const (
	AlignUnset   Alignment = ""
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// LineRule says how LineSpacing is interpreted.
type LineRule string

const (
	LineAuto    LineRule = "auto"    // multiple of single spacing
	LineExact   LineRule = "exact"   // points
	LineAtLeast LineRule = "atLeast" // points
)

// RGB is a font color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Hex renders the color as RRGGBB.
func (c RGB) Hex() string { return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B) }

// ParseHex parses an RRGGBB color.
func ParseHex(s string) (RGB, error) {
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// DocumentSnapshot is the root structural unit produced by extraction.
type DocumentSnapshot struct {
	Sections   []SectionGeometry `json:"sections"`
	Paragraphs []ParagraphRecord `json:"paragraphs"`
}

// SectionGeometry is one section's physical layout.
type SectionGeometry struct {
	PageWidth      Length  `json:"page_width"`
	PageHeight     Length  `json:"page_height"`
	MarginTop      Length  `json:"margin_top"`
	MarginBottom   Length  `json:"margin_bottom"`
	MarginLeft     Length  `json:"margin_left"`
	MarginRight    Length  `json:"margin_right"`
	HeaderDistance Length  `json:"header_distance"`
	FooterDistance Length  `json:"footer_distance"`
	HeaderText     *string `json:"header_text,omitempty"`
	FooterText     *string `json:"footer_text,omitempty"`
}

// ParagraphRecord is one paragraph in reading order.
type ParagraphRecord struct {
	Text            string      `json:"text"`
	Style           string      `json:"style,omitempty"`
	Alignment       Alignment   `json:"alignment,omitempty"`
	LineSpacing     *float64    `json:"line_spacing,omitempty"`
	LineRule        *LineRule   `json:"line_rule,omitempty"`
	SpaceBefore     *Length     `json:"space_before,omitempty"`
	SpaceAfter      *Length     `json:"space_after,omitempty"`
	LeftIndent      *Length     `json:"left_indent,omitempty"`
	RightIndent     *Length     `json:"right_indent,omitempty"`
	FirstLineIndent *Length     `json:"first_line_indent,omitempty"`
	Section         int         `json:"section"`
	Runs            []RunRecord `json:"runs"`
}

// RunRecord is one contiguous span of uniformly styled text.
type RunRecord struct {
	Text      string   `json:"text"`
	Bold      *bool    `json:"bold,omitempty"`
	Italic    *bool    `json:"italic,omitempty"`
	Underline *bool    `json:"underline,omitempty"`
	FontName  *string  `json:"font_name,omitempty"`
	FontSize  *float64 `json:"font_size,omitempty"`
	Color     *RGB     `json:"color,omitempty"`
}

// HasOverrides reports whether any run-level attribute is set.
func (r RunRecord) HasOverrides() bool {
	return r.Bold != nil || r.Italic != nil || r.Underline != nil ||
		r.FontName != nil || r.FontSize != nil || r.Color != nil
}

// Content returns the paragraph's text: the run concatenation when runs
// exist, the paragraph-level text otherwise.
func (p ParagraphRecord) Content() string {
	if len(p.Runs) == 0 {
		return p.Text
	}
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// FlattenedText joins every paragraph's content with a line boundary.
func (s *DocumentSnapshot) FlattenedText() string {
	return strings.Join(s.Lines(), "\n")
}

// Lines returns one entry per paragraph, in reading order.
func (s *DocumentSnapshot) Lines() []string {
	lines := make([]string, len(s.Paragraphs))
	for i, p := range s.Paragraphs {
		// A paragraph never spans lines of the flattened stream.
		lines[i] = strings.ReplaceAll(p.Content(), "\n", " ")
	}
	return lines
}

// Validate checks that every length can be written back to a document.
// Negative first-line indents are hanging indents and stay legal.
func (s *DocumentSnapshot) Validate() error {
	for i, sec := range s.Sections {
		fields := []struct {
			name string
			v    Length
		}{
			{"page_width", sec.PageWidth},
			{"page_height", sec.PageHeight},
			{"margin_top", sec.MarginTop},
			{"margin_bottom", sec.MarginBottom},
			{"margin_left", sec.MarginLeft},
			{"margin_right", sec.MarginRight},
			{"header_distance", sec.HeaderDistance},
			{"footer_distance", sec.FooterDistance},
		}
		for _, f := range fields {
			if f.v < 0 {
				return fmt.Errorf("section %d: %s is negative (%d)", i, f.name, f.v)
			}
		}
	}
	for i, p := range s.Paragraphs {
		optional := []struct {
			name string
			v    *Length
		}{
			{"space_before", p.SpaceBefore},
			{"space_after", p.SpaceAfter},
			{"left_indent", p.LeftIndent},
			{"right_indent", p.RightIndent},
		}
		for _, f := range optional {
			if f.v != nil && *f.v < 0 {
				return fmt.Errorf("paragraph %d: %s is negative (%d)", i, f.name, *f.v)
			}
		}
		if p.LineSpacing != nil && *p.LineSpacing <= 0 {
			return fmt.Errorf("paragraph %d: line spacing must be positive", i)
		}
		for j, r := range p.Runs {
			if r.FontSize != nil && *r.FontSize <= 0 {
				return fmt.Errorf("paragraph %d run %d: font size must be positive", i, j)
			}
		}
	}
	return nil
}

// WithoutText returns a copy carrying only the formatting skeleton.
func (s *DocumentSnapshot) WithoutText() *DocumentSnapshot {
	out := &DocumentSnapshot{
		Sections:   append([]SectionGeometry(nil), s.Sections...),
		Paragraphs: make([]ParagraphRecord, len(s.Paragraphs)),
	}
	for i, p := range s.Paragraphs {
		p.Text = ""
		runs := make([]RunRecord, len(p.Runs))
		for j, r := range p.Runs {
			r.Text = ""
			runs[j] = r
		}
		p.Runs = runs
		out.Paragraphs[i] = p
	}
	return out
}

// Ptr returns a pointer to v; convenient for optional fields.
func Ptr[T any](v T) *T { return &v }
