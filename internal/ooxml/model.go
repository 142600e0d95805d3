// Package ooxml reads and writes the subset of a WordprocessingML (.docx)
// package that carries paragraph, run and section formatting.
//
// Values are kept in their native document form (twips measures as strings,
// half-point font sizes, raw justification names). Unit conversion happens
// in the callers.
package ooxml

// Package is an opened or freshly created .docx document.
type Package struct {
	// Body holds the body paragraphs in reading order. Tables and other
	// block content are not represented.
	Body []*Paragraph

	// Final is the body-level section, which closes the document.
	Final *Section

	Styles []Style

	// Title is written to the core properties part.
	Title string
}

// Paragraph is a w:p element.
type Paragraph struct {
	Props ParagraphProps
	Runs  []*Run

	// SectionBreak is set when this paragraph closes a section.
	SectionBreak *Section
}

// ParagraphProps is the subset of w:pPr the core understands.
type ParagraphProps struct {
	StyleID       string
	Justification string
	Spacing       *Spacing
	Indent        *Indent
	Numbering     *Numbering
}

// Spacing is w:spacing. Nil fields are unset.
type Spacing struct {
	Before   *string
	After    *string
	Line     *string
	LineRule string
}

// Indent is w:ind. Nil fields are unset.
type Indent struct {
	Left      *string
	Right     *string
	FirstLine *string
	Hanging   *string
}

// Numbering is w:numPr.
type Numbering struct {
	Level int
	ID    int
}

// Run is a w:r element. Tabs are carried as '\t' and line breaks as '\n'
// inside Text.
type Run struct {
	Props RunProps
	Text  string
}

// RunProps is the subset of w:rPr the core understands. Nil is unset.
type RunProps struct {
	Fonts     *Fonts
	Bold      *bool
	Italic    *bool
	Underline *string
	Size      *int // half-points
	Color     *string
}

// Fonts is w:rFonts.
type Fonts struct {
	ASCII    string
	HAnsi    string
	EastAsia string
	CS       string
}

// Section is a w:sectPr with its resolved default header and footer.
type Section struct {
	PageSize *PageSize
	Margins  *PageMargins
	Header   *HeaderFooter
	Footer   *HeaderFooter
}

// PageSize is w:pgSz.
type PageSize struct {
	W      string
	H      string
	Orient string
}

// PageMargins is w:pgMar.
type PageMargins struct {
	Top    string
	Right  string
	Bottom string
	Left   string
	Header string
	Footer string
	Gutter string
}

// HeaderFooter is the content of a header or footer part.
type HeaderFooter struct {
	Paragraphs []*Paragraph
}

// Style is a w:style definition.
type Style struct {
	ID      string
	Name    string
	Type    string
	BasedOn string
	Default bool
}

// Text returns the concatenated text of the paragraph's runs.
func (p *Paragraph) Text() string {
	var n int
	for _, r := range p.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range p.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// AddParagraph appends an empty body paragraph and returns it.
func (pkg *Package) AddParagraph() *Paragraph {
	p := &Paragraph{}
	pkg.Body = append(pkg.Body, p)
	return p
}

// AddRun appends a run with the given text.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{Text: text}
	p.Runs = append(p.Runs, r)
	return r
}

// Sections returns every section in document order, the final section last.
func (pkg *Package) Sections() []*Section {
	var out []*Section
	for _, p := range pkg.Body {
		if p.SectionBreak != nil {
			out = append(out, p.SectionBreak)
		}
	}
	if pkg.Final != nil {
		out = append(out, pkg.Final)
	}
	return out
}

// StyleByID looks up a style definition.
func (pkg *Package) StyleByID(id string) (Style, bool) {
	for _, s := range pkg.Styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// StyleByName looks up a style definition by its name.
func (pkg *Package) StyleByName(name string) (Style, bool) {
	for _, s := range pkg.Styles {
		if s.Name == name {
			return s, true
		}
	}
	return Style{}, false
}

// DefaultParagraphStyle returns the style applied to paragraphs without an
// explicit w:pStyle.
func (pkg *Package) DefaultParagraphStyle() Style {
	for _, s := range pkg.Styles {
		if s.Type == "paragraph" && s.Default {
			return s
		}
	}
	return Style{ID: "Normal", Name: "Normal", Type: "paragraph", Default: true}
}

// AddStyle registers a paragraph style if no style with that ID exists.
func (pkg *Package) AddStyle(s Style) {
	if _, ok := pkg.StyleByID(s.ID); ok {
		return
	}
	pkg.Styles = append(pkg.Styles, s)
}
