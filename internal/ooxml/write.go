package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

const (
	nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relDoc       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relCore      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relApp       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
	relStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relSettings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relHeader    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relFooter    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"

	ctMain      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles    = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ctSettings  = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	ctHeader    = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ctFooter    = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	ctCore      = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp       = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRels      = "application/vnd.openxmlformats-package.relationships+xml"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Relationship and content-type parts share one shape for reading and
// writing: a default namespace and unprefixed children.

type xRelationships struct {
	XMLName       xml.Name        `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationships []xRelationship `xml:"Relationship"`
}

type xRelationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

type xContentTypes struct {
	XMLName   xml.Name    `xml:"http://schemas.openxmlformats.org/package/2006/content-types Types"`
	Defaults  []xDefault  `xml:"Default"`
	Overrides []xOverride `xml:"Override"`
}

type xDefault struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type xOverride struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

// Write-side element types carry the w: prefix in their names and the
// namespace declarations on the root.

type wDocument struct {
	XMLName xml.Name `xml:"w:document"`
	W       string   `xml:"xmlns:w,attr"`
	R       string   `xml:"xmlns:r,attr"`
	Body    wBody    `xml:"w:body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"w:p"`
	SectPr     *wSectPr     `xml:"w:sectPr"`
}

type wHdrFtr struct {
	XMLName    xml.Name
	W          string       `xml:"xmlns:w,attr"`
	R          string       `xml:"xmlns:r,attr"`
	Paragraphs []wParagraph `xml:"w:p"`
}

type wParagraph struct {
	PPr  *wPPr  `xml:"w:pPr"`
	Runs []wRun `xml:"w:r"`
}

// Child order follows CT_PPrBase.
type wPPr struct {
	PStyle  *wVal     `xml:"w:pStyle"`
	NumPr   *wNumPr   `xml:"w:numPr"`
	Spacing *wSpacing `xml:"w:spacing"`
	Ind     *wInd     `xml:"w:ind"`
	Jc      *wVal     `xml:"w:jc"`
	SectPr  *wSectPr  `xml:"w:sectPr"`
}

type wVal struct {
	Val string `xml:"w:val,attr"`
}

type wOnOff struct {
	Val string `xml:"w:val,attr,omitempty"`
}

type wNumPr struct {
	Ilvl  wVal `xml:"w:ilvl"`
	NumID wVal `xml:"w:numId"`
}

type wSpacing struct {
	Before   *string `xml:"w:before,attr,omitempty"`
	After    *string `xml:"w:after,attr,omitempty"`
	Line     *string `xml:"w:line,attr,omitempty"`
	LineRule string  `xml:"w:lineRule,attr,omitempty"`
}

type wInd struct {
	Left      *string `xml:"w:left,attr,omitempty"`
	Right     *string `xml:"w:right,attr,omitempty"`
	FirstLine *string `xml:"w:firstLine,attr,omitempty"`
	Hanging   *string `xml:"w:hanging,attr,omitempty"`
}

type wRun struct {
	RPr  *wRPr
	Text string
}

// Child order follows CT_RPr.
type wRPr struct {
	RFonts *wFonts `xml:"w:rFonts"`
	B      *wOnOff `xml:"w:b"`
	I      *wOnOff `xml:"w:i"`
	Color  *wVal   `xml:"w:color"`
	Sz     *wVal   `xml:"w:sz"`
	SzCs   *wVal   `xml:"w:szCs"`
	U      *wVal   `xml:"w:u"`
}

type wFonts struct {
	ASCII    string `xml:"w:ascii,attr,omitempty"`
	HAnsi    string `xml:"w:hAnsi,attr,omitempty"`
	EastAsia string `xml:"w:eastAsia,attr,omitempty"`
	CS       string `xml:"w:cs,attr,omitempty"`
}

type wText struct {
	Space string `xml:"xml:space,attr"`
	Text  string `xml:",chardata"`
}

// MarshalXML writes the run text as w:t segments separated by w:tab and
// w:br elements.
func (r wRun) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if r.RPr != nil {
		if err := e.EncodeElement(r.RPr, xml.StartElement{Name: xml.Name{Local: "w:rPr"}}); err != nil {
			return err
		}
	}
	seg := 0
	flush := func(end int) error {
		if end <= seg {
			return nil
		}
		t := wText{Space: "preserve", Text: r.Text[seg:end]}
		return e.EncodeElement(t, xml.StartElement{Name: xml.Name{Local: "w:t"}})
	}
	for i := 0; i < len(r.Text); i++ {
		var name string
		switch r.Text[i] {
		case '\t':
			name = "w:tab"
		case '\n':
			name = "w:br"
		default:
			continue
		}
		if err := flush(i); err != nil {
			return err
		}
		if err := e.EncodeElement(struct{}{}, xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
			return err
		}
		seg = i + 1
	}
	if err := flush(len(r.Text)); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

type wSectPr struct {
	HeaderRefs []wRef  `xml:"w:headerReference"`
	FooterRefs []wRef  `xml:"w:footerReference"`
	PgSz       *wPgSz  `xml:"w:pgSz"`
	PgMar      *wPgMar `xml:"w:pgMar"`
}

type wRef struct {
	Type string `xml:"w:type,attr"`
	ID   string `xml:"r:id,attr"`
}

type wPgSz struct {
	W      string `xml:"w:w,attr"`
	H      string `xml:"w:h,attr"`
	Orient string `xml:"w:orient,attr,omitempty"`
}

type wPgMar struct {
	Top    string `xml:"w:top,attr"`
	Right  string `xml:"w:right,attr"`
	Bottom string `xml:"w:bottom,attr"`
	Left   string `xml:"w:left,attr"`
	Header string `xml:"w:header,attr"`
	Footer string `xml:"w:footer,attr"`
	Gutter string `xml:"w:gutter,attr"`
}

// writer accumulates the header and footer parts referenced by sections.
type writer struct {
	rels  []xRelationship
	parts []generatedPart
	seen  map[*HeaderFooter]string
}

type generatedPart struct {
	name        string
	contentType string
	data        []byte
}

// Bytes serializes the package as a .docx container. Built-in styles are
// written with their full definitions; any other style is written as a
// named stub based on its parent.
func (pkg *Package) Bytes() ([]byte, error) {
	w := &writer{seen: make(map[*HeaderFooter]string)}
	w.rels = []xRelationship{
		{ID: "rId1", Type: relStyles, Target: "styles.xml"},
		{ID: "rId2", Type: relNumbering, Target: "numbering.xml"},
		{ID: "rId3", Type: relSettings, Target: "settings.xml"},
	}

	doc := wDocument{W: nsW, R: nsR}
	for _, p := range pkg.Body {
		wp, err := w.paragraph(p, true)
		if err != nil {
			return nil, err
		}
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, wp)
	}
	final := pkg.Final
	if final == nil {
		final = DefaultSection()
	}
	sp, err := w.section(final)
	if err != nil {
		return nil, err
	}
	doc.Body.SectPr = sp

	docXML, err := marshalPart(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	docRels, err := marshalPart(xRelationships{Relationships: w.rels})
	if err != nil {
		return nil, fmt.Errorf("marshal document relationships: %w", err)
	}
	pkgRels, err := marshalPart(xRelationships{Relationships: []xRelationship{
		{ID: "rId1", Type: relDoc, Target: "word/document.xml"},
		{ID: "rId2", Type: relCore, Target: "docProps/core.xml"},
		{ID: "rId3", Type: relApp, Target: "docProps/app.xml"},
	}})
	if err != nil {
		return nil, fmt.Errorf("marshal package relationships: %w", err)
	}

	types := xContentTypes{
		Defaults: []xDefault{
			{Extension: "rels", ContentType: ctRels},
			{Extension: "xml", ContentType: "application/xml"},
		},
		Overrides: []xOverride{
			{PartName: "/word/document.xml", ContentType: ctMain},
			{PartName: "/word/styles.xml", ContentType: ctStyles},
			{PartName: "/word/numbering.xml", ContentType: ctNumbering},
			{PartName: "/word/settings.xml", ContentType: ctSettings},
			{PartName: "/docProps/core.xml", ContentType: ctCore},
			{PartName: "/docProps/app.xml", ContentType: ctApp},
		},
	}
	for _, part := range w.parts {
		types.Overrides = append(types.Overrides, xOverride{PartName: "/" + part.name, ContentType: part.contentType})
	}
	typesXML, err := marshalPart(types)
	if err != nil {
		return nil, fmt.Errorf("marshal content types: %w", err)
	}

	entries := []generatedPart{
		{name: "[Content_Types].xml", data: typesXML},
		{name: "_rels/.rels", data: pkgRels},
		{name: "docProps/core.xml", data: []byte(coreXML(pkg.Title))},
		{name: "docProps/app.xml", data: []byte(appXML)},
		{name: "word/document.xml", data: docXML},
		{name: "word/_rels/document.xml.rels", data: docRels},
		{name: "word/styles.xml", data: []byte(stylesXML(pkg.Styles))},
		{name: "word/numbering.xml", data: []byte(numberingXML)},
		{name: "word/settings.xml", data: []byte(settingsXML)},
	}
	entries = append(entries, w.parts...)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close container: %w", err)
	}
	return buf.Bytes(), nil
}

func marshalPart(v any) ([]byte, error) {
	data, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(xmlHeader), data...), nil
}

func (w *writer) paragraph(p *Paragraph, allowSection bool) (wParagraph, error) {
	var wp wParagraph
	pp := &wPPr{}
	set := false
	if p.Props.StyleID != "" {
		pp.PStyle = &wVal{Val: p.Props.StyleID}
		set = true
	}
	if n := p.Props.Numbering; n != nil {
		pp.NumPr = &wNumPr{Ilvl: wVal{Val: strconv.Itoa(n.Level)}, NumID: wVal{Val: strconv.Itoa(n.ID)}}
		set = true
	}
	if s := p.Props.Spacing; s != nil && (s.Before != nil || s.After != nil || s.Line != nil) {
		pp.Spacing = &wSpacing{Before: s.Before, After: s.After, Line: s.Line}
		if s.Line != nil {
			pp.Spacing.LineRule = s.LineRule
		}
		set = true
	}
	if in := p.Props.Indent; in != nil && (in.Left != nil || in.Right != nil || in.FirstLine != nil || in.Hanging != nil) {
		pp.Ind = &wInd{Left: in.Left, Right: in.Right, FirstLine: in.FirstLine, Hanging: in.Hanging}
		set = true
	}
	if p.Props.Justification != "" {
		pp.Jc = &wVal{Val: p.Props.Justification}
		set = true
	}
	if p.SectionBreak != nil && allowSection {
		sp, err := w.section(p.SectionBreak)
		if err != nil {
			return wp, err
		}
		pp.SectPr = sp
		set = true
	}
	if set {
		wp.PPr = pp
	}
	for _, r := range p.Runs {
		wp.Runs = append(wp.Runs, wRun{RPr: runPropsXML(r.Props), Text: r.Text})
	}
	return wp, nil
}

func runPropsXML(rp RunProps) *wRPr {
	x := &wRPr{}
	set := false
	if f := rp.Fonts; f != nil {
		x.RFonts = &wFonts{ASCII: f.ASCII, HAnsi: f.HAnsi, EastAsia: f.EastAsia, CS: f.CS}
		set = true
	}
	if rp.Bold != nil {
		x.B = onOff(*rp.Bold)
		set = true
	}
	if rp.Italic != nil {
		x.I = onOff(*rp.Italic)
		set = true
	}
	if rp.Color != nil {
		x.Color = &wVal{Val: *rp.Color}
		set = true
	}
	if rp.Size != nil {
		v := strconv.Itoa(*rp.Size)
		x.Sz = &wVal{Val: v}
		x.SzCs = &wVal{Val: v}
		set = true
	}
	if rp.Underline != nil {
		x.U = &wVal{Val: *rp.Underline}
		set = true
	}
	if !set {
		return nil
	}
	return x
}

func onOff(b bool) *wOnOff {
	if b {
		return &wOnOff{}
	}
	return &wOnOff{Val: "0"}
}

func (w *writer) section(s *Section) (*wSectPr, error) {
	sp := &wSectPr{}
	if s.PageSize != nil {
		sp.PgSz = &wPgSz{W: s.PageSize.W, H: s.PageSize.H, Orient: s.PageSize.Orient}
	}
	if m := s.Margins; m != nil {
		sp.PgMar = &wPgMar{
			Top: orZero(m.Top), Right: orZero(m.Right), Bottom: orZero(m.Bottom), Left: orZero(m.Left),
			Header: orZero(m.Header), Footer: orZero(m.Footer), Gutter: orZero(m.Gutter),
		}
	}
	if s.Header != nil {
		id, err := w.headerFooter(s.Header, "hdr", "header", relHeader, ctHeader)
		if err != nil {
			return nil, err
		}
		sp.HeaderRefs = []wRef{{Type: "default", ID: id}}
	}
	if s.Footer != nil {
		id, err := w.headerFooter(s.Footer, "ftr", "footer", relFooter, ctFooter)
		if err != nil {
			return nil, err
		}
		sp.FooterRefs = []wRef{{Type: "default", ID: id}}
	}
	return sp, nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// headerFooter emits a header or footer part once per distinct content and
// returns its relationship ID.
func (w *writer) headerFooter(hf *HeaderFooter, root, kind, relType, contentType string) (string, error) {
	if id, ok := w.seen[hf]; ok {
		return id, nil
	}
	x := wHdrFtr{XMLName: xml.Name{Local: "w:" + root}, W: nsW, R: nsR}
	for _, p := range hf.Paragraphs {
		wp, err := w.paragraph(p, false)
		if err != nil {
			return "", err
		}
		x.Paragraphs = append(x.Paragraphs, wp)
	}
	if len(x.Paragraphs) == 0 {
		// a header part needs at least one paragraph
		x.Paragraphs = []wParagraph{{}}
	}
	data, err := marshalPart(x)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", kind, err)
	}
	n := 1
	for _, p := range w.parts {
		if p.contentType == contentType {
			n++
		}
	}
	target := fmt.Sprintf("%s%d.xml", kind, n)
	id := fmt.Sprintf("rId%d", len(w.rels)+1)
	w.rels = append(w.rels, xRelationship{ID: id, Type: relType, Target: target})
	w.parts = append(w.parts, generatedPart{name: "word/" + target, contentType: contentType, data: data})
	w.seen[hf] = id
	return id, nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
