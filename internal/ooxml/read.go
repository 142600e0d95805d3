package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// ErrNoDocument is returned when the package has no main document part.
var ErrNoDocument = errors.New("package has no main document part")

var errPartMissing = errors.New("part missing")

// maxPartSize caps any single decompressed part.
const maxPartSize = 64 << 20

// Element decoding is namespace-agnostic: tags carry local names only, which
// matches both the transitional and strict WordprocessingML namespaces.

type xVal struct {
	Val *string `xml:"val,attr"`
}

type xDocument struct {
	Body xBody `xml:"body"`
}

type xBody struct {
	Paragraphs []xParagraph `xml:"p"`
	SectPr     *xSectPr     `xml:"sectPr"`
}

type xHdrFtr struct {
	Paragraphs []xParagraph `xml:"p"`
}

type xParagraph struct {
	PPr  *xPPr
	Runs []xRun
}

// UnmarshalXML keeps runs in document order, including runs nested in
// hyperlinks, insertions, smart tags and content controls.
func (p *xParagraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				p.PPr = &xPPr{}
				if err := d.DecodeElement(p.PPr, &t); err != nil {
					return err
				}
			case "r":
				var r xRun
				if err := d.DecodeElement(&r, &t); err != nil {
					return err
				}
				p.Runs = append(p.Runs, r)
			case "hyperlink", "ins", "smartTag", "customXml", "sdt", "sdtContent", "fldSimple":
				if err := p.UnmarshalXML(d, t); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xPPr struct {
	PStyle  *xVal     `xml:"pStyle"`
	Jc      *xVal     `xml:"jc"`
	Spacing *xSpacing `xml:"spacing"`
	Ind     *xInd     `xml:"ind"`
	NumPr   *xNumPr   `xml:"numPr"`
	SectPr  *xSectPr  `xml:"sectPr"`
}

type xSpacing struct {
	Before   *string `xml:"before,attr"`
	After    *string `xml:"after,attr"`
	Line     *string `xml:"line,attr"`
	LineRule string  `xml:"lineRule,attr"`
}

type xInd struct {
	Left      *string `xml:"left,attr"`
	Start     *string `xml:"start,attr"`
	Right     *string `xml:"right,attr"`
	End       *string `xml:"end,attr"`
	FirstLine *string `xml:"firstLine,attr"`
	Hanging   *string `xml:"hanging,attr"`
}

type xNumPr struct {
	Ilvl  *xVal `xml:"ilvl"`
	NumID *xVal `xml:"numId"`
}

type xRun struct {
	RPr  *xRPr
	Text string
}

// UnmarshalXML flattens the run's content into text: w:t verbatim, w:tab as
// '\t' and text-wrapping breaks as '\n'. Page and column breaks carry no text.
func (r *xRun) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				r.RPr = &xRPr{}
				if err := d.DecodeElement(r.RPr, &t); err != nil {
					return err
				}
				continue
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				sb.WriteString(s)
				continue
			case "tab", "ptab":
				sb.WriteByte('\t')
			case "br":
				if breakType(t) == "" || breakType(t) == "textWrapping" {
					sb.WriteByte('\n')
				}
			case "cr":
				sb.WriteByte('\n')
			case "noBreakHyphen":
				sb.WriteByte('-')
			}
			if err := d.Skip(); err != nil {
				return err
			}
		case xml.EndElement:
			r.Text = sb.String()
			return nil
		}
	}
}

func breakType(t xml.StartElement) string {
	for _, a := range t.Attr {
		if a.Name.Local == "type" {
			return a.Value
		}
	}
	return ""
}

type xRPr struct {
	RFonts *xFonts `xml:"rFonts"`
	B      *xVal   `xml:"b"`
	I      *xVal   `xml:"i"`
	U      *xVal   `xml:"u"`
	Sz     *xVal   `xml:"sz"`
	Color  *xVal   `xml:"color"`
}

type xFonts struct {
	ASCII    string `xml:"ascii,attr"`
	HAnsi    string `xml:"hAnsi,attr"`
	EastAsia string `xml:"eastAsia,attr"`
	CS       string `xml:"cs,attr"`
}

type xSectPr struct {
	HeaderRefs []xRef  `xml:"headerReference"`
	FooterRefs []xRef  `xml:"footerReference"`
	PgSz       *xPgSz  `xml:"pgSz"`
	PgMar      *xPgMar `xml:"pgMar"`
}

type xRef struct {
	Type string `xml:"type,attr"`
	ID   string `xml:"id,attr"`
}

type xPgSz struct {
	W      string `xml:"w,attr"`
	H      string `xml:"h,attr"`
	Orient string `xml:"orient,attr"`
}

type xPgMar struct {
	Top    string `xml:"top,attr"`
	Right  string `xml:"right,attr"`
	Bottom string `xml:"bottom,attr"`
	Left   string `xml:"left,attr"`
	Header string `xml:"header,attr"`
	Footer string `xml:"footer,attr"`
	Gutter string `xml:"gutter,attr"`
}

type xStyles struct {
	Styles []xStyle `xml:"style"`
}

type xStyle struct {
	Type    string `xml:"type,attr"`
	ID      string `xml:"styleId,attr"`
	Default string `xml:"default,attr"`
	Name    *xVal  `xml:"name"`
	BasedOn *xVal  `xml:"basedOn"`
}

// reader resolves parts of an open zip container.
type reader struct {
	files   map[string]*zip.File
	docPath string
	docRels map[string]relationship
	parts   map[string]*HeaderFooter
}

type relationship struct {
	Type   string
	Target string
}

// Open parses a .docx container.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	rd := &reader{
		files: make(map[string]*zip.File, len(zr.File)),
		parts: make(map[string]*HeaderFooter),
	}
	for _, f := range zr.File {
		rd.files[strings.TrimPrefix(f.Name, "/")] = f
	}

	rd.docPath = rd.mainDocumentPath()
	if _, ok := rd.files[rd.docPath]; !ok {
		return nil, ErrNoDocument
	}
	rd.docRels, err = rd.relationships(path.Join(path.Dir(rd.docPath), "_rels", path.Base(rd.docPath)+".rels"))
	if err != nil {
		return nil, err
	}

	var doc xDocument
	if err := rd.decode(rd.docPath, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", rd.docPath, err)
	}

	pkg := &Package{}
	if pkg.Styles, err = rd.styles(); err != nil {
		return nil, err
	}
	for _, xp := range doc.Body.Paragraphs {
		p, err := rd.paragraph(xp, true)
		if err != nil {
			return nil, err
		}
		pkg.Body = append(pkg.Body, p)
	}
	if doc.Body.SectPr != nil {
		if pkg.Final, err = rd.section(doc.Body.SectPr); err != nil {
			return nil, err
		}
	}
	return pkg, nil
}

func (rd *reader) mainDocumentPath() string {
	rels, err := rd.relationships("_rels/.rels")
	if err == nil {
		for _, r := range rels {
			if strings.HasSuffix(r.Type, "/officeDocument") {
				return resolveTarget("", r.Target)
			}
		}
	}
	return "word/document.xml"
}

func (rd *reader) read(name string) ([]byte, error) {
	f, ok := rd.files[name]
	if !ok {
		return nil, fmt.Errorf("part %s: %w", name, errPartMissing)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartSize+1))
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	if len(data) > maxPartSize {
		return nil, fmt.Errorf("part %s exceeds %d bytes", name, maxPartSize)
	}
	return data, nil
}

func (rd *reader) decode(name string, v any) error {
	data, err := rd.read(name)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}

// relationships loads a .rels part. A missing part yields an empty set.
func (rd *reader) relationships(name string) (map[string]relationship, error) {
	out := make(map[string]relationship)
	if _, ok := rd.files[name]; !ok {
		return out, nil
	}
	var rels xRelationships
	if err := rd.decode(name, &rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	for _, r := range rels.Relationships {
		if r.TargetMode == "External" {
			continue
		}
		out[r.ID] = relationship{Type: r.Type, Target: r.Target}
	}
	return out, nil
}

// resolveTarget turns a relationship target into a zip entry name.
func resolveTarget(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(base, target)
}

func (rd *reader) styles() ([]Style, error) {
	name := ""
	for _, r := range rd.docRels {
		if strings.HasSuffix(r.Type, "/styles") {
			name = resolveTarget(path.Dir(rd.docPath), r.Target)
			break
		}
	}
	if name == "" {
		name = path.Join(path.Dir(rd.docPath), "styles.xml")
	}
	if _, ok := rd.files[name]; !ok {
		return nil, nil
	}
	var xs xStyles
	if err := rd.decode(name, &xs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	out := make([]Style, 0, len(xs.Styles))
	for _, s := range xs.Styles {
		st := Style{
			ID:      s.ID,
			Name:    s.ID,
			Type:    s.Type,
			Default: isTrue(s.Default),
		}
		if s.Name != nil && s.Name.Val != nil {
			st.Name = uiStyleName(*s.Name.Val)
		}
		if s.BasedOn != nil && s.BasedOn.Val != nil {
			st.BasedOn = *s.BasedOn.Val
		}
		out = append(out, st)
	}
	return out, nil
}

// builtin styles are stored under lowercase names; Word shows them
// capitalized.
var uiNames = map[string]string{
	"normal":         "Normal",
	"title":          "Title",
	"subtitle":       "Subtitle",
	"header":         "Header",
	"footer":         "Footer",
	"caption":        "Caption",
	"list bullet":    "List Bullet",
	"list number":    "List Number",
	"list paragraph": "List Paragraph",
	"no spacing":     "No Spacing",
}

func uiStyleName(name string) string {
	if ui, ok := uiNames[name]; ok {
		return ui
	}
	if strings.HasPrefix(name, "heading ") {
		return "H" + name[1:]
	}
	return name
}

func (rd *reader) paragraph(xp xParagraph, allowSection bool) (*Paragraph, error) {
	p := &Paragraph{Runs: make([]*Run, 0, len(xp.Runs))}
	if pp := xp.PPr; pp != nil {
		if pp.PStyle != nil && pp.PStyle.Val != nil {
			p.Props.StyleID = *pp.PStyle.Val
		}
		if pp.Jc != nil && pp.Jc.Val != nil {
			p.Props.Justification = *pp.Jc.Val
		}
		if sp := pp.Spacing; sp != nil {
			p.Props.Spacing = &Spacing{Before: sp.Before, After: sp.After, Line: sp.Line, LineRule: sp.LineRule}
		}
		if in := pp.Ind; in != nil {
			ind := &Indent{Left: in.Left, Right: in.Right, FirstLine: in.FirstLine, Hanging: in.Hanging}
			if ind.Left == nil {
				ind.Left = in.Start
			}
			if ind.Right == nil {
				ind.Right = in.End
			}
			p.Props.Indent = ind
		}
		if np := pp.NumPr; np != nil && np.NumID != nil && np.NumID.Val != nil {
			id, err := strconv.Atoi(*np.NumID.Val)
			if err == nil {
				num := &Numbering{ID: id}
				if np.Ilvl != nil && np.Ilvl.Val != nil {
					num.Level, _ = strconv.Atoi(*np.Ilvl.Val)
				}
				p.Props.Numbering = num
			}
		}
		if pp.SectPr != nil && allowSection {
			sec, err := rd.section(pp.SectPr)
			if err != nil {
				return nil, err
			}
			p.SectionBreak = sec
		}
	}
	for _, xr := range xp.Runs {
		p.Runs = append(p.Runs, &Run{Text: xr.Text, Props: runProps(xr.RPr)})
	}
	return p, nil
}

func runProps(x *xRPr) RunProps {
	var rp RunProps
	if x == nil {
		return rp
	}
	if f := x.RFonts; f != nil && (f.ASCII != "" || f.HAnsi != "" || f.EastAsia != "" || f.CS != "") {
		rp.Fonts = &Fonts{ASCII: f.ASCII, HAnsi: f.HAnsi, EastAsia: f.EastAsia, CS: f.CS}
	}
	rp.Bold = toggle(x.B)
	rp.Italic = toggle(x.I)
	if x.U != nil {
		u := "single"
		if x.U.Val != nil {
			u = *x.U.Val
		}
		rp.Underline = &u
	}
	if x.Sz != nil && x.Sz.Val != nil {
		if n, err := strconv.Atoi(*x.Sz.Val); err == nil && n > 0 {
			rp.Size = &n
		}
	}
	if x.Color != nil && x.Color.Val != nil {
		c := *x.Color.Val
		rp.Color = &c
	}
	return rp
}

// toggle decodes an ST_OnOff element: absent is nil, present without a value
// is true.
func toggle(v *xVal) *bool {
	if v == nil {
		return nil
	}
	b := true
	if v.Val != nil {
		b = isTrue(*v.Val)
	}
	return &b
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "off":
		return false
	}
	return s != ""
}

func (rd *reader) section(x *xSectPr) (*Section, error) {
	sec := &Section{}
	if x.PgSz != nil {
		sec.PageSize = &PageSize{W: x.PgSz.W, H: x.PgSz.H, Orient: x.PgSz.Orient}
	}
	if m := x.PgMar; m != nil {
		sec.Margins = &PageMargins{
			Top: m.Top, Right: m.Right, Bottom: m.Bottom, Left: m.Left,
			Header: m.Header, Footer: m.Footer, Gutter: m.Gutter,
		}
	}
	var err error
	if sec.Header, err = rd.headerFooter(x.HeaderRefs); err != nil {
		return nil, err
	}
	if sec.Footer, err = rd.headerFooter(x.FooterRefs); err != nil {
		return nil, err
	}
	return sec, nil
}

// headerFooter loads the default header or footer, falling back to the first
// reference of any type.
func (rd *reader) headerFooter(refs []xRef) (*HeaderFooter, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ref := refs[0]
	for _, r := range refs {
		if r.Type == "default" {
			ref = r
			break
		}
	}
	rel, ok := rd.docRels[ref.ID]
	if !ok {
		return nil, nil
	}
	name := resolveTarget(path.Dir(rd.docPath), rel.Target)
	if hf, ok := rd.parts[name]; ok {
		return hf, nil
	}
	if _, ok := rd.files[name]; !ok {
		return nil, nil
	}
	var x xHdrFtr
	if err := rd.decode(name, &x); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	hf := &HeaderFooter{}
	for _, xp := range x.Paragraphs {
		p, err := rd.paragraph(xp, false)
		if err != nil {
			return nil, err
		}
		hf.Paragraphs = append(hf.Paragraphs, p)
	}
	rd.parts[name] = hf
	return hf, nil
}
