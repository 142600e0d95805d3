package ooxml

import (
	"fmt"
	"strings"
)

// Style IDs of the built-in styles New registers.
const (
	StyleNormal     = "Normal"
	StyleListBullet = "ListBullet"
	StyleTitle      = "Title"
	StyleHeading1   = "Heading1"
	StyleHeading2   = "Heading2"
	StyleHeading3   = "Heading3"
	StyleHeader     = "Header"
	StyleFooter     = "Footer"
)

// BulletNumID is the numbering instance bound to the List Bullet style.
const BulletNumID = 1

// Letter page with one-inch margins, in twips.
const (
	defaultPageWidth  = "12240"
	defaultPageHeight = "15840"
	defaultMargin     = "1440"
	defaultHdrFtr     = "720"
)

// New returns an empty document with the built-in styles and a Letter page.
func New() *Package {
	return &Package{
		Final: DefaultSection(),
		Styles: []Style{
			{ID: StyleNormal, Name: "Normal", Type: "paragraph", Default: true},
			{ID: StyleTitle, Name: "Title", Type: "paragraph", BasedOn: StyleNormal},
			{ID: StyleHeading1, Name: "Heading 1", Type: "paragraph", BasedOn: StyleNormal},
			{ID: StyleHeading2, Name: "Heading 2", Type: "paragraph", BasedOn: StyleNormal},
			{ID: StyleHeading3, Name: "Heading 3", Type: "paragraph", BasedOn: StyleNormal},
			{ID: StyleListBullet, Name: "List Bullet", Type: "paragraph", BasedOn: StyleNormal},
			{ID: StyleHeader, Name: "Header", Type: "paragraph", BasedOn: StyleNormal},
			{ID: StyleFooter, Name: "Footer", Type: "paragraph", BasedOn: StyleNormal},
		},
	}
}

// DefaultSection returns a Letter section with one-inch margins.
func DefaultSection() *Section {
	return &Section{
		PageSize: &PageSize{W: defaultPageWidth, H: defaultPageHeight},
		Margins: &PageMargins{
			Top: defaultMargin, Right: defaultMargin, Bottom: defaultMargin, Left: defaultMargin,
			Header: defaultHdrFtr, Footer: defaultHdrFtr, Gutter: "0",
		},
	}
}

// StyleID derives a style ID from a display name the way Word does for
// custom styles: spaces removed.
func StyleID(name string) string {
	return strings.ReplaceAll(name, " ", "")
}

var builtinStyles = map[string]string{
	StyleNormal: `<w:style w:type="paragraph" w:default="1" w:styleId="Normal">` +
		`<w:name w:val="Normal"/><w:qFormat/></w:style>`,
	StyleTitle: `<w:style w:type="paragraph" w:styleId="Title">` +
		`<w:name w:val="Title"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>` +
		`<w:pPr><w:spacing w:after="240"/></w:pPr><w:rPr><w:sz w:val="56"/><w:szCs w:val="56"/></w:rPr></w:style>`,
	StyleHeading1: headingStyle(1, 32),
	StyleHeading2: headingStyle(2, 28),
	StyleHeading3: headingStyle(3, 24),
	StyleListBullet: `<w:style w:type="paragraph" w:styleId="ListBullet">` +
		`<w:name w:val="List Bullet"/><w:basedOn w:val="Normal"/><w:qFormat/>` +
		`<w:pPr><w:numPr><w:numId w:val="1"/></w:numPr><w:ind w:left="360" w:hanging="360"/></w:pPr></w:style>`,
	StyleHeader: `<w:style w:type="paragraph" w:styleId="Header">` +
		`<w:name w:val="header"/><w:basedOn w:val="Normal"/>` +
		`<w:pPr><w:tabs><w:tab w:val="center" w:pos="4680"/><w:tab w:val="right" w:pos="9360"/></w:tabs></w:pPr></w:style>`,
	StyleFooter: `<w:style w:type="paragraph" w:styleId="Footer">` +
		`<w:name w:val="footer"/><w:basedOn w:val="Normal"/>` +
		`<w:pPr><w:tabs><w:tab w:val="center" w:pos="4680"/><w:tab w:val="right" w:pos="9360"/></w:tabs></w:pPr></w:style>`,
}

func headingStyle(level, halfPoints int) string {
	return fmt.Sprintf(`<w:style w:type="paragraph" w:styleId="Heading%d">`+
		`<w:name w:val="heading %d"/><w:basedOn w:val="Normal"/><w:next w:val="Normal"/><w:qFormat/>`+
		`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="60"/><w:outlineLvl w:val="%d"/></w:pPr>`+
		`<w:rPr><w:b/><w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr></w:style>`,
		level, level, level-1, halfPoints, halfPoints)
}

func stylesXML(styles []Style) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<w:styles xmlns:w="` + nsW + `">`)
	b.WriteString(`<w:docDefaults><w:rPrDefault><w:rPr>` +
		`<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/>` +
		`<w:sz w:val="22"/><w:szCs w:val="22"/><w:lang w:val="en-US"/></w:rPr></w:rPrDefault>` +
		`<w:pPrDefault/></w:docDefaults>`)
	if _, ok := findStyle(styles, StyleNormal); !ok {
		b.WriteString(builtinStyles[StyleNormal])
	}
	for _, s := range styles {
		if tmpl, ok := builtinStyles[s.ID]; ok {
			b.WriteString(tmpl)
			continue
		}
		typ := s.Type
		if typ == "" {
			typ = "paragraph"
		}
		fmt.Fprintf(&b, `<w:style w:type="%s"`, escape(typ))
		if s.Default {
			b.WriteString(` w:default="1"`)
		}
		fmt.Fprintf(&b, ` w:customStyle="1" w:styleId="%s"><w:name w:val="%s"/>`, escape(s.ID), escape(s.Name))
		if s.BasedOn != "" {
			fmt.Fprintf(&b, `<w:basedOn w:val="%s"/>`, escape(s.BasedOn))
		}
		b.WriteString(`<w:qFormat/></w:style>`)
	}
	b.WriteString(`</w:styles>`)
	return b.String()
}

func findStyle(styles []Style, id string) (Style, bool) {
	for _, s := range styles {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

const numberingXML = xmlHeader + `<w:numbering xmlns:w="` + nsW + `">` +
	`<w:abstractNum w:abstractNumId="0"><w:multiLevelType w:val="singleLevel"/>` +
	`<w:lvl w:ilvl="0"><w:start w:val="1"/><w:numFmt w:val="bullet"/><w:lvlText w:val="•"/><w:lvlJc w:val="left"/>` +
	`<w:pPr><w:ind w:left="360" w:hanging="360"/></w:pPr></w:lvl></w:abstractNum>` +
	`<w:num w:numId="1"><w:abstractNumId w:val="0"/></w:num>` +
	`</w:numbering>`

const settingsXML = xmlHeader + `<w:settings xmlns:w="` + nsW + `">` +
	`<w:defaultTabStop w:val="720"/><w:characterSpacingControl w:val="doNotCompress"/>` +
	`<w:compat><w:compatSetting w:name="compatibilityMode" w:uri="http://schemas.microsoft.com/office/word" w:val="15"/></w:compat>` +
	`</w:settings>`

const appXML = xmlHeader + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>doctailor</Application></Properties>`

func coreXML(title string) string {
	return xmlHeader + `<cp:coreProperties ` +
		`xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
		`xmlns:dc="http://purl.org/dc/elements/1.1/" ` +
		`xmlns:dcterms="http://purl.org/dc/terms/" ` +
		`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">` +
		`<dc:title>` + escape(title) + `</dc:title><dc:creator>doctailor</dc:creator>` +
		`</cp:coreProperties>`
}
