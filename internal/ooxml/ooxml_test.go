package ooxml

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipParts(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`

func handmade(t *testing.T, body string) []byte {
	t.Helper()
	return zipParts(t, map[string]string{
		"_rels/.rels": `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId7" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/header" Target="header2.xml"/>` +
			`<Relationship Id="rId8" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
			`<Relationship Id="rId9" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink" Target="https://example.com" TargetMode="External"/>` +
			`</Relationships>`,
		"word/styles.xml": `<w:styles ` + wordNS + `>` +
			`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>` +
			`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/></w:style>` +
			`<w:style w:type="paragraph" w:styleId="ResumeName"><w:name w:val="Resume Name"/></w:style>` +
			`</w:styles>`,
		"word/header2.xml": `<w:hdr ` + wordNS + `><w:p><w:r><w:t>Jane Doe</w:t></w:r><w:r><w:t xml:space="preserve"> | Resume</w:t></w:r></w:p></w:hdr>`,
		"word/document.xml": `<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`,
	})
}

func TestOpen_ParagraphAndRunProperties(t *testing.T) {
	data := handmade(t, `
<w:p>
  <w:pPr><w:pStyle w:val="Heading1"/><w:jc w:val="center"/>
    <w:spacing w:before="120" w:after="0" w:line="276" w:lineRule="auto"/>
    <w:ind w:start="720" w:hanging="360"/></w:pPr>
  <w:r><w:rPr><w:rFonts w:ascii="Georgia"/><w:b/><w:i w:val="0"/><w:sz w:val="28"/><w:color w:val="1F4E79"/></w:rPr><w:t>Senior</w:t></w:r>
  <w:hyperlink r:id="rId9"><w:r><w:rPr><w:u w:val="single"/></w:rPr><w:t xml:space="preserve"> Engineer</w:t></w:r></w:hyperlink>
  <w:r><w:rPr><w:u w:val="none"/><w:color w:val="auto"/></w:rPr><w:tab/><w:t>2020</w:t><w:br/><w:t>x</w:t><w:br w:type="page"/></w:r>
</w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>skipped</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
<w:p/>
<w:sectPr><w:headerReference w:type="default" r:id="rId7"/><w:pgSz w:w="12240" w:h="15840"/>
  <w:pgMar w:top="1440" w:right="1080" w:bottom="1440" w:left="1080" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`)

	pkg, err := Open(data)
	require.NoError(t, err)
	require.Len(t, pkg.Body, 2)

	p := pkg.Body[0]
	assert.Equal(t, "Heading1", p.Props.StyleID)
	assert.Equal(t, "center", p.Props.Justification)
	require.NotNil(t, p.Props.Spacing)
	assert.Equal(t, "120", *p.Props.Spacing.Before)
	assert.Equal(t, "0", *p.Props.Spacing.After)
	assert.Equal(t, "276", *p.Props.Spacing.Line)
	assert.Equal(t, "auto", p.Props.Spacing.LineRule)
	require.NotNil(t, p.Props.Indent)
	assert.Equal(t, "720", *p.Props.Indent.Left)
	assert.Equal(t, "360", *p.Props.Indent.Hanging)
	assert.Nil(t, p.Props.Indent.Right)

	require.Len(t, p.Runs, 3)
	assert.Equal(t, "Senior Engineer\t2020\nx", p.Text())

	r0 := p.Runs[0].Props
	assert.Equal(t, "Georgia", r0.Fonts.ASCII)
	assert.True(t, *r0.Bold)
	assert.False(t, *r0.Italic)
	assert.Equal(t, 28, *r0.Size)
	assert.Equal(t, "1F4E79", *r0.Color)
	assert.Nil(t, r0.Underline)

	assert.Equal(t, "single", *p.Runs[1].Props.Underline)
	assert.Nil(t, p.Runs[1].Props.Bold)

	assert.Equal(t, "none", *p.Runs[2].Props.Underline)
	assert.Equal(t, "auto", *p.Runs[2].Props.Color)

	assert.Empty(t, pkg.Body[1].Runs)

	require.NotNil(t, pkg.Final)
	assert.Equal(t, "12240", pkg.Final.PageSize.W)
	assert.Equal(t, "1080", pkg.Final.Margins.Left)
	require.NotNil(t, pkg.Final.Header)
	require.Len(t, pkg.Final.Header.Paragraphs, 1)
	assert.Equal(t, "Jane Doe | Resume", pkg.Final.Header.Paragraphs[0].Text())
	assert.Nil(t, pkg.Final.Footer)
}

func TestOpen_Styles(t *testing.T) {
	pkg, err := Open(handmade(t, `<w:p/>`))
	require.NoError(t, err)

	s, ok := pkg.StyleByID("Heading1")
	require.True(t, ok)
	assert.Equal(t, "Heading 1", s.Name)
	assert.Equal(t, "Normal", s.BasedOn)

	s, ok = pkg.StyleByName("Resume Name")
	require.True(t, ok)
	assert.Equal(t, "ResumeName", s.ID)

	assert.Equal(t, "Normal", pkg.DefaultParagraphStyle().Name)
}

func TestOpen_SectionBreakInParagraph(t *testing.T) {
	pkg, err := Open(handmade(t, `
<w:p><w:pPr><w:sectPr><w:pgSz w:w="15840" w:h="12240" w:orient="landscape"/></w:sectPr></w:pPr><w:r><w:t>first</w:t></w:r></w:p>
<w:p><w:r><w:t>second</w:t></w:r></w:p>
<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`))
	require.NoError(t, err)

	secs := pkg.Sections()
	require.Len(t, secs, 2)
	assert.Equal(t, "landscape", secs[0].PageSize.Orient)
	assert.Same(t, pkg.Body[0].SectionBreak, secs[0])
	assert.Same(t, pkg.Final, secs[1])
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open([]byte("not a zip"))
	assert.Error(t, err)

	_, err = Open(zipParts(t, map[string]string{"hello.txt": "hi"}))
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = Open(zipParts(t, map[string]string{"word/document.xml": "<w:document><w:body><w:p>"}))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	pkg := New()
	pkg.Title = "Tailored <Resume>"

	title := pkg.AddParagraph()
	title.Props.StyleID = StyleTitle
	title.Props.Justification = "center"
	r := title.AddRun("Jane Doe")
	r.Props.Bold = ptr(true)
	r.Props.Size = ptr(36)
	r.Props.Fonts = &Fonts{ASCII: "Garamond", HAnsi: "Garamond"}

	bullet := pkg.AddParagraph()
	bullet.Props.StyleID = StyleListBullet
	bullet.Props.Spacing = &Spacing{After: ptr("60"), Line: ptr("240"), LineRule: "auto"}
	bullet.Props.Indent = &Indent{Left: ptr("720"), FirstLine: ptr("0")}
	b := bullet.AddRun("Led migration & <rollout>\tQ3")
	b.Props.Italic = ptr(false)
	b.Props.Underline = ptr("none")
	b.Props.Color = ptr("C00000")

	custom := pkg.AddParagraph()
	custom.Props.StyleID = StyleID("Resume Section")
	pkg.AddStyle(Style{ID: StyleID("Resume Section"), Name: "Resume Section", Type: "paragraph", BasedOn: StyleNormal})
	custom.AddRun("")
	custom.SectionBreak = &Section{
		PageSize: &PageSize{W: "12240", H: "15840"},
		Margins:  &PageMargins{Top: "720", Bottom: "720", Left: "720", Right: "720"},
		Header:   &HeaderFooter{Paragraphs: []*Paragraph{{Runs: []*Run{{Text: "Page header"}}}}},
	}
	pkg.AddParagraph().AddRun("Closing")
	pkg.Final.Footer = &HeaderFooter{Paragraphs: []*Paragraph{{Runs: []*Run{{Text: "Footer text"}}}}}

	data, err := pkg.Bytes()
	require.NoError(t, err)

	back, err := Open(data)
	require.NoError(t, err)
	require.Len(t, back.Body, 4)

	bt := back.Body[0]
	assert.Equal(t, StyleTitle, bt.Props.StyleID)
	assert.Equal(t, "center", bt.Props.Justification)
	assert.Nil(t, bt.Props.Spacing)
	require.Len(t, bt.Runs, 1)
	assert.Equal(t, "Jane Doe", bt.Runs[0].Text)
	assert.True(t, *bt.Runs[0].Props.Bold)
	assert.Nil(t, bt.Runs[0].Props.Italic)
	assert.Equal(t, 36, *bt.Runs[0].Props.Size)
	assert.Equal(t, "Garamond", bt.Runs[0].Props.Fonts.ASCII)

	bb := back.Body[1]
	assert.Equal(t, "Led migration & <rollout>\tQ3", bb.Text())
	assert.Nil(t, bb.Props.Spacing.Before)
	assert.Equal(t, "60", *bb.Props.Spacing.After)
	assert.Equal(t, "auto", bb.Props.Spacing.LineRule)
	assert.Equal(t, "0", *bb.Props.Indent.FirstLine)
	assert.Nil(t, bb.Props.Indent.Hanging)
	assert.False(t, *bb.Runs[0].Props.Italic)
	assert.Equal(t, "none", *bb.Runs[0].Props.Underline)
	assert.Equal(t, "C00000", *bb.Runs[0].Props.Color)
	assert.Nil(t, bb.Runs[0].Props.Bold)

	secs := back.Sections()
	require.Len(t, secs, 2)
	assert.Equal(t, "720", secs[0].Margins.Top)
	assert.Equal(t, "0", secs[0].Margins.Header)
	require.NotNil(t, secs[0].Header)
	assert.Equal(t, "Page header", secs[0].Header.Paragraphs[0].Text())
	assert.Nil(t, secs[0].Footer)
	assert.Equal(t, "1440", secs[1].Margins.Left)
	require.NotNil(t, secs[1].Footer)
	assert.Equal(t, "Footer text", secs[1].Footer.Paragraphs[0].Text())

	s, ok := back.StyleByID("ResumeSection")
	require.True(t, ok)
	assert.Equal(t, "Resume Section", s.Name)
	s, ok = back.StyleByID(StyleListBullet)
	require.True(t, ok)
	assert.Equal(t, "List Bullet", s.Name)
	s, ok = back.StyleByID(StyleHeading2)
	require.True(t, ok)
	assert.Equal(t, "Heading 2", s.Name)
}

func TestBytes_ContainsRequiredParts(t *testing.T) {
	data, err := New().Bytes()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/_rels/document.xml.rels",
		"word/styles.xml", "word/numbering.xml", "word/settings.xml",
		"docProps/core.xml", "docProps/app.xml",
	} {
		assert.True(t, names[want], want)
	}
	assert.Equal(t, "[Content_Types].xml", zr.File[0].Name)
}

func TestBytes_SharedHeaderWrittenOnce(t *testing.T) {
	pkg := New()
	hdr := &HeaderFooter{Paragraphs: []*Paragraph{{Runs: []*Run{{Text: "same"}}}}}
	p := pkg.AddParagraph()
	p.SectionBreak = &Section{Header: hdr}
	pkg.Final.Header = hdr

	data, err := pkg.Bytes()
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var headers int
	for _, f := range zr.File {
		if f.Name == "word/header1.xml" || f.Name == "word/header2.xml" {
			headers++
		}
	}
	assert.Equal(t, 1, headers)
}

func ptr[T any](v T) *T { return &v }
