package parser

import (
	"errors"
	"testing"

	"github.com/dgallion1/doctailor/internal/ooxml"
	"github.com/dgallion1/doctailor/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func resumeFixture(t *testing.T) []byte {
	t.Helper()
	pkg := ooxml.New()

	name := pkg.AddParagraph()
	name.Props.StyleID = ooxml.StyleTitle
	name.Props.Justification = "center"
	name.Props.Spacing = &ooxml.Spacing{Before: sp("0"), After: sp("120"), Line: sp("276"), LineRule: "auto"}
	r := name.AddRun("Jane Doe")
	r.Props.Bold = snapshot.Ptr(true)
	r.Props.Italic = snapshot.Ptr(false)
	r.Props.Underline = sp("single")
	r.Props.Size = snapshot.Ptr(32)
	r.Props.Fonts = &ooxml.Fonts{ASCII: "Garamond"}
	r.Props.Color = sp("1F4E79")

	bullet := pkg.AddParagraph()
	bullet.Props.StyleID = ooxml.StyleListBullet
	bullet.Props.Indent = &ooxml.Indent{Left: sp("720"), Right: sp("0.5in"), Hanging: sp("360")}
	bullet.Props.Spacing = &ooxml.Spacing{Line: sp("240"), LineRule: "exact"}
	bullet.AddRun("Shipped ")
	plain := bullet.AddRun("things")
	plain.Props.Underline = sp("none")
	plain.Props.Color = sp("auto")

	blank := pkg.AddParagraph()
	blank.SectionBreak = &ooxml.Section{
		PageSize: &ooxml.PageSize{W: "15840", H: "12240", Orient: "landscape"},
		Margins:  &ooxml.PageMargins{Top: "720", Bottom: "720", Left: "1080", Right: "1080", Header: "360", Footer: "360"},
		Header:   &ooxml.HeaderFooter{Paragraphs: []*ooxml.Paragraph{{Runs: []*ooxml.Run{{Text: "Jane Doe"}}}}},
	}

	custom := pkg.AddParagraph()
	custom.Props.StyleID = "ResumeSection"
	pkg.AddStyle(ooxml.Style{ID: "ResumeSection", Name: "Resume Section", Type: "paragraph"})
	custom.AddRun("Experience")

	pkg.Final.Footer = &ooxml.HeaderFooter{Paragraphs: []*ooxml.Paragraph{
		{Runs: []*ooxml.Run{{Text: "Page "}, {Text: "1"}}},
		{Runs: []*ooxml.Run{{Text: "ignored"}}},
	}}

	data, err := pkg.Bytes()
	require.NoError(t, err)
	return data
}

func TestExtract_ParagraphFormatting(t *testing.T) {
	snap, err := Extract(resumeFixture(t))
	require.NoError(t, err)
	require.Len(t, snap.Paragraphs, 4)

	p := snap.Paragraphs[0]
	assert.Equal(t, "Jane Doe", p.Text)
	assert.Equal(t, "Title", p.Style)
	assert.Equal(t, snapshot.AlignCenter, p.Alignment)
	assert.Equal(t, snapshot.Length(0), *p.SpaceBefore)
	assert.Equal(t, snapshot.Length(120), *p.SpaceAfter)
	assert.InDelta(t, 1.15, *p.LineSpacing, 1e-9)
	assert.Equal(t, snapshot.LineAuto, *p.LineRule)
	assert.Nil(t, p.LeftIndent)
	assert.Nil(t, p.FirstLineIndent)

	b := snap.Paragraphs[1]
	assert.Equal(t, "List Bullet", b.Style)
	assert.Equal(t, snapshot.AlignUnset, b.Alignment)
	assert.Equal(t, snapshot.Length(720), *b.LeftIndent)
	assert.Equal(t, snapshot.Length(720), *b.RightIndent)
	assert.Equal(t, snapshot.Length(-360), *b.FirstLineIndent)
	assert.InDelta(t, 12.0, *b.LineSpacing, 1e-9)
	assert.Equal(t, snapshot.LineExact, *b.LineRule)
	assert.Nil(t, b.SpaceBefore)
	assert.Nil(t, b.SpaceAfter)
	assert.Equal(t, "Shipped things", b.Content())
}

func TestExtract_RunFormatting(t *testing.T) {
	snap, err := Extract(resumeFixture(t))
	require.NoError(t, err)

	r := snap.Paragraphs[0].Runs[0]
	assert.True(t, *r.Bold)
	assert.False(t, *r.Italic)
	assert.True(t, *r.Underline)
	assert.Equal(t, "Garamond", *r.FontName)
	assert.Equal(t, 16.0, *r.FontSize)
	assert.Equal(t, snapshot.RGB{R: 0x1F, G: 0x4E, B: 0x79}, *r.Color)

	bare := snap.Paragraphs[1].Runs[0]
	assert.False(t, bare.HasOverrides(), "unset attributes must stay absent")

	off := snap.Paragraphs[1].Runs[1]
	require.NotNil(t, off.Underline)
	assert.False(t, *off.Underline)
	assert.Nil(t, off.Color, "auto color is inherited")
}

func TestExtract_SectionsAndHeaders(t *testing.T) {
	snap, err := Extract(resumeFixture(t))
	require.NoError(t, err)
	require.Len(t, snap.Sections, 2)

	first := snap.Sections[0]
	assert.Equal(t, snapshot.Length(15840), first.PageWidth)
	assert.Equal(t, snapshot.Length(12240), first.PageHeight)
	assert.Equal(t, snapshot.Length(1080), first.MarginLeft)
	assert.Equal(t, snapshot.Length(360), first.HeaderDistance)
	require.NotNil(t, first.HeaderText)
	assert.Equal(t, "Jane Doe", *first.HeaderText)
	assert.Nil(t, first.FooterText)

	last := snap.Sections[1]
	assert.Equal(t, snapshot.Length(12240), last.PageWidth)
	assert.Equal(t, snapshot.Length(1440), last.MarginTop)
	assert.Nil(t, last.HeaderText)
	require.NotNil(t, last.FooterText)
	assert.Equal(t, "Page 1", *last.FooterText)

	sections := []int{0, 0, 0, 1}
	for i, p := range snap.Paragraphs {
		assert.Equal(t, sections[i], p.Section, "paragraph %d", i)
	}
}

func TestExtract_EmptyParagraphAndCustomStyle(t *testing.T) {
	snap, err := Extract(resumeFixture(t))
	require.NoError(t, err)

	blank := snap.Paragraphs[2]
	assert.Empty(t, blank.Text)
	assert.NotNil(t, blank.Runs)
	assert.Empty(t, blank.Runs)
	assert.Equal(t, "Normal", blank.Style)

	assert.Equal(t, "Resume Section", snap.Paragraphs[3].Style)
	assert.NoError(t, snap.Validate())
}

func TestExtract_Malformed(t *testing.T) {
	_, err := Extract([]byte("definitely not a docx"))
	var mde *MalformedDocumentError
	require.True(t, errors.As(err, &mde), "expected MalformedDocumentError, got %v", err)
	assert.NotNil(t, mde.Unwrap())
}

func TestExtract_BadMeasure(t *testing.T) {
	pkg := ooxml.New()
	p := pkg.AddParagraph()
	p.Props.Indent = &ooxml.Indent{Left: sp("wide")}
	data, err := pkg.Bytes()
	require.NoError(t, err)

	_, err = Extract(data)
	var mde *MalformedDocumentError
	require.ErrorAs(t, err, &mde)
	assert.Contains(t, mde.Error(), "left indent")
}

func TestPlainText_Garbage(t *testing.T) {
	_, err := PlainTextBytes([]byte("nope"))
	var mde *MalformedDocumentError
	assert.ErrorAs(t, err, &mde)
}

func TestIsSupportedExtension(t *testing.T) {
	assert.True(t, IsSupportedExtension("resume.docx"))
	assert.True(t, IsSupportedExtension("RESUME.DOCX"))
	assert.False(t, IsSupportedExtension("resume.pdf"))
	assert.False(t, IsSupportedExtension("resume"))
}
