package reapply

import (
	"errors"
	"testing"

	"github.com/dgallion1/doctailor/internal/ooxml"
	"github.com/dgallion1/doctailor/internal/parser"
	"github.com/dgallion1/doctailor/internal/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sp(s string) *string { return &s }

func letter() snapshot.SectionGeometry {
	return snapshot.SectionGeometry{
		PageWidth: 12240, PageHeight: 15840,
		MarginTop: 1440, MarginBottom: 1440, MarginLeft: 1440, MarginRight: 1440,
		HeaderDistance: 720, FooterDistance: 720,
	}
}

// explicitFixture sets every field the snapshot knows about.
func explicitFixture(t *testing.T) []byte {
	t.Helper()
	pkg := ooxml.New()

	name := pkg.AddParagraph()
	name.Props.StyleID = ooxml.StyleTitle
	name.Props.Justification = "center"
	name.Props.Spacing = &ooxml.Spacing{Before: sp("0"), After: sp("120"), Line: sp("276"), LineRule: "auto"}
	name.Props.Indent = &ooxml.Indent{Left: sp("0"), Right: sp("0"), FirstLine: sp("0")}
	r := name.AddRun("Jane Doe")
	r.Props.Bold = snapshot.Ptr(true)
	r.Props.Italic = snapshot.Ptr(false)
	r.Props.Underline = sp("single")
	r.Props.Size = snapshot.Ptr(32)
	r.Props.Fonts = &ooxml.Fonts{ASCII: "Garamond"}
	r.Props.Color = sp("1F4E79")

	role := pkg.AddParagraph()
	role.Props.StyleID = ooxml.StyleHeading1
	role.Props.Justification = "both"
	role.Props.Spacing = &ooxml.Spacing{Before: sp("240"), After: sp("60"), Line: sp("280"), LineRule: "exact"}
	role.Props.Indent = &ooxml.Indent{Left: sp("720"), Right: sp("360"), Hanging: sp("360")}
	a := role.AddRun("Senior ")
	a.Props.Bold = snapshot.Ptr(false)
	a.Props.Italic = snapshot.Ptr(true)
	a.Props.Underline = sp("none")
	a.Props.Size = snapshot.Ptr(24)
	a.Props.Fonts = &ooxml.Fonts{ASCII: "Arial"}
	a.Props.Color = sp("000000")
	b := role.AddRun("Engineer")
	b.Props.Bold = snapshot.Ptr(true)
	b.Props.Italic = snapshot.Ptr(true)
	b.Props.Underline = sp("single")
	b.Props.Size = snapshot.Ptr(21)
	b.Props.Fonts = &ooxml.Fonts{ASCII: "Arial"}
	b.Props.Color = sp("C00000")
	role.SectionBreak = &ooxml.Section{
		PageSize: &ooxml.PageSize{W: "15840", H: "12240", Orient: "landscape"},
		Margins:  &ooxml.PageMargins{Top: "720", Bottom: "720", Left: "1080", Right: "1080", Header: "360", Footer: "360"},
		Header:   &ooxml.HeaderFooter{Paragraphs: []*ooxml.Paragraph{{Runs: []*ooxml.Run{{Text: "Jane Doe | Resume"}}}}},
	}

	custom := pkg.AddParagraph()
	custom.Props.StyleID = "ResumeSection"
	pkg.AddStyle(ooxml.Style{ID: "ResumeSection", Name: "Resume Section", Type: "paragraph"})
	custom.Props.Justification = "right"
	custom.Props.Spacing = &ooxml.Spacing{Before: sp("0"), After: sp("0"), Line: sp("300"), LineRule: "atLeast"}
	custom.Props.Indent = &ooxml.Indent{Left: sp("1440"), Right: sp("0"), FirstLine: sp("360")}
	c := custom.AddRun("Experience")
	c.Props.Bold = snapshot.Ptr(true)
	c.Props.Italic = snapshot.Ptr(false)
	c.Props.Underline = sp("double")
	c.Props.Size = snapshot.Ptr(28)
	c.Props.Fonts = &ooxml.Fonts{ASCII: "Georgia"}
	c.Props.Color = sp("336699")

	pkg.Final.Footer = &ooxml.HeaderFooter{Paragraphs: []*ooxml.Paragraph{{Runs: []*ooxml.Run{{Text: "Page 1"}}}}}

	data, err := pkg.Bytes()
	require.NoError(t, err)
	return data
}

func TestReapply_RoundTripFidelity(t *testing.T) {
	original, err := parser.Extract(explicitFixture(t))
	require.NoError(t, err)

	res, err := Reapply(original, original.FlattenedText(), Options{Policy: PairStrict})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Paired)
	assert.Zero(t, res.Padded)
	assert.Zero(t, res.Dropped)

	rebuilt, err := parser.Extract(res.Document)
	require.NoError(t, err)
	assert.Equal(t, original, rebuilt)
}

func TestReapply_GeometryConversionIsExact(t *testing.T) {
	snap := &snapshot.DocumentSnapshot{
		Sections:   []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{{Text: "x", Runs: []snapshot.RunRecord{}}},
	}
	snap.Sections[0].PageWidth = snapshot.Inches(8.27)
	res, err := Reapply(snap, "x", Options{})
	require.NoError(t, err)

	rebuilt, err := parser.Extract(res.Document)
	require.NoError(t, err)
	assert.InDelta(t, int64(snap.Sections[0].PageWidth), int64(rebuilt.Sections[0].PageWidth), 1)
	assert.Equal(t, snap.Sections[0].PageHeight, rebuilt.Sections[0].PageHeight)
}

func TestReapply_AbsentFieldsStayAbsent(t *testing.T) {
	snap := &snapshot.DocumentSnapshot{
		Sections: []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{
			{Text: "Jane Doe", Runs: []snapshot.RunRecord{{Text: "Jane Doe"}}},
		},
	}
	res, err := Reapply(snap, "Janet Doe", Options{})
	require.NoError(t, err)

	pkg, err := ooxml.Open(res.Document)
	require.NoError(t, err)
	require.Len(t, pkg.Body, 1)
	p := pkg.Body[0]
	assert.Equal(t, ooxml.ParagraphProps{}, p.Props)
	require.Len(t, p.Runs, 1)
	assert.Equal(t, ooxml.RunProps{}, p.Runs[0].Props)
	assert.Equal(t, "Janet Doe", p.Runs[0].Text)
}

func TestReapply_BulletDetection(t *testing.T) {
	para := func(text string) snapshot.ParagraphRecord {
		return snapshot.ParagraphRecord{Text: text, Style: "Normal", Runs: []snapshot.RunRecord{{Text: text}}}
	}
	snap := &snapshot.DocumentSnapshot{
		Sections: []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{
			para("- Led the team"),
			para("* Cut costs"),
			para("Plain line"),
			para("- Marker dropped by the model"),
			para("Hyphen-ated start"),
		},
	}
	rewritten := "- Led the platform team\n* Cut cloud costs\nPlain rewritten\nMarker gone\n-Hyphen without space"
	res, err := Reapply(snap, rewritten, Options{})
	require.NoError(t, err)

	pkg, err := ooxml.Open(res.Document)
	require.NoError(t, err)
	require.Len(t, pkg.Body, 5)

	want := []struct {
		style string
		text  string
	}{
		{ooxml.StyleListBullet, "Led the platform team"},
		{ooxml.StyleListBullet, "Cut cloud costs"},
		{"", "Plain rewritten"},
		{ooxml.StyleListBullet, "Marker gone"},
		{"", "-Hyphen without space"},
	}
	for i, w := range want {
		assert.Equal(t, w.style, pkg.Body[i].Props.StyleID, "paragraph %d", i)
		assert.Equal(t, w.text, pkg.Body[i].Text(), "paragraph %d", i)
	}
}

func TestReapply_EmptyRunParagraph(t *testing.T) {
	snap := &snapshot.DocumentSnapshot{
		Sections:   []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{{Text: "Page Break", Runs: []snapshot.RunRecord{}}},
	}
	res, err := Reapply(snap, "Page Break", Options{})
	require.NoError(t, err)

	pkg, err := ooxml.Open(res.Document)
	require.NoError(t, err)
	require.Len(t, pkg.Body, 1)
	require.Len(t, pkg.Body[0].Runs, 1)
	assert.Equal(t, "Page Break", pkg.Body[0].Runs[0].Text)
	assert.Equal(t, ooxml.RunProps{}, pkg.Body[0].Runs[0].Props)
}

func TestReapply_DistributesOverRuns(t *testing.T) {
	snap := &snapshot.DocumentSnapshot{
		Sections: []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{{
			Text: "Senior Engineer",
			Runs: []snapshot.RunRecord{
				{Text: "Senior ", Bold: snapshot.Ptr(true)},
				{Text: "Engineer", Italic: snapshot.Ptr(true)},
			},
		}},
	}
	res, err := Reapply(snap, "Staff Platform Engineer", Options{})
	require.NoError(t, err)

	rebuilt, err := parser.Extract(res.Document)
	require.NoError(t, err)
	runs := rebuilt.Paragraphs[0].Runs
	require.Len(t, runs, 2)
	assert.Equal(t, "Staff Platform ", runs[0].Text)
	assert.True(t, *runs[0].Bold)
	assert.Nil(t, runs[0].Italic)
	assert.Equal(t, "Engineer", runs[1].Text)
	assert.True(t, *runs[1].Italic)
	assert.Nil(t, runs[1].Bold)
}

func TestReapply_LinePairing(t *testing.T) {
	snap := &snapshot.DocumentSnapshot{
		Sections: []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{
			{Text: "a", Runs: []snapshot.RunRecord{}},
			{Text: "b", Runs: []snapshot.RunRecord{}},
			{Text: "c", Runs: []snapshot.RunRecord{}},
		},
	}

	short, err := Reapply(snap, "A\nB", Options{})
	require.NoError(t, err)
	assert.Equal(t, Result{Paired: 2, Padded: 1}, Result{Paired: short.Paired, Padded: short.Padded, Dropped: short.Dropped})
	pkg, err := ooxml.Open(short.Document)
	require.NoError(t, err)
	require.Len(t, pkg.Body, 3)
	assert.Equal(t, "", pkg.Body[2].Text())

	long, err := Reapply(snap, "A\nB\nC\nD", Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, long.Paired)
	assert.Equal(t, 1, long.Dropped)

	_, err = Reapply(snap, "A\nB", Options{Policy: PairStrict})
	var re *ReapplicationError
	require.ErrorAs(t, err, &re)
	assert.True(t, errors.Is(err, ErrLineCountMismatch))
	assert.Contains(t, err.Error(), "2 lines for 3 paragraphs")
}

func TestReapply_NegativeGeometry(t *testing.T) {
	g := letter()
	g.MarginLeft = -1
	snap := &snapshot.DocumentSnapshot{Sections: []snapshot.SectionGeometry{g}}
	_, err := Reapply(snap, "", Options{})
	var re *ReapplicationError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, err.Error(), "margin_left")

	_, err = Reapply(nil, "", Options{})
	assert.ErrorAs(t, err, &re)
}

func TestReapply_SectionBreaks(t *testing.T) {
	wide := letter()
	wide.PageWidth, wide.PageHeight = 15840, 12240
	snap := &snapshot.DocumentSnapshot{
		Sections: []snapshot.SectionGeometry{letter(), wide, letter()},
		Paragraphs: []snapshot.ParagraphRecord{
			{Text: "a", Section: 0, Runs: []snapshot.RunRecord{}},
			{Text: "b", Section: 0, Runs: []snapshot.RunRecord{}},
			{Text: "c", Section: 1, Runs: []snapshot.RunRecord{}},
			{Text: "d", Section: 2, Runs: []snapshot.RunRecord{}},
		},
	}
	res, err := Reapply(snap, "a\nb\nc\nd", Options{Title: "Tailored"})
	require.NoError(t, err)

	pkg, err := ooxml.Open(res.Document)
	require.NoError(t, err)
	assert.Nil(t, pkg.Body[0].SectionBreak)
	require.NotNil(t, pkg.Body[1].SectionBreak)
	require.NotNil(t, pkg.Body[2].SectionBreak)
	assert.Equal(t, "landscape", pkg.Body[2].SectionBreak.PageSize.Orient)
	assert.Nil(t, pkg.Body[3].SectionBreak)
	assert.Len(t, pkg.Sections(), 3)
}

func TestReapply_UnknownStyleGetsStub(t *testing.T) {
	snap := &snapshot.DocumentSnapshot{
		Sections:   []snapshot.SectionGeometry{letter()},
		Paragraphs: []snapshot.ParagraphRecord{{Text: "x", Style: "Resume Section", Runs: []snapshot.RunRecord{}}},
	}
	res, err := Reapply(snap, "y", Options{})
	require.NoError(t, err)

	pkg, err := ooxml.Open(res.Document)
	require.NoError(t, err)
	assert.Equal(t, "ResumeSection", pkg.Body[0].Props.StyleID)
	s, ok := pkg.StyleByID("ResumeSection")
	require.True(t, ok)
	assert.Equal(t, "Resume Section", s.Name)
}

func TestDistribute(t *testing.T) {
	assert.Equal(t, []string{"one two", ""}, distribute("one two", []int{0, 0}))
	assert.Equal(t, []string{"", "word"}, distribute("word", []int{1, 10}))
	assert.Equal(t, []string{"a ", "b ", "c"}, distribute("a b c", []int{1, 1, 1}))
	assert.Equal(t, []string{"", ""}, distribute("", []int{3, 4}))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PairTolerant, p)
	p, err = ParsePolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, PairStrict, p)
	assert.Equal(t, "strict", p.String())
	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}
