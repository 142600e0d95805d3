package reapply

import (
	"math"
	"strings"
	"unicode"

	"github.com/dgallion1/doctailor/internal/ooxml"
	"github.com/dgallion1/doctailor/internal/snapshot"
)

// runs maps text onto the record's run positions. Unchanged text keeps the
// original run texts; otherwise text is spread over the runs in proportion
// to their original lengths, cut on word boundaries.
func runs(rec snapshot.ParagraphRecord, text string) []*ooxml.Run {
	if len(rec.Runs) == 0 {
		return []*ooxml.Run{{Text: text}}
	}

	parts := make([]string, len(rec.Runs))
	if text == strings.ReplaceAll(rec.Content(), "\n", " ") {
		for i, r := range rec.Runs {
			parts[i] = r.Text
		}
	} else {
		weights := make([]int, len(rec.Runs))
		for i, r := range rec.Runs {
			weights[i] = len([]rune(r.Text))
		}
		parts = distribute(text, weights)
	}

	out := make([]*ooxml.Run, len(rec.Runs))
	for i, r := range rec.Runs {
		out[i] = &ooxml.Run{Props: runProps(r), Text: parts[i]}
	}
	return out
}

// distribute splits text into len(weights) parts. Each cut is placed at the
// word start nearest to the proportional target, the later one on a tie.
func distribute(text string, weights []int) []string {
	rs := []rune(text)
	parts := make([]string, len(weights))
	total := 0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		parts[0] = text
		return parts
	}

	cuts := wordStarts(rs)
	prev, cum := 0, 0
	for i, w := range weights {
		cum += w
		end := len(rs)
		if i < len(weights)-1 {
			target := int(math.Round(float64(len(rs)) * float64(cum) / float64(total)))
			end = nearestCut(cuts, target, prev)
		}
		parts[i] = string(rs[prev:end])
		prev = end
	}
	return parts
}

// wordStarts returns every position a run may end at: the ends of the text
// and each rune that starts a word after whitespace.
func wordStarts(rs []rune) []int {
	cuts := []int{0}
	for i := 1; i < len(rs); i++ {
		if unicode.IsSpace(rs[i-1]) && !unicode.IsSpace(rs[i]) {
			cuts = append(cuts, i)
		}
	}
	return append(cuts, len(rs))
}

func nearestCut(cuts []int, target, floor int) int {
	best := -1
	for _, c := range cuts {
		if c < floor {
			continue
		}
		if best < 0 || abs(c-target) <= abs(best-target) {
			best = c
		}
	}
	if best < 0 {
		return floor
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// withContent drops the leading bytes of the record's runs so that their
// concatenation is the suffix content.
func withContent(rec snapshot.ParagraphRecord, content string) snapshot.ParagraphRecord {
	drop := len(rec.Content()) - len(content)
	runs := make([]snapshot.RunRecord, len(rec.Runs))
	copy(runs, rec.Runs)
	for i := range runs {
		if drop <= 0 {
			break
		}
		n := min(drop, len(runs[i].Text))
		runs[i].Text = runs[i].Text[n:]
		drop -= n
	}
	rec.Runs = runs
	return rec
}

func runProps(r snapshot.RunRecord) ooxml.RunProps {
	var rp ooxml.RunProps
	rp.Bold = copyBool(r.Bold)
	rp.Italic = copyBool(r.Italic)
	if r.Underline != nil {
		u := "none"
		if *r.Underline {
			u = "single"
		}
		rp.Underline = &u
	}
	if r.FontName != nil {
		rp.Fonts = &ooxml.Fonts{ASCII: *r.FontName, HAnsi: *r.FontName}
	}
	if r.FontSize != nil {
		rp.Size = snapshot.Ptr(int(math.Round(*r.FontSize * 2)))
	}
	if r.Color != nil {
		rp.Color = snapshot.Ptr(r.Color.Hex())
	}
	return rp
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	return snapshot.Ptr(*b)
}
