package snapshot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Length is a distance in twips (twentieths of a point). Every geometry and
// indent value in a snapshot uses this unit.
type Length int64

const (
	TwipsPerPoint = 20
	TwipsPerInch  = 1440
	EMUPerTwip    = 635
)

// Inches returns a Length for n inches.
func Inches(n float64) Length { return Length(math.Round(n * TwipsPerInch)) }

// Points returns a Length for n points.
func Points(n float64) Length { return Length(math.Round(n * TwipsPerPoint)) }

// FromEMU converts English Metric Units to twips.
func FromEMU(emu int64) Length {
	return Length(math.Round(float64(emu) / EMUPerTwip))
}

func (l Length) Twips() int64 { return int64(l) }

func (l Length) Points() float64 { return float64(l) / TwipsPerPoint }

func (l Length) Inches() float64 { return float64(l) / TwipsPerInch }

func (l Length) EMU() int64 { return int64(l) * EMUPerTwip }

func (l Length) String() string { return strconv.FormatInt(int64(l), 10) + "tw" }

// twips per unit for the universal measures allowed by ST_TwipsMeasure.
var measureUnits = map[string]float64{
	"mm": TwipsPerInch / 25.4,
	"cm": TwipsPerInch / 2.54,
	"in": TwipsPerInch,
	"pt": TwipsPerPoint,
	"pc": TwipsPerPoint * 12,
	"pi": TwipsPerPoint * 12,
}

// ParseMeasure parses an OOXML twips measure: either a bare integer (already
// twips) or a universal measure such as "8.5in", "2.54cm" or "72pt".
func ParseMeasure(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty measure")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Length(n), nil
	}
	if len(s) < 3 {
		return 0, fmt.Errorf("invalid measure %q", s)
	}
	unit := strings.ToLower(s[len(s)-2:])
	factor, ok := measureUnits[unit]
	if !ok {
		return 0, fmt.Errorf("invalid measure unit in %q", s)
	}
	v, err := strconv.ParseFloat(s[:len(s)-2], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid measure %q: %w", s, err)
	}
	return Length(math.Round(v * factor)), nil
}

// FormatMeasure renders a Length the way it is written back into the
// document: an integer number of twips.
func FormatMeasure(l Length) string {
	return strconv.FormatInt(int64(l), 10)
}
