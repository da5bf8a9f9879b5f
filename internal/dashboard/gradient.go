package dashboard

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is a light-to-dark colour ramp used to shade table cells.
type Palette struct {
	Low, High colorful.Color
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

var (
	Blues   = Palette{Low: mustHex("#f7fbff"), High: mustHex("#08306b")}
	Purples = Palette{Low: mustHex("#fcfbfd"), High: mustHex("#3f007d")}
)

// Shade is the background and matching text colour of one cell.
type Shade struct {
	Background string `json:"background"`
	Text       string `json:"text"`
}

// Shades maps every value onto the palette between the column minimum and
// maximum. NaN values get no shade.
func (p Palette) Shades(vals []float64) []Shade {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	out := make([]Shade, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		t := 0.0
		if hi > lo {
			t = (v - lo) / (hi - lo)
		}
		out[i] = p.At(t)
	}
	return out
}

// At returns the shade at position t in [0,1].
func (p Palette) At(t float64) Shade {
	t = math.Max(0, math.Min(1, t))
	c := p.Low.BlendLab(p.High, t).Clamped()
	l, _, _ := c.Lab()
	text := "#000000"
	if l < 0.55 {
		text = "#f1f1f1"
	}
	return Shade{Background: c.Hex(), Text: text}
}
