package dovetail

import (
	"log/slog"
	"math"
)

// Dimensions are the widths every profile and placement is built from.
type Dimensions struct {
	PinNarrow  float64
	PinWide    float64
	TailNarrow float64
	TailWide   float64
	// Overlap is how far each slanted side leans over the joint depth,
	// Depth / tan(angle). Pins and tails share it.
	Overlap float64

	Depth  float64
	Extend float64
}

// Pitch is the distance between consecutive tails (or pins).
func (d Dimensions) Pitch() float64 {
	return d.TailWide + d.PinNarrow
}

// Derive evaluates the closed-form dimensions without validating p.
func Derive(p Parameters) Dimensions {
	n := float64(p.Teeth)
	ov := p.Thickness / math.Tan(p.Angle*math.Pi/180)
	tw := (p.Width - p.PinWidth*(n+1)) / n
	return Dimensions{
		PinNarrow:  p.PinWidth,
		PinWide:    p.PinWidth + 2*ov,
		TailNarrow: tw - 2*ov,
		TailWide:   tw,
		Overlap:    ov,
		Depth:      p.Thickness,
		Extend:     p.Extend,
	}
}

// Solve validates p and derives its dimensions.
func Solve(p Parameters) (Dimensions, error) {
	if err := p.Validate(); err != nil {
		return Dimensions{}, err
	}
	d := Derive(p)
	if s := math.Tan(p.Angle * math.Pi / 180); s < 4 || s > 10 {
		Logger().Warn("dovetail: slope outside the usual 1:4 to 1:10 range", "slope", s)
	}
	Logger().Debug("dovetail: solved",
		slog.Float64("pinNarrow", d.PinNarrow),
		slog.Float64("pinWide", d.PinWide),
		slog.Float64("tailNarrow", d.TailNarrow),
		slog.Float64("tailWide", d.TailWide),
		slog.Float64("overlap", d.Overlap))
	return d, nil
}
