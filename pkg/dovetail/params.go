package dovetail

import (
	"fmt"
	"math"
)

// Inch is one inch in millimetres.
const Inch = 25.4

// DefaultSlope is the default dovetail ratio, 1:8.
const DefaultSlope = 8.0

// DefaultExtend is how far cutters reach past the stock faces they open
// through, so coincident faces never survive a boolean difference.
const DefaultExtend = 0.01

// Parameters describes a joint. Lengths are millimetres and Angle is the
// cut angle in degrees, measured from the board end.
type Parameters struct {
	Thickness float64 // stock thickness, also the joint depth
	Width     float64
	Length    float64 // cosmetic; the joint only needs Length >= Thickness
	Teeth     int     // number of tails; there is one more pin
	PinWidth  float64 // narrow pin width
	Angle     float64
	Extend    float64 // cutter clearance past open faces
}

// DefaultParameters returns 3/4" x 3 1/2" x 6" stock with five 1:8 tails
// and 1/8" pins.
func DefaultParameters() Parameters {
	return Parameters{
		Thickness: 19.05, // 3/4"
		Width:     88.9,  // 3 1/2"
		Length:    152.4, // 6"
		Teeth:     5,
		PinWidth:  3.175, // 1/8"
		Angle:     SlopeAngle(DefaultSlope),
		Extend:    DefaultExtend,
	}
}

// SlopeAngle converts a 1:n dovetail ratio to a cut angle in degrees.
func SlopeAngle(n float64) float64 {
	return math.Atan(n) * 180 / math.Pi
}

// Scale returns p with every length multiplied by f. Teeth, Angle and
// Extend are left alone.
func (p Parameters) Scale(f float64) Parameters {
	p.Thickness *= f
	p.Width *= f
	p.Length *= f
	p.PinWidth *= f
	return p
}

// Validate reports every violated constraint at once as a *GeometryError.
func (p Parameters) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.Teeth < 1 {
		add("teeth must be at least 1, got %d", p.Teeth)
	}
	if !(p.PinWidth > 0) {
		add("pin width must be positive, got %g", p.PinWidth)
	}
	if !(p.Angle > 0 && p.Angle < 90) {
		add("cut angle must be between 0 and 90 degrees, got %g", p.Angle)
	}
	if !(p.Thickness > 0) {
		add("thickness must be positive, got %g", p.Thickness)
	}
	if !(p.Width > 0) {
		add("width must be positive, got %g", p.Width)
	}
	if p.Length < p.Thickness {
		add("length %g is shorter than the joint depth %g", p.Length, p.Thickness)
	}
	if p.Extend < 0 {
		add("extend must not be negative, got %g", p.Extend)
	}

	// Derived widths only mean something once the inputs are sane.
	if len(problems) == 0 {
		d := Derive(p)
		if !(d.TailWide > 0) {
			add("%d pins of %g leave no room for tails in width %g", p.Teeth+1, p.PinWidth, p.Width)
		} else if !(d.TailNarrow > 0) {
			add("tail narrow width %g is not positive; reduce thickness, pin width or teeth, or raise the angle", d.TailNarrow)
		}
	}

	if len(problems) > 0 {
		return &GeometryError{Problems: problems}
	}
	return nil
}
