package dovetail

import (
	"fmt"
	"strings"

	"github.com/chazu/dovetail/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Placement is the x offset of one tooth's profile origin.
type Placement struct {
	Index  int
	Offset float64
}

// TailOffsets places n tails, one pitch apart, starting after the first
// narrow pin.
func TailOffsets(d Dimensions, n int) []Placement {
	out := make([]Placement, n)
	for i := range out {
		out[i] = Placement{Index: i, Offset: d.PinNarrow + float64(i)*d.Pitch()}
	}
	return out
}

// PinOffsets places n+1 pins. The first pin starts at -Overlap so the
// narrow edges of the outer pins sit flush with x=0 and x=Width.
func PinOffsets(d Dimensions, n int) []Placement {
	out := make([]Placement, n+1)
	for i := range out {
		out[i] = Placement{Index: i, Offset: -d.Overlap + float64(i)*d.Pitch()}
	}
	return out
}

// Layout decides where the tails board is placed relative to the pins
// board.
type Layout int

const (
	// LayoutApart sets the tails board beside the pins board.
	LayoutApart Layout = iota
	// LayoutAssembled stands the tails board in the pins board's joint.
	LayoutAssembled
)

func (l Layout) String() string {
	switch l {
	case LayoutApart:
		return "apart"
	case LayoutAssembled:
		return "assembled"
	default:
		return "unknown"
	}
}

// LayoutFor maps the stock-intersect switch to a Layout.
func LayoutFor(intersect bool) Layout {
	if intersect {
		return LayoutAssembled
	}
	return LayoutApart
}

// ParseLayout accepts "apart" or "assembled", case-insensitively.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apart":
		return LayoutApart, nil
	case "assembled":
		return LayoutAssembled, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// StepKind is one rigid transform kind.
type StepKind int

const (
	StepTranslate StepKind = iota
	// StepRotate takes Euler angles in degrees from V.
	StepRotate
	// StepMirror reflects across the plane through the origin normal to Axis.
	StepMirror
)

// Step is one transform in a chain. The same chain drives both a kernel
// build and the point math used to inspect cutters without a kernel.
type Step struct {
	Kind StepKind
	V    r3.Vec
	Axis kernel.Axis
}

func translate(x, y, z float64) Step { return Step{Kind: StepTranslate, V: r3.Vec{X: x, Y: y, Z: z}} }
func rotate(x, y, z float64) Step    { return Step{Kind: StepRotate, V: r3.Vec{X: x, Y: y, Z: z}} }
func mirror(a kernel.Axis) Step      { return Step{Kind: StepMirror, Axis: a} }

// Point applies the step to p.
func (s Step) Point(p r3.Vec) r3.Vec {
	switch s.Kind {
	case StepTranslate:
		return r3.Add(p, s.V)
	case StepRotate:
		q := kernel.RotatePoint([3]float64{p.X, p.Y, p.Z}, s.V.X, s.V.Y, s.V.Z)
		return r3.Vec{X: q[0], Y: q[1], Z: q[2]}
	case StepMirror:
		switch s.Axis {
		case kernel.AxisX:
			p.X = -p.X
		case kernel.AxisY:
			p.Y = -p.Y
		default:
			p.Z = -p.Z
		}
	}
	return p
}

// Solid applies the step to a kernel solid.
func (s Step) Solid(k kernel.Kernel, in kernel.Solid) kernel.Solid {
	switch s.Kind {
	case StepTranslate:
		return k.Translate(in, s.V.X, s.V.Y, s.V.Z)
	case StepRotate:
		return k.Rotate(in, s.V.X, s.V.Y, s.V.Z)
	default:
		return k.Mirror(in, s.Axis)
	}
}

// TransformPoint applies steps to p in order.
func TransformPoint(p r3.Vec, steps []Step) r3.Vec {
	for _, s := range steps {
		p = s.Point(p)
	}
	return p
}

// ApplySteps applies steps to a solid in order.
func ApplySteps(k kernel.Kernel, s kernel.Solid, steps []Step) kernel.Solid {
	for _, st := range steps {
		s = st.Solid(k, s)
	}
	return s
}

// MirrorThickness reflects through the mid-thickness plane z = thickness/2.
func MirrorThickness(thickness float64) []Step {
	return []Step{
		translate(0, 0, -thickness/2),
		mirror(kernel.AxisZ),
		translate(0, 0, thickness/2),
	}
}

// Relocation moves the finished tails board into place. It is rigid, so it
// never changes what was cut.
func Relocation(p Parameters, layout Layout) []Step {
	if layout == LayoutAssembled {
		// Board-local (x, y, z) lands at world (x, T-z, y): the tails board
		// stands on its end in the pins board's joint region.
		return []Step{
			rotate(90, 0, 0),
			translate(0, p.Thickness, 0),
		}
	}
	return []Step{translate(p.Width+3*Inch, 0, 0)}
}
