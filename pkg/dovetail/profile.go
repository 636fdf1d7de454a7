package dovetail

// Kind says which half of the joint a profile or cutter belongs to.
type Kind int

const (
	Pin Kind = iota
	Tail
)

func (k Kind) String() string {
	switch k {
	case Pin:
		return "pin"
	case Tail:
		return "tail"
	default:
		return "unknown"
	}
}

// Profile is a trapezoidal cross-section in (x, depth) coordinates, listed
// counter-clockwise starting at the depth-0 edge.
type Profile struct {
	Kind   Kind
	Cutter bool
	Points [4][2]float64
}

// Polygon returns the vertices in the form kernel.Kernel.Extrude takes.
func (p Profile) Polygon() [][2]float64 {
	out := make([][2]float64, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt
	}
	return out
}

// TailProfile is narrow at depth 0 and wide at depth d.Depth. The wide
// edge spans [0, TailWide]. As a cutter, the depth-0 edge is pushed out to
// -Extend along both slanted sides.
func TailProfile(d Dimensions, asCutter bool) Profile {
	ov, T := d.Overlap, d.Depth
	lo := 0.0
	if asCutter {
		lo = -d.Extend
	}
	// Slanted sides: x runs from ov (depth 0) to 0 (depth T) on the left and
	// from ov+TailNarrow to TailWide on the right.
	left := func(depth float64) float64 { return ov - ov*depth/T }
	right := func(depth float64) float64 { return ov + d.TailNarrow + ov*depth/T }
	return Profile{
		Kind:   Tail,
		Cutter: asCutter,
		Points: [4][2]float64{
			{left(lo), lo},
			{right(lo), lo},
			{d.TailWide, T},
			{0, T},
		},
	}
}

// PinProfile is wide at depth 0 and narrow at depth d.Depth. The wide edge
// spans [0, PinWide]. As a cutter, both the depth-0 and depth-T edges are
// pushed out by Extend along the slanted sides.
func PinProfile(d Dimensions, asCutter bool) Profile {
	ov, T := d.Overlap, d.Depth
	lo, hi := 0.0, T
	if asCutter {
		lo, hi = -d.Extend, T+d.Extend
	}
	left := func(depth float64) float64 { return ov * depth / T }
	right := func(depth float64) float64 { return d.PinWide - ov*depth/T }
	return Profile{
		Kind:   Pin,
		Cutter: asCutter,
		Points: [4][2]float64{
			{left(lo), lo},
			{right(lo), lo},
			{right(hi), hi},
			{left(hi), hi},
		},
	}
}
