package dovetail

import (
	"fmt"

	"github.com/chazu/dovetail/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

// Display colors.
const (
	PinsColor  = "#E67E22"
	TailsColor = "#4A90D9"
)

// Board is one finished board of the joint.
type Board struct {
	Name  string
	Kind  Kind // Pin for the pins board, Tail for the tails board
	Color string
	Solid kernel.Solid
}

// Cutter is one tooth-shaped tool: a cutter profile extruded along z from
// 0 to Height, then carried into board-local space by Steps.
type Cutter struct {
	Profile   Profile
	Placement Placement
	Height    float64
	Steps     []Step
}

// Solid builds the cutter with k.
func (c Cutter) Solid(k kernel.Kernel) kernel.Solid {
	return ApplySteps(k, k.Extrude(c.Profile.Polygon(), c.Height), c.Steps)
}

// Corners returns the eight vertices of the extruded cutter in board-local
// space: the profile at z=0 followed by the profile at z=Height.
func (c Cutter) Corners() [8]r3.Vec {
	var out [8]r3.Vec
	for i, pt := range c.Profile.Points {
		out[i] = TransformPoint(r3.Vec{X: pt[0], Y: pt[1]}, c.Steps)
		out[i+4] = TransformPoint(r3.Vec{X: pt[0], Y: pt[1], Z: c.Height}, c.Steps)
	}
	return out
}

// CutterSet holds the cutters for both boards. Pins are not yet mirrored
// through the thickness plane; TailsBoard does that to their union.
type CutterSet struct {
	Tails []Cutter // cut from the pins board
	Pins  []Cutter // cut from the tails board
}

// Cutters validates p and lays out every cutter as plain data.
func Cutters(p Parameters) (CutterSet, error) {
	d, err := Solve(p)
	if err != nil {
		return CutterSet{}, err
	}
	return cutters(d, p.Teeth), nil
}

func cutters(d Dimensions, n int) CutterSet {
	var set CutterSet

	// Tail cutters lie flat in the board's (x, y) plane and pass through
	// the whole thickness with Extend to spare on both faces.
	tail := TailProfile(d, true)
	for _, pl := range TailOffsets(d, n) {
		set.Tails = append(set.Tails, Cutter{
			Profile:   tail,
			Placement: pl,
			Height:    d.Depth + 2*d.Extend,
			Steps:     []Step{translate(pl.Offset, 0, -d.Extend)},
		})
	}

	// Pin cutters stand in the board end. Rotating 90 degrees about x takes
	// profile depth to board z and extrusion height to -y; the translate
	// puts the extrusion's far end at the board end, Extend past y=0.
	pin := PinProfile(d, true)
	for _, pl := range PinOffsets(d, n) {
		set.Pins = append(set.Pins, Cutter{
			Profile:   pin,
			Placement: pl,
			Height:    d.Depth + d.Extend,
			Steps: []Step{
				rotate(90, 0, 0),
				translate(pl.Offset, d.Depth, 0),
			},
		})
	}
	return set
}

func unionCutters(k kernel.Kernel, cs []Cutter) kernel.Solid {
	solids := make([]kernel.Solid, len(cs))
	for i, c := range cs {
		solids[i] = c.Solid(k)
	}
	return kernel.UnionAll(k, solids)
}

// PinsBoard builds the stock block minus every tail cutter.
func PinsBoard(k kernel.Kernel, p Parameters) (Board, error) {
	d, err := Solve(p)
	if err != nil {
		return Board{}, fmt.Errorf("pins board: %w", err)
	}
	return pinsBoard(k, p, d), nil
}

func pinsBoard(k kernel.Kernel, p Parameters, d Dimensions) Board {
	stock := k.Box(p.Width, p.Length, p.Thickness)
	cuts := cutters(d, p.Teeth).Tails
	Logger().Debug("dovetail: cutting pins board", "tails", len(cuts))
	return Board{
		Name:  "pins",
		Kind:  Pin,
		Color: PinsColor,
		Solid: k.Difference(stock, unionCutters(k, cuts)),
	}
}

// TailsBoard builds the stock block minus the pin cutters mirrored through
// the thickness plane, then moves the result according to layout.
func TailsBoard(k kernel.Kernel, p Parameters, layout Layout) (Board, error) {
	d, err := Solve(p)
	if err != nil {
		return Board{}, fmt.Errorf("tails board: %w", err)
	}
	return tailsBoard(k, p, d, layout), nil
}

func tailsBoard(k kernel.Kernel, p Parameters, d Dimensions, layout Layout) Board {
	stock := k.Box(p.Width, p.Length, p.Thickness)
	cuts := cutters(d, p.Teeth).Pins
	Logger().Debug("dovetail: cutting tails board", "pins", len(cuts), "layout", layout)
	pins := ApplySteps(k, unionCutters(k, cuts), MirrorThickness(p.Thickness))
	board := k.Difference(stock, pins)
	return Board{
		Name:  "tails",
		Kind:  Tail,
		Color: TailsColor,
		Solid: ApplySteps(k, board, Relocation(p, layout)),
	}
}
