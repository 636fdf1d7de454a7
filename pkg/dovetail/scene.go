package dovetail

import (
	"fmt"
	"strings"

	"github.com/chazu/dovetail/pkg/kernel"
)

// DisplayMode selects which boards a scene contains.
type DisplayMode int

const (
	DisplayAll DisplayMode = iota
	DisplayPins
	DisplayTails
)

func (m DisplayMode) String() string {
	switch m {
	case DisplayAll:
		return "all"
	case DisplayPins:
		return "pins"
	case DisplayTails:
		return "tails"
	default:
		return fmt.Sprintf("DisplayMode(%d)", int(m))
	}
}

// ParseDisplayMode accepts "all", "pins" or "tails", case-insensitively.
// Anything else is an ErrUnknownDisplayMode.
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return DisplayAll, nil
	case "pins":
		return DisplayPins, nil
	case "tails":
		return DisplayTails, nil
	}
	return 0, fmt.Errorf("%w: %q (want all, pins or tails)", ErrUnknownDisplayMode, s)
}

func (m DisplayMode) wantsPins() bool  { return m == DisplayAll || m == DisplayPins }
func (m DisplayMode) wantsTails() bool { return m == DisplayAll || m == DisplayTails }

// Select returns the boards mode asks for, pins first.
func Select(mode DisplayMode, pins, tails Board) ([]Board, error) {
	switch mode {
	case DisplayAll:
		return []Board{pins, tails}, nil
	case DisplayPins:
		return []Board{pins}, nil
	case DisplayTails:
		return []Board{tails}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownDisplayMode, mode)
}

// SceneOptions are the presentation choices that do not affect cut
// geometry.
type SceneOptions struct {
	Display DisplayMode
	Layout  Layout
}

// Scene is the result of one invocation.
type Scene struct {
	Params     Parameters
	Dimensions Dimensions
	Options    SceneOptions
	Boards     []Board
}

// BuildScene validates p once and assembles only the boards opts.Display
// selects.
func BuildScene(k kernel.Kernel, p Parameters, opts SceneOptions) (*Scene, error) {
	if opts.Display < DisplayAll || opts.Display > DisplayTails {
		return nil, fmt.Errorf("%w: %v", ErrUnknownDisplayMode, opts.Display)
	}
	d, err := Solve(p)
	if err != nil {
		return nil, err
	}

	var pins, tails Board
	if opts.Display.wantsPins() {
		pins = pinsBoard(k, p, d)
	}
	if opts.Display.wantsTails() {
		tails = tailsBoard(k, p, d, opts.Layout)
	}
	boards, err := Select(opts.Display, pins, tails)
	if err != nil {
		return nil, err
	}

	Logger().Debug("dovetail: scene built",
		"display", opts.Display, "layout", opts.Layout, "boards", len(boards))
	return &Scene{
		Params:     p,
		Dimensions: d,
		Options:    opts,
		Boards:     boards,
	}, nil
}
