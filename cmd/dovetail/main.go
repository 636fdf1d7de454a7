// Command dovetail computes a through dovetail joint and writes the two
// boards as STL meshes or OpenSCAD source, prints its dimensions, or checks
// that the boards mate.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/chazu/dovetail/pkg/dovetail"
	"github.com/chazu/dovetail/pkg/engine"
)

// JointFlags override the defaults and any script. Unset flags are nil.
type JointFlags struct {
	Script    string   `arg:"-s,--script" help:"parameter script (.dovetail) evaluated before flags"`
	Thickness *float64 `arg:"--thickness" help:"stock thickness and joint depth"`
	Width     *float64 `arg:"--width" help:"stock width"`
	Length    *float64 `arg:"--length" help:"stock length"`
	Teeth     *int     `arg:"--teeth" help:"number of tails"`
	PinWidth  *float64 `arg:"--pin-width" help:"narrow pin width"`
	Angle     *float64 `arg:"--angle" help:"cut angle in degrees"`
	Slope     *float64 `arg:"--slope" help:"dovetail ratio 1:n, instead of --angle"`
	Extend    *float64 `arg:"--extend" help:"cutter clearance past open faces, always mm"`
	Display   *string  `arg:"--display" help:"all, pins or tails"`
	Intersect *bool    `arg:"--intersect" help:"place the tails board in the pins board's joint"`
	Inches    bool     `arg:"--inches" help:"read length flags as inches"`
}

// apply writes the flags that were set over cfg.
func (f JointFlags) apply(cfg *engine.Config) error {
	unit := 1.0
	if f.Inches {
		unit = dovetail.Inch
	}
	lengths := []struct {
		flag *float64
		dst  *float64
	}{
		{f.Thickness, &cfg.Params.Thickness},
		{f.Width, &cfg.Params.Width},
		{f.Length, &cfg.Params.Length},
		{f.PinWidth, &cfg.Params.PinWidth},
	}
	for _, l := range lengths {
		if l.flag != nil {
			*l.dst = *l.flag * unit
		}
	}

	if f.Angle != nil && f.Slope != nil {
		return errors.New("give either --angle or --slope, not both")
	}
	if f.Angle != nil {
		cfg.Params.Angle = *f.Angle
	}
	if f.Slope != nil {
		if !(*f.Slope > 0) {
			return fmt.Errorf("--slope must be positive, got %g", *f.Slope)
		}
		cfg.Params.Angle = dovetail.SlopeAngle(*f.Slope)
	}
	if f.Teeth != nil {
		cfg.Params.Teeth = *f.Teeth
	}
	if f.Extend != nil {
		cfg.Params.Extend = *f.Extend
	}
	if f.Display != nil {
		mode, err := dovetail.ParseDisplayMode(*f.Display)
		if err != nil {
			return err
		}
		cfg.Options.Display = mode
	}
	if f.Intersect != nil {
		cfg.Options.Layout = dovetail.LayoutFor(*f.Intersect)
	}
	return nil
}

type DimsCmd struct {
	JointFlags
}

type RenderCmd struct {
	JointFlags
	Format string `arg:"-f,--format" default:"stl" help:"stl or scad"`
	Out    string `arg:"-o,--out" help:"output directory for stl, output file for scad (default: . for stl, stdout for scad)"`
	Kernel string `arg:"--kernel" default:"sdfx" help:"mesh kernel for stl: sdfx or manifold (needs -tags=manifold)"`
	Cells  int    `arg:"--cells" help:"sdfx marching cubes cells along the longest side"`
	ASCII  bool   `arg:"--ascii" help:"write ASCII instead of binary STL"`
}

type VerifyCmd struct {
	JointFlags
	Resolution int     `arg:"--resolution" help:"samples along the joint width"`
	Tolerance  float64 `arg:"--tolerance" help:"unclassified band around each surface, mm"`
}

type args struct {
	Dims    *DimsCmd   `arg:"subcommand:dims" help:"print the solved joint dimensions"`
	Render  *RenderCmd `arg:"subcommand:render" help:"write the boards as STL or OpenSCAD"`
	Verify  *VerifyCmd `arg:"subcommand:verify" help:"check that the assembled boards mate"`
	Verbose bool       `arg:"-v,--verbose" help:"log debug output"`
}

func (args) Description() string {
	return "Generates the two boards of a through dovetail joint."
}

func run(argv []string, stdout, stderr io.Writer) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "dovetail"}, &a)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	switch err := p.Parse(argv); {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(stdout)
		return 0
	case err != nil:
		fmt.Fprintln(stderr, "error:", err)
		p.WriteUsage(stderr)
		return 2
	}
	if p.Subcommand() == nil {
		p.WriteUsage(stderr)
		return 2
	}

	level := slog.LevelInfo
	if a.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	dovetail.SetLogger(logger)
	defer dovetail.SetLogger(nil)

	app := NewApp(stdout, logger)
	if err := dispatch(app, a); err != nil {
		logger.Error("dovetail failed", "err", err)
		return 1
	}
	return 0
}

func dispatch(app *App, a args) error {
	switch {
	case a.Dims != nil:
		cfg, err := app.Load(a.Dims.JointFlags)
		if err != nil {
			return err
		}
		return app.Dims(cfg)
	case a.Render != nil:
		cfg, err := app.Load(a.Render.JointFlags)
		if err != nil {
			return err
		}
		return app.Render(cfg, *a.Render)
	case a.Verify != nil:
		cfg, err := app.Load(a.Verify.JointFlags)
		if err != nil {
			return err
		}
		return app.Verify(cfg, *a.Verify)
	}
	return errors.New("no subcommand")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
