package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/chazu/dovetail/pkg/dovetail"
	"github.com/chazu/dovetail/pkg/engine"
	"github.com/chazu/dovetail/pkg/fit"
	"github.com/chazu/dovetail/pkg/kernel"
	"github.com/chazu/dovetail/pkg/kernel/manifold"
	"github.com/chazu/dovetail/pkg/kernel/scad"
	"github.com/chazu/dovetail/pkg/kernel/sdfx"
	"github.com/chazu/dovetail/pkg/tessellate"
)

// errFitFailed is returned by Verify when the assembled boards do not mate.
var errFitFailed = errors.New("boards do not mate")

// App runs the subcommands. Output goes to out; progress goes to log.
type App struct {
	engine *engine.Engine
	out    io.Writer
	log    *slog.Logger
}

// NewApp creates an App writing results to out.
func NewApp(out io.Writer, log *slog.Logger) *App {
	return &App{
		engine: engine.NewEngine(),
		out:    out,
		log:    log,
	}
}

// Load builds the configuration for one run: defaults, then the script if
// one is given, then any flags set on the command line.
func (a *App) Load(f JointFlags) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	if f.Script != "" {
		src, err := os.ReadFile(f.Script)
		if err != nil {
			return cfg, fmt.Errorf("read script: %w", err)
		}
		got, evalErrs, err := a.engine.Evaluate(string(src))
		if err != nil {
			return cfg, fmt.Errorf("script %s: %w", f.Script, err)
		}
		if len(evalErrs) > 0 {
			errs := make([]error, len(evalErrs))
			for i, e := range evalErrs {
				errs[i] = e
			}
			return cfg, fmt.Errorf("script %s: %w", f.Script, errors.Join(errs...))
		}
		cfg = *got
		a.log.Debug("loaded script", "path", f.Script, "forms", cfg.Forms)
	}

	if err := f.apply(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Dims prints the solved dimensions and tooth offsets.
func (a *App) Dims(cfg engine.Config) error {
	p := cfg.Params
	d, err := dovetail.Solve(p)
	if err != nil {
		return err
	}

	offsets := func(ps []dovetail.Placement) string {
		parts := make([]string, len(ps))
		for i, pl := range ps {
			parts[i] = mm(pl.Offset)
		}
		return strings.Join(parts, " ")
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "stock\t%s x %s x %s\n", mm(p.Thickness), mm(p.Width), mm(p.Length))
	fmt.Fprintf(tw, "teeth\t%d tails, %d pins\n", p.Teeth, p.Teeth+1)
	fmt.Fprintf(tw, "cut angle\t%.3f deg (1:%.2f)\n", p.Angle, math.Tan(p.Angle*math.Pi/180))
	fmt.Fprintf(tw, "overlap\t%s\n", mm(d.Overlap))
	fmt.Fprintf(tw, "tail wide\t%s\n", mm(d.TailWide))
	fmt.Fprintf(tw, "tail narrow\t%s\n", mm(d.TailNarrow))
	fmt.Fprintf(tw, "pin narrow\t%s\n", mm(d.PinNarrow))
	fmt.Fprintf(tw, "pin wide\t%s\n", mm(d.PinWide))
	fmt.Fprintf(tw, "pitch\t%s\n", mm(d.Pitch()))
	fmt.Fprintf(tw, "tails at\t%s\n", offsets(dovetail.TailOffsets(d, p.Teeth)))
	fmt.Fprintf(tw, "pins at\t%s\n", offsets(dovetail.PinOffsets(d, p.Teeth)))
	return tw.Flush()
}

func mm(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// Render writes the scene as one STL file per board, or as a single
// OpenSCAD file.
func (a *App) Render(cfg engine.Config, opts RenderCmd) error {
	switch strings.ToLower(opts.Format) {
	case "stl":
		return a.renderSTL(cfg, opts)
	case "scad":
		return a.renderSCAD(cfg, opts)
	}
	return fmt.Errorf("unknown format %q (want stl or scad)", opts.Format)
}

// meshKernel picks the kernel that tessellates STL output.
func meshKernel(opts RenderCmd) (kernel.Kernel, error) {
	switch strings.ToLower(opts.Kernel) {
	case "", "sdfx":
		if opts.Cells > 0 {
			return sdfx.NewWithCells(opts.Cells), nil
		}
		return sdfx.New(), nil
	case "manifold":
		return manifold.New()
	}
	return nil, fmt.Errorf("unknown kernel %q (want sdfx or manifold)", opts.Kernel)
}

func (a *App) renderSTL(cfg engine.Config, opts RenderCmd) error {
	k, err := meshKernel(opts)
	if err != nil {
		return err
	}
	scene, err := dovetail.BuildScene(k, cfg.Params, cfg.Options)
	if err != nil {
		return err
	}
	parts, err := tessellate.Tessellate(scene, k)
	if err != nil {
		return err
	}

	dir := opts.Out
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, part := range parts {
		path := filepath.Join(dir, part.Name+".stl")
		if err := writeSTL(path, part, opts.ASCII); err != nil {
			return err
		}
		a.log.Info("wrote board", "path", path, "triangles", part.Mesh.TriangleCount())
		fmt.Fprintln(a.out, path)
	}
	return nil
}

func writeSTL(path string, part tessellate.Part, ascii bool) (err error) {
	if !ascii {
		return tessellate.WriteSTLFile(path, part)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return tessellate.WriteSTL(f, part, true)
}

func (a *App) renderSCAD(cfg engine.Config, opts RenderCmd) (err error) {
	k := scad.New()
	scene, err := dovetail.BuildScene(k, cfg.Params, cfg.Options)
	if err != nil {
		return err
	}
	parts := make([]scad.Part, len(scene.Boards))
	for i, b := range scene.Boards {
		parts[i] = scad.Part{Name: b.Name, Color: b.Color, Solid: b.Solid}
	}

	if opts.Out == "" || opts.Out == "-" {
		return scad.WriteScene(a.out, parts)
	}
	f, err := os.Create(opts.Out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := scad.WriteScene(f, parts); err != nil {
		return err
	}
	a.log.Info("wrote scene", "path", opts.Out, "boards", len(parts))
	return nil
}

// Verify builds both boards assembled and samples the joint for
// interference and gaps. It fails with errFitFailed if either is found.
func (a *App) Verify(cfg engine.Config, opts VerifyCmd) error {
	if cfg.Options.Display != dovetail.DisplayAll || cfg.Options.Layout != dovetail.LayoutAssembled {
		a.log.Debug("verify always checks both boards assembled",
			"display", cfg.Options.Display, "layout", cfg.Options.Layout)
	}
	cfg.Options = dovetail.SceneOptions{Display: dovetail.DisplayAll, Layout: dovetail.LayoutAssembled}

	scene, err := dovetail.BuildScene(sdfx.New(), cfg.Params, cfg.Options)
	if err != nil {
		return err
	}

	fo := fit.DefaultOptions()
	if opts.Resolution > 0 {
		fo.Resolution = opts.Resolution
	}
	if opts.Tolerance > 0 {
		fo.Tolerance = opts.Tolerance
	}
	rep, err := fit.CheckScene(scene, fo)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, rep)
	if rep.FirstInterference != nil {
		fmt.Fprintf(a.out, "first interference at (%s, %s, %s)\n",
			mm(rep.FirstInterference.X), mm(rep.FirstInterference.Y), mm(rep.FirstInterference.Z))
	}
	if rep.FirstGap != nil {
		fmt.Fprintf(a.out, "first gap at (%s, %s, %s)\n",
			mm(rep.FirstGap.X), mm(rep.FirstGap.Y), mm(rep.FirstGap.Z))
	}
	if !rep.OK() {
		return fmt.Errorf("%w: %v", errFitFailed, rep)
	}
	fmt.Fprintln(a.out, "ok")
	return nil
}
