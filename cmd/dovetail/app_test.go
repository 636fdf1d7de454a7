package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/dovetail/pkg/dovetail"
	"github.com/chazu/dovetail/pkg/engine"
)

func runCLI(t *testing.T, argv ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(argv, &out, &errOut)
	return code, out.String(), errOut.String()
}

func quietApp(out io.Writer) *App {
	return NewApp(out, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "joint.dovetail")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func ptr[T any](v T) *T { return &v }

// TestDimsDefaultJoint runs the whole CLI path for the default joint and
// checks the printed dimensions against the hand-worked example.
func TestDimsDefaultJoint(t *testing.T) {
	code, out, stderr := runCLI(t, "dims")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, want := range []string{
		"19.050 x 88.900 x 152.400",
		"5 tails, 6 pins",
		"(1:8.00)",
		"13.970",
		"17.145",
		"3.175 20.320 37.465 54.610 71.755",
		"14.764 31.909 49.054 66.199 83.344",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dims output missing %q:\n%s", want, out)
		}
	}
}

func TestRunUsage(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Errorf("no subcommand: exit %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "dims", "--teeth", "many"); code != 2 {
		t.Errorf("bad flag value: exit %d, want 2", code)
	}
	code, out, _ := runCLI(t, "--help")
	if code != 0 {
		t.Errorf("--help: exit %d, want 0", code)
	}
	if !strings.Contains(out, "dovetail") {
		t.Errorf("help output does not name the program:\n%s", out)
	}
}

func TestRunRejectsInvalidGeometry(t *testing.T) {
	code, _, stderr := runCLI(t, "dims", "--teeth", "40")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "invalid joint geometry") {
		t.Errorf("stderr does not explain the failure:\n%s", stderr)
	}
}

func TestLoadFlagsOverrideScript(t *testing.T) {
	path := writeScript(t, `(dovetail :teeth 3 :width 120 :display :pins)`)
	app := quietApp(io.Discard)

	cfg, err := app.Load(JointFlags{Script: path})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Params.Teeth != 3 || cfg.Params.Width != 120 || cfg.Options.Display != dovetail.DisplayPins {
		t.Fatalf("script not applied: %+v", cfg)
	}

	cfg, err = app.Load(JointFlags{Script: path, Teeth: ptr(4), Display: ptr("tails")})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Params.Teeth != 4 {
		t.Errorf("Teeth = %d, want the flag's 4", cfg.Params.Teeth)
	}
	if cfg.Params.Width != 120 {
		t.Errorf("Width = %g, want the script's 120", cfg.Params.Width)
	}
	if cfg.Options.Display != dovetail.DisplayTails {
		t.Errorf("Display = %v, want tails", cfg.Options.Display)
	}
}

func TestLoadScriptErrors(t *testing.T) {
	app := quietApp(io.Discard)

	_, err := app.Load(JointFlags{Script: filepath.Join(t.TempDir(), "missing.dovetail")})
	if err == nil {
		t.Error("expected an error for a missing script")
	}

	path := writeScript(t, `(dovetail :teeth "five")`)
	_, err = app.Load(JointFlags{Script: path})
	if err == nil {
		t.Fatal("expected an error for a bad script")
	}
	var evalErr engine.EvalError
	if !errors.As(err, &evalErr) {
		t.Errorf("expected an engine.EvalError in %v", err)
	}
}

func TestJointFlagsApply(t *testing.T) {
	tests := []struct {
		name  string
		flags JointFlags
		check func(t *testing.T, cfg engine.Config)
	}{
		{
			name:  "inches scale lengths",
			flags: JointFlags{Width: ptr(4.0), PinWidth: ptr(0.25), Extend: ptr(0.02), Inches: true},
			check: func(t *testing.T, cfg engine.Config) {
				if math.Abs(cfg.Params.Width-101.6) > 1e-9 {
					t.Errorf("Width = %g, want 101.6", cfg.Params.Width)
				}
				if math.Abs(cfg.Params.PinWidth-6.35) > 1e-9 {
					t.Errorf("PinWidth = %g, want 6.35", cfg.Params.PinWidth)
				}
				if cfg.Params.Extend != 0.02 {
					t.Errorf("Extend = %g, want 0.02 mm", cfg.Params.Extend)
				}
			},
		},
		{
			name:  "slope",
			flags: JointFlags{Slope: ptr(6.0)},
			check: func(t *testing.T, cfg engine.Config) {
				if cfg.Params.Angle != dovetail.SlopeAngle(6) {
					t.Errorf("Angle = %g, want %g", cfg.Params.Angle, dovetail.SlopeAngle(6))
				}
			},
		},
		{
			name:  "intersect",
			flags: JointFlags{Intersect: ptr(true)},
			check: func(t *testing.T, cfg engine.Config) {
				if cfg.Options.Layout != dovetail.LayoutAssembled {
					t.Errorf("Layout = %v, want assembled", cfg.Options.Layout)
				}
			},
		},
		{
			name:  "no flags",
			flags: JointFlags{},
			check: func(t *testing.T, cfg engine.Config) {
				if cfg != engine.DefaultConfig() {
					t.Errorf("cfg = %+v, want defaults", cfg)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := engine.DefaultConfig()
			if err := tt.flags.apply(&cfg); err != nil {
				t.Fatalf("apply failed: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestJointFlagsApplyErrors(t *testing.T) {
	for name, f := range map[string]JointFlags{
		"angle and slope": {Angle: ptr(80.0), Slope: ptr(8.0)},
		"zero slope":      {Slope: ptr(0.0)},
		"unknown display": {Display: ptr("both")},
	} {
		cfg := engine.DefaultConfig()
		if err := f.apply(&cfg); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestRenderSCADToStdout(t *testing.T) {
	code, out, stderr := runCLI(t, "render", "--format", "scad", "--display", "tails")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if !strings.HasPrefix(out, "// generated by dovetail\n") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, `color("#4A90D9")`) {
		t.Error("tails board color missing")
	}
	if strings.Contains(out, "// pins") {
		t.Error("pins board written with --display tails")
	}
	if !strings.Contains(out, "mirror([0, 0, 1])") {
		t.Error("tails board should mirror its pin cutters")
	}
}

func TestRenderSCADToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "joint.scad")
	code, out, stderr := runCLI(t, "render", "-f", "scad", "-o", path)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	if out != "" {
		t.Errorf("nothing should go to stdout, got %q", out)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), "// pins") || !strings.Contains(string(src), "// tails") {
		t.Errorf("scene should hold both boards:\n%s", src)
	}
}

func TestRenderSTLFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	code, out, stderr := runCLI(t, "render", "--cells", "40", "--out", dir)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	for _, name := range []string{"pins.stl", "tails.stl"} {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("%s not written: %v", name, err)
			continue
		}
		if info.Size() <= 84 {
			t.Errorf("%s holds no triangles", name)
		}
		if !strings.Contains(out, path) {
			t.Errorf("stdout does not list %s", path)
		}
	}
}

func TestRenderASCIISTL(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t, "render", "--cells", "32", "--ascii", "--display", "pins", "--out", dir)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr)
	}
	src, err := os.ReadFile(filepath.Join(dir, "pins.stl"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(src, []byte("solid")) {
		t.Errorf("expected ASCII STL, got %q...", src[:min(len(src), 20)])
	}
	if _, err := os.Stat(filepath.Join(dir, "tails.stl")); !os.IsNotExist(err) {
		t.Error("tails.stl written with --display pins")
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := quietApp(io.Discard).Render(engine.DefaultConfig(), RenderCmd{Format: "obj"})
	if err == nil || !strings.Contains(err.Error(), "obj") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestMeshKernel(t *testing.T) {
	if _, err := meshKernel(RenderCmd{Kernel: "sdfx", Cells: 32}); err != nil {
		t.Errorf("sdfx: %v", err)
	}
	if _, err := meshKernel(RenderCmd{Kernel: "cgal"}); err == nil {
		t.Error("expected an error for an unknown kernel")
	}
}

func TestVerifyDefaultJoint(t *testing.T) {
	code, out, stderr := runCLI(t, "verify", "--display", "pins")
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s\nstdout: %s", code, stderr, out)
	}
	if !strings.Contains(out, "0 interference, 0 gap") {
		t.Errorf("unexpected report:\n%s", out)
	}
	if !strings.HasSuffix(out, "ok\n") {
		t.Errorf("expected ok, got:\n%s", out)
	}
}

func TestVerifyExampleScript(t *testing.T) {
	code, out, stderr := runCLI(t, "verify", "--script", filepath.Join("..", "..", "examples", "assembled.dovetail"))
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s\nstdout: %s", code, stderr, out)
	}
}

func TestVerboseLogsDebug(t *testing.T) {
	code, _, stderr := runCLI(t, "-v", "dims")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stderr, "dovetail: solved") {
		t.Errorf("expected debug output on stderr, got:\n%s", stderr)
	}
}
