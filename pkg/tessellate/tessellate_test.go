package tessellate_test

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/dovetail/pkg/dovetail"
	"github.com/chazu/dovetail/pkg/kernel"
	"github.com/chazu/dovetail/pkg/kernel/scad"
	"github.com/chazu/dovetail/pkg/kernel/sdfx"
	"github.com/chazu/dovetail/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel; these tests check structure, not
// surface finish.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(48)
}

func buildScene(t *testing.T, k kernel.Kernel, opts dovetail.SceneOptions) *dovetail.Scene {
	t.Helper()
	s, err := dovetail.BuildScene(k, dovetail.DefaultParameters(), opts)
	if err != nil {
		t.Fatalf("BuildScene failed: %v", err)
	}
	return s
}

func TestTessellateAllBoards(t *testing.T) {
	k := newKernel()
	s := buildScene(t, k, dovetail.SceneOptions{Display: dovetail.DisplayAll})

	parts, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}

	want := []struct{ name, color string }{
		{"pins", dovetail.PinsColor},
		{"tails", dovetail.TailsColor},
	}
	for i, p := range parts {
		if p.Name != want[i].name || p.Color != want[i].color {
			t.Errorf("part %d = %s/%s, want %s/%s", i, p.Name, p.Color, want[i].name, want[i].color)
		}
		if p.Mesh.IsEmpty() {
			t.Errorf("mesh for %s is empty", p.Name)
		}
		if p.Mesh.PartName != p.Name {
			t.Errorf("PartName = %q, want %q", p.Mesh.PartName, p.Name)
		}
	}
}

func TestTessellateApartLayoutOffsetsTails(t *testing.T) {
	k := newKernel()
	s := buildScene(t, k, dovetail.SceneOptions{Display: dovetail.DisplayTails, Layout: dovetail.LayoutApart})

	parts, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}

	// The tails board sits three inches beyond the pins board.
	p := dovetail.DefaultParameters()
	min, max := parts[0].Mesh.Bounds()
	// Use a generous tolerance since marching cubes is approximate.
	const tol = 5.0
	if math.Abs(float64(min[0])-(p.Width+3*dovetail.Inch)) > tol {
		t.Errorf("min X = %.2f, expected near %.2f", min[0], p.Width+3*dovetail.Inch)
	}
	if math.Abs(float64(max[1])-p.Length) > tol {
		t.Errorf("max Y = %.2f, expected near %.2f", max[1], p.Length)
	}
}

func TestTessellateNilScene(t *testing.T) {
	parts, err := tessellate.Tessellate(nil, newKernel())
	if err != nil || parts != nil {
		t.Fatalf("Tessellate(nil) = %v, %v; want nil, nil", parts, err)
	}
}

func TestTessellateKernelWithoutMeshes(t *testing.T) {
	k := scad.New()
	s := buildScene(t, k, dovetail.SceneOptions{Display: dovetail.DisplayPins})
	_, err := tessellate.Tessellate(s, k)
	if !errors.Is(err, scad.ErrNoMesh) {
		t.Fatalf("expected ErrNoMesh, got %v", err)
	}
}

func unitSquare() tessellate.Part {
	return tessellate.Part{
		Name: "square",
		Mesh: &kernel.Mesh{
			Vertices: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
			Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1},
			Indices:  []uint32{0, 1, 2, 2, 3, 0},
		},
	}
}

func TestToSTL(t *testing.T) {
	solid, err := tessellate.ToSTL(unitSquare())
	if err != nil {
		t.Fatalf("ToSTL failed: %v", err)
	}
	if solid.Name != "square" {
		t.Errorf("Name = %q", solid.Name)
	}
	if len(solid.Triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(solid.Triangles))
	}
	for i, tri := range solid.Triangles {
		if tri.Normal[0] != 0 || tri.Normal[1] != 0 || tri.Normal[2] != 1 {
			t.Errorf("triangle %d normal = %v, want +Z", i, tri.Normal)
		}
	}
	if solid.Triangles[1].Vertices[0][0] != 1 || solid.Triangles[1].Vertices[0][1] != 1 {
		t.Errorf("triangle 1 first vertex = %v, want (1,1,0)", solid.Triangles[1].Vertices[0])
	}
}

func TestToSTLEmpty(t *testing.T) {
	_, err := tessellate.ToSTL(tessellate.Part{Name: "nothing", Mesh: &kernel.Mesh{}})
	if !errors.Is(err, tessellate.ErrEmptyMesh) {
		t.Fatalf("expected ErrEmptyMesh, got %v", err)
	}
}

func TestWriteAndReadSTL(t *testing.T) {
	for _, ascii := range []bool{false, true} {
		var buf bytes.Buffer
		if err := tessellate.WriteSTL(&buf, unitSquare(), ascii); err != nil {
			t.Fatalf("WriteSTL(ascii=%v) failed: %v", ascii, err)
		}
		mesh, err := tessellate.ReadSTL(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("ReadSTL(ascii=%v) failed: %v", ascii, err)
		}
		if mesh.TriangleCount() != 2 {
			t.Errorf("ascii=%v: read %d triangles, want 2", ascii, mesh.TriangleCount())
		}
		min, max := mesh.Bounds()
		if min != [3]float32{0, 0, 0} || max != [3]float32{1, 1, 0} {
			t.Errorf("ascii=%v: bounds %v %v", ascii, min, max)
		}
	}
}

func TestWriteSTLFileBoard(t *testing.T) {
	k := newKernel()
	s := buildScene(t, k, dovetail.SceneOptions{Display: dovetail.DisplayPins})
	parts, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "pins.stl")
	if err := tessellate.WriteSTLFile(path, parts[0]); err != nil {
		t.Fatalf("WriteSTLFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Binary STL: 84 header bytes plus 50 per triangle.
	want := int64(84 + 50*parts[0].Mesh.TriangleCount())
	if info.Size() != want {
		t.Errorf("file size = %d, want %d", info.Size(), want)
	}
}
