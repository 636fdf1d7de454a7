// Package scad implements kernel.Kernel by emitting OpenSCAD source instead
// of evaluating geometry. Every solid is the text of one OpenSCAD statement;
// feeding the written scene to openscad reproduces the same CSG tree the
// other kernels evaluate.
package scad

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/dovetail/pkg/kernel"
)

// ErrNoMesh is returned by ToMesh. Tessellation is left to OpenSCAD.
var ErrNoMesh = errors.New("scad: kernel emits source and cannot tessellate; render the .scad file with openscad")

var _ kernel.Kernel = (*Kernel)(nil)

// Kernel builds OpenSCAD statements. Bounding boxes are tracked by an
// embedded kernel.Recorder so callers can still reason about placement.
type Kernel struct {
	bounds *kernel.Recorder
}

// New returns an empty OpenSCAD kernel.
func New() *Kernel {
	return &Kernel{bounds: kernel.NewRecorder()}
}

type scadSolid struct {
	src string
	box kernel.Solid
}

func (s *scadSolid) BoundingBox() (min, max [3]float64) {
	return s.box.BoundingBox()
}

func unwrap(s kernel.Solid) *scadSolid {
	return s.(*scadSolid)
}

// Source returns the OpenSCAD statement for a solid built by this kernel.
func Source(s kernel.Solid) string {
	return unwrap(s).src
}

var stripZeroes = regexp.MustCompile(`\.?0+$`)

// formatFloat prints n with at most six decimals and no trailing zeroes.
func formatFloat(n float64) string {
	str := strconv.FormatFloat(n, 'f', 6, 64)
	if strings.Contains(str, ".") {
		str = stripZeroes.ReplaceAllString(str, "")
	}
	if str == "-0" || str == "" {
		str = "0"
	}
	return str
}

func vec(vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func indent(src string) string {
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func block(op string, a, b kernel.Solid) string {
	return op + "() {\n" + indent(unwrap(a).src) + "\n" + indent(unwrap(b).src) + "\n}"
}

func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return &scadSolid{
		src: "cube(" + vec(x, y, z) + ");",
		box: k.bounds.Box(x, y, z),
	}
}

func (k *Kernel) Extrude(profile [][2]float64, height float64) kernel.Solid {
	pts := make([]string, len(profile))
	for i, p := range profile {
		pts[i] = vec(p[0], p[1])
	}
	return &scadSolid{
		src: fmt.Sprintf("linear_extrude(height = %s) polygon(points = [%s]);",
			formatFloat(height), strings.Join(pts, ", ")),
		box: k.bounds.Extrude(profile, height),
	}
}

func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return &scadSolid{src: block("union", a, b), box: k.bounds.Union(unwrap(a).box, unwrap(b).box)}
}

func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return &scadSolid{src: block("difference", a, b), box: k.bounds.Difference(unwrap(a).box, unwrap(b).box)}
}

func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return &scadSolid{src: block("intersection", a, b), box: k.bounds.Intersection(unwrap(a).box, unwrap(b).box)}
}

func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &scadSolid{
		src: "translate(" + vec(x, y, z) + ") " + unwrap(s).src,
		box: k.bounds.Translate(unwrap(s).box, x, y, z),
	}
}

// Rotate uses OpenSCAD's rotate([x, y, z]), which applies X, then Y, then Z
// like the other kernels.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return &scadSolid{
		src: "rotate(" + vec(x, y, z) + ") " + unwrap(s).src,
		box: k.bounds.Rotate(unwrap(s).box, x, y, z),
	}
}

func (k *Kernel) Mirror(s kernel.Solid, normal kernel.Axis) kernel.Solid {
	n := [3]float64{}
	n[normal] = 1
	return &scadSolid{
		src: "mirror(" + vec(n[0], n[1], n[2]) + ") " + unwrap(s).src,
		box: k.bounds.Mirror(unwrap(s).box, normal),
	}
}

// ToMesh always fails with ErrNoMesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	return nil, ErrNoMesh
}

// Part is one named, colored solid of a scene.
type Part struct {
	Name  string
	Color string // "#RRGGBB"
	Solid kernel.Solid
}

// WriteScene writes a complete OpenSCAD file with one colored top-level
// statement per part.
func WriteScene(w io.Writer, parts []Part) error {
	var b strings.Builder
	b.WriteString("// generated by dovetail\n")
	for _, p := range parts {
		fmt.Fprintf(&b, "\n// %s\n", p.Name)
		if p.Color != "" {
			fmt.Fprintf(&b, "color(%q) ", p.Color)
		}
		b.WriteString(Source(p.Solid))
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}
