package kernel

import (
	"fmt"
	"math"
	"strings"
)

// Op is one recorded kernel call.
type Op struct {
	Name     string
	Args     []float64
	Operands []int // IDs of input solids
	Result   int   // ID of the produced solid
}

func (o Op) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d = %s(", o.Result, o.Name)
	parts := make([]string, 0, len(o.Operands)+len(o.Args))
	for _, id := range o.Operands {
		parts = append(parts, fmt.Sprintf("#%d", id))
	}
	for _, a := range o.Args {
		parts = append(parts, fmt.Sprintf("%g", a))
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteString(")")
	return b.String()
}

// Recorder is a kernel that performs no solid modeling. It logs every call
// and tracks conservative bounding boxes, which is enough to inspect the
// operation sequence of a build and to check where solids end up.
type Recorder struct {
	Ops []Op
}

var _ Kernel = (*Recorder)(nil)

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

type recSolid struct {
	id       int
	min, max [3]float64
}

func (s *recSolid) BoundingBox() (min, max [3]float64) {
	return s.min, s.max
}

// ID returns the recorder-assigned identifier of s, or -1 if s was not
// produced by a Recorder.
func ID(s Solid) int {
	if rs, ok := s.(*recSolid); ok {
		return rs.id
	}
	return -1
}

func (r *Recorder) emit(name string, min, max [3]float64, args []float64, operands ...Solid) Solid {
	s := &recSolid{id: len(r.Ops), min: min, max: max}
	ids := make([]int, len(operands))
	for i, o := range operands {
		ids[i] = ID(o)
	}
	r.Ops = append(r.Ops, Op{Name: name, Args: args, Operands: ids, Result: s.id})
	return s
}

// Count returns how many recorded ops have the given name.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}

// String renders the operation log one op per line.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, op := range r.Ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Recorder) Box(x, y, z float64) Solid {
	return r.emit("box", [3]float64{}, [3]float64{x, y, z}, []float64{x, y, z})
}

func (r *Recorder) Extrude(profile [][2]float64, height float64) Solid {
	min := [3]float64{math.Inf(1), math.Inf(1), 0}
	max := [3]float64{math.Inf(-1), math.Inf(-1), height}
	args := make([]float64, 0, len(profile)*2+1)
	for _, p := range profile {
		min[0], max[0] = math.Min(min[0], p[0]), math.Max(max[0], p[0])
		min[1], max[1] = math.Min(min[1], p[1]), math.Max(max[1], p[1])
		args = append(args, p[0], p[1])
	}
	args = append(args, height)
	return r.emit("extrude", min, max, args)
}

func (r *Recorder) Union(a, b Solid) Solid {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	var min, max [3]float64
	for i := 0; i < 3; i++ {
		min[i] = math.Min(amin[i], bmin[i])
		max[i] = math.Max(amax[i], bmax[i])
	}
	return r.emit("union", min, max, nil, a, b)
}

func (r *Recorder) Difference(a, b Solid) Solid {
	min, max := a.BoundingBox()
	return r.emit("difference", min, max, nil, a, b)
}

func (r *Recorder) Intersection(a, b Solid) Solid {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	var min, max [3]float64
	for i := 0; i < 3; i++ {
		min[i] = math.Max(amin[i], bmin[i])
		max[i] = math.Min(amax[i], bmax[i])
		if max[i] < min[i] {
			max[i] = min[i]
		}
	}
	return r.emit("intersection", min, max, nil, a, b)
}

func (r *Recorder) Translate(s Solid, x, y, z float64) Solid {
	min, max := s.BoundingBox()
	d := [3]float64{x, y, z}
	for i := range d {
		min[i] += d[i]
		max[i] += d[i]
	}
	return r.emit("translate", min, max, []float64{x, y, z}, s)
}

func (r *Recorder) Rotate(s Solid, x, y, z float64) Solid {
	smin, smax := s.BoundingBox()
	min := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for c := 0; c < 8; c++ {
		p := [3]float64{smin[0], smin[1], smin[2]}
		for i := 0; i < 3; i++ {
			if c&(1<<i) != 0 {
				p[i] = smax[i]
			}
		}
		q := RotatePoint(p, x, y, z)
		for i := 0; i < 3; i++ {
			min[i] = math.Min(min[i], q[i])
			max[i] = math.Max(max[i], q[i])
		}
	}
	return r.emit("rotate", min, max, []float64{x, y, z}, s)
}

func (r *Recorder) Mirror(s Solid, normal Axis) Solid {
	min, max := s.BoundingBox()
	min[normal], max[normal] = -max[normal], -min[normal]
	return r.emit("mirror", min, max, []float64{float64(normal)}, s)
}

// ToMesh returns an empty mesh; the recorder has no surface to tessellate.
func (r *Recorder) ToMesh(s Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// RotatePoint applies the kernel's Euler rotation convention (degrees,
// X first, then Y, then Z) to p. Results are snapped to remove the float
// noise that cos(90°) leaves behind.
func RotatePoint(p [3]float64, x, y, z float64) [3]float64 {
	rad := func(d float64) (float64, float64) {
		s, c := math.Sincos(d * math.Pi / 180)
		return snap(s), snap(c)
	}
	sx, cx := rad(x)
	sy, cy := rad(y)
	sz, cz := rad(z)

	// X
	p = [3]float64{p[0], p[1]*cx - p[2]*sx, p[1]*sx + p[2]*cx}
	// Y
	p = [3]float64{p[0]*cy + p[2]*sy, p[1], -p[0]*sy + p[2]*cy}
	// Z
	p = [3]float64{p[0]*cz - p[1]*sz, p[0]*sz + p[1]*cz, p[2]}
	return p
}

func snap(v float64) float64 {
	const eps = 1e-15
	switch {
	case math.Abs(v) < eps:
		return 0
	case math.Abs(v-1) < eps:
		return 1
	case math.Abs(v+1) < eps:
		return -1
	}
	return v
}
