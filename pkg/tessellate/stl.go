package tessellate

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/dovetail/pkg/kernel"
	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrEmptyMesh is returned when asked to export a mesh with no triangles.
var ErrEmptyMesh = errors.New("tessellate: mesh has no triangles")

// ToSTL converts a part to an STL solid. Facet normals are recomputed from
// the triangle winding.
func ToSTL(p Part) (*stl.Solid, error) {
	if p.Mesh == nil || p.Mesh.TriangleCount() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyMesh, p.Name)
	}
	solid := &stl.Solid{
		Name:      p.Name,
		Triangles: make([]stl.Triangle, p.Mesh.TriangleCount()),
	}
	for i := range solid.Triangles {
		tri := p.Mesh.Triangle(i)
		var t stl.Triangle
		for j, v := range tri {
			t.Vertices[j] = stl.Vec3(v)
		}
		t.Normal = facetNormal(tri)
		solid.Triangles[i] = t
	}
	return solid, nil
}

func facetNormal(tri [3][3]float32) stl.Vec3 {
	vec := func(v [3]float32) r3.Vec {
		return r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
	}
	a, b, c := vec(tri[0]), vec(tri[1]), vec(tri[2])
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if r3.Norm(n) == 0 {
		return stl.Vec3{}
	}
	n = r3.Unit(n)
	return stl.Vec3{float32(n.X), float32(n.Y), float32(n.Z)}
}

// WriteSTL writes a part as binary STL, or ASCII STL when ascii is set.
func WriteSTL(w io.Writer, p Part, ascii bool) error {
	solid, err := ToSTL(p)
	if err != nil {
		return err
	}
	solid.IsAscii = ascii
	if err := solid.WriteAll(w); err != nil {
		return fmt.Errorf("tessellate: write %s: %w", p.Name, err)
	}
	return nil
}

// WriteSTLFile writes a part to path as binary STL.
func WriteSTLFile(path string, p Part) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteSTL(f, p, false)
}

// ReadSTL reads an STL stream, ASCII or binary, into an unindexed mesh:
// every triangle gets its own three vertices carrying the facet normal.
func ReadSTL(r io.ReadSeeker) (*kernel.Mesh, error) {
	solid, err := stl.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tessellate: read stl: %w", err)
	}
	mesh := &kernel.Mesh{PartName: solid.Name}
	for i, t := range solid.Triangles {
		for j, v := range t.Vertices {
			mesh.Vertices = append(mesh.Vertices, v[0], v[1], v[2])
			mesh.Normals = append(mesh.Normals, t.Normal[0], t.Normal[1], t.Normal[2])
			mesh.Indices = append(mesh.Indices, uint32(i*3+j))
		}
	}
	return mesh, nil
}
