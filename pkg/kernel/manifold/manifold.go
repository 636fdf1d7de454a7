//go:build manifold

// Package manifold provides a cgo geometry kernel bound to the Manifold
// library (https://github.com/elalish/manifold). Manifold guarantees
// watertight boolean results, which makes it the preferred backend for
// exporting joints that will be machined or printed.
//
// This package requires the Manifold C bindings (manifoldc) to be installed.
// Build with: go build -tags=manifold
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/chazu/dovetail/pkg/kernel"
)

var _ kernel.Kernel = (*ManifoldKernel)(nil)
var _ kernel.Solid = (*manifoldSolid)(nil)

// manifoldSolid wraps a C ManifoldManifold pointer.
type manifoldSolid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *manifoldSolid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min[0] = float64(C.manifold_box_min_x(bbox))
	min[1] = float64(C.manifold_box_min_y(bbox))
	min[2] = float64(C.manifold_box_min_z(bbox))
	max[0] = float64(C.manifold_box_max_x(bbox))
	max[1] = float64(C.manifold_box_max_y(bbox))
	max[2] = float64(C.manifold_box_max_z(bbox))
	return min, max
}

// newSolid wraps ptr and frees it when the Go value is collected.
func newSolid(ptr *C.ManifoldManifold) *manifoldSolid {
	s := &manifoldSolid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *manifoldSolid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*manifoldSolid).ptr
}

// ManifoldKernel implements kernel.Kernel using the Manifold C library.
type ManifoldKernel struct{}

// New creates a new ManifoldKernel.
func New() (kernel.Kernel, error) {
	return &ManifoldKernel{}, nil
}

// Box creates a box with its minimum corner at the origin.
func (k *ManifoldKernel) Box(x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_cube(alloc,
		C.double(x), C.double(y), C.double(z),
		C.int(0), // center=false
	)
	return newSolid(ptr)
}

// Extrude sweeps a simple polygon from z=0 to z=height. Manifold expects
// counter-clockwise outlines, so clockwise input is reversed first.
func (k *ManifoldKernel) Extrude(profile [][2]float64, height float64) kernel.Solid {
	pts := make([]C.ManifoldVec2, len(profile))
	for i, p := range profile {
		pts[i] = C.ManifoldVec2{x: C.double(p[0]), y: C.double(p[1])}
	}
	if signedArea(profile) < 0 {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	simple := C.manifold_simple_polygon(C.manifold_alloc_simple_polygon(),
		&pts[0], C.size_t(len(pts)))
	defer C.manifold_delete_simple_polygon(simple)

	list := []*C.ManifoldSimplePolygon{simple}
	polys := C.manifold_polygons(C.manifold_alloc_polygons(),
		(**C.ManifoldSimplePolygon)(unsafe.Pointer(&list[0])), C.size_t(1))
	defer C.manifold_delete_polygons(polys)

	// No slices, no twist, unit scale at the top face.
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_extrude(alloc, polys, C.double(height),
		C.int(0), C.double(0), C.double(1), C.double(1))
	return newSolid(ptr)
}

func signedArea(profile [][2]float64) float64 {
	a := 0.0
	for i := range profile {
		p, q := profile[i], profile[(i+1)%len(profile)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// Union returns the boolean union of two solids.
func (k *ManifoldKernel) Union(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Difference returns the boolean difference (a minus b).
func (k *ManifoldKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Intersection returns the boolean intersection of two solids.
func (k *ManifoldKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_intersection(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Translate moves the solid by (x, y, z).
func (k *ManifoldKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_translate(alloc, unwrap(s),
		C.double(x), C.double(y), C.double(z),
	)
	return newSolid(ptr)
}

// Rotate rotates the solid by Euler angles (in degrees) around the X, Y, Z axes.
func (k *ManifoldKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_rotate(alloc, unwrap(s),
		C.double(x), C.double(y), C.double(z),
	)
	return newSolid(ptr)
}

// Mirror reflects the solid across the coordinate plane normal to the axis.
func (k *ManifoldKernel) Mirror(s kernel.Solid, normal kernel.Axis) kernel.Solid {
	n := [3]float64{}
	n[normal] = 1
	alloc := C.manifold_alloc_manifold()
	ptr := C.manifold_mirror(alloc, unwrap(s),
		C.double(n[0]), C.double(n[1]), C.double(n[2]),
	)
	return newSolid(ptr)
}

// ToMesh extracts a triangle mesh from the solid using Manifold's MeshGL
// format. MeshGL interleaves per-vertex properties; positions come first
// and normals, when present, follow at offsets 3..5.
func (k *ManifoldKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	meshGL := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s))
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}

	numProp := int(C.manifold_meshgl_num_prop(meshGL))
	propData := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties(
		(*C.float)(unsafe.Pointer(&propData[0])),
		meshGL,
	)

	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts(
		(*C.uint32_t)(unsafe.Pointer(&indices[0])),
		meshGL,
	)

	vertices := make([]float32, numVert*3)
	var normals []float32
	hasNormals := numProp >= 6
	if hasNormals {
		normals = make([]float32, numVert*3)
	}
	for i := 0; i < numVert; i++ {
		base := i * numProp
		copy(vertices[i*3:i*3+3], propData[base:base+3])
		if hasNormals {
			copy(normals[i*3:i*3+3], propData[base+3:base+6])
		}
	}
	if !hasNormals {
		normals = vertexNormals(vertices, indices)
	}

	mesh := &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
	}
	if mesh.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			mesh.VertexCount(), numVert)
	}
	return mesh, nil
}

// vertexNormals averages the face normals of the triangles incident on
// each vertex.
func vertexNormals(vertices []float32, indices []uint32) []float32 {
	normals := make([]float32, len(vertices))
	for t := 0; t+2 < len(indices); t += 3 {
		tri := [3]uint32{indices[t], indices[t+1], indices[t+2]}
		var p [3][3]float64
		for j, idx := range tri {
			for c := 0; c < 3; c++ {
				p[j][c] = float64(vertices[idx*3+uint32(c)])
			}
		}
		e1 := [3]float64{p[1][0] - p[0][0], p[1][1] - p[0][1], p[1][2] - p[0][2]}
		e2 := [3]float64{p[2][0] - p[0][0], p[2][1] - p[0][1], p[2][2] - p[0][2]}
		n := [3]float32{
			float32(e1[1]*e2[2] - e1[2]*e2[1]),
			float32(e1[2]*e2[0] - e1[0]*e2[2]),
			float32(e1[0]*e2[1] - e1[1]*e2[0]),
		}
		for _, idx := range tri {
			for c := 0; c < 3; c++ {
				normals[idx*3+uint32(c)] += n[c]
			}
		}
	}
	for i := 0; i+2 < len(normals); i += 3 {
		x, y, z := float64(normals[i]), float64(normals[i+1]), float64(normals[i+2])
		if l := math.Sqrt(x*x + y*y + z*z); l > 1e-12 {
			normals[i], normals[i+1], normals[i+2] = float32(x/l), float32(y/l), float32(z/l)
		}
	}
	return normals
}
