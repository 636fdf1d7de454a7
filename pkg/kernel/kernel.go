// Package kernel defines the abstract geometry kernel interface.
// Implementations (sdfx, scad, manifold) provide solid modeling and
// boolean operations behind this interface. The joint builder only
// specifies which operations run with which arguments; how a backend
// sweeps polygons or evaluates booleans is its own business.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Axis names a coordinate axis. Mirror reflects across the plane
// through the origin whose normal is the axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Box has its minimum corner at the origin; Extrude sweeps
	// a closed XY polygon from z=0 to z=height.
	Box(x, y, z float64) Solid
	Extrude(profile [][2]float64, height float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees
	Mirror(s Solid, normal Axis) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// DistanceField is implemented by solids that can report a signed distance
// for a point: negative inside, positive outside. The magnitude may
// underestimate the true distance but the sign is exact.
type DistanceField interface {
	Distance(p [3]float64) float64
}

// UnionAll folds solids into a single union. It returns nil for an
// empty slice.
func UnionAll(k Kernel, solids []Solid) Solid {
	if len(solids) == 0 {
		return nil
	}
	u := solids[0]
	for _, s := range solids[1:] {
		u = k.Union(u, s)
	}
	return u
}
