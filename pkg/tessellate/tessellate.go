// Package tessellate turns a dovetail scene into triangle meshes using a
// geometry kernel, one mesh per board, and exports them as STL.
package tessellate

import (
	"fmt"

	"github.com/chazu/dovetail/pkg/dovetail"
	"github.com/chazu/dovetail/pkg/kernel"
)

// Part is one tessellated board.
type Part struct {
	Name  string
	Color string
	Mesh  *kernel.Mesh
}

// Tessellate meshes every board of the scene, in scene order. The scene is
// never modified.
func Tessellate(s *dovetail.Scene, k kernel.Kernel) ([]Part, error) {
	if s == nil {
		return nil, nil
	}

	parts := make([]Part, 0, len(s.Boards))
	for _, b := range s.Boards {
		mesh, err := k.ToMesh(b.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s board: %w", b.Name, err)
		}
		mesh.PartName = b.Name
		dovetail.Logger().Debug("tessellate: meshed board",
			"board", b.Name, "triangles", mesh.TriangleCount())
		parts = append(parts, Part{Name: b.Name, Color: b.Color, Mesh: mesh})
	}
	return parts, nil
}
