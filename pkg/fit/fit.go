// Package fit checks how well two boards mate by sampling their signed
// distance fields on a grid. A sample inside both boards is interference;
// a sample inside neither, within the joint region, is a gap.
package fit

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/dovetail/pkg/dovetail"
	"github.com/chazu/dovetail/pkg/kernel"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNoDistanceField means a solid cannot be sampled. Only kernels
	// whose solids implement kernel.DistanceField (sdfx) can be checked.
	ErrNoDistanceField = errors.New("fit: solid has no distance field")
	// ErrNotAssembled means the scene does not hold both boards in the
	// assembled layout.
	ErrNotAssembled = errors.New("fit: scene is not an assembled pair")
)

// Region is an axis-aligned box to sample.
type Region struct {
	Min, Max r3.Vec
}

// JointRegion is where the two boards overlap when assembled: the full
// width, one thickness deep and one thickness high.
func JointRegion(p dovetail.Parameters) Region {
	return Region{Max: r3.Vec{X: p.Width, Y: p.Thickness, Z: p.Thickness}}
}

// Options tune the sampling.
type Options struct {
	// Resolution is the number of samples along the longest side of the
	// region. Other sides get proportionally fewer, at least two.
	Resolution int
	// Tolerance is the band around either surface that is not classified.
	Tolerance float64
}

// DefaultOptions samples 60 points along the joint and ignores 0.05 mm
// around every surface.
func DefaultOptions() Options {
	return Options{Resolution: 60, Tolerance: 0.05}
}

// Report counts the classified samples.
type Report struct {
	Samples      int
	Skipped      int // within Tolerance of a surface
	Interference int
	Gap          int

	FirstInterference *r3.Vec
	FirstGap          *r3.Vec
}

// OK reports whether no interference and no gap were found.
func (r Report) OK() bool {
	return r.Interference == 0 && r.Gap == 0
}

func (r Report) String() string {
	return fmt.Sprintf("%d samples, %d skipped, %d interference, %d gap",
		r.Samples, r.Skipped, r.Interference, r.Gap)
}

func field(s kernel.Solid) (kernel.DistanceField, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil solid", ErrNoDistanceField)
	}
	f, ok := s.(kernel.DistanceField)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNoDistanceField, s)
	}
	return f, nil
}

// Check samples region at cell centres and classifies each point against
// solids a and b.
func Check(a, b kernel.Solid, region Region, opts Options) (Report, error) {
	fa, err := field(a)
	if err != nil {
		return Report{}, err
	}
	fb, err := field(b)
	if err != nil {
		return Report{}, err
	}
	if opts.Resolution < 2 {
		opts.Resolution = 2
	}

	size := r3.Sub(region.Max, region.Min)
	longest := math.Max(size.X, math.Max(size.Y, size.Z))
	if !(longest > 0) {
		return Report{}, fmt.Errorf("fit: empty region %v", region)
	}
	count := func(side float64) int {
		n := int(math.Ceil(float64(opts.Resolution) * side / longest))
		if n < 2 {
			n = 2
		}
		return n
	}
	nx, ny, nz := count(size.X), count(size.Y), count(size.Z)

	var rep Report
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				p := r3.Vec{
					X: region.Min.X + (float64(i)+0.5)*size.X/float64(nx),
					Y: region.Min.Y + (float64(j)+0.5)*size.Y/float64(ny),
					Z: region.Min.Z + (float64(k)+0.5)*size.Z/float64(nz),
				}
				rep.Samples++
				da := fa.Distance([3]float64{p.X, p.Y, p.Z})
				db := fb.Distance([3]float64{p.X, p.Y, p.Z})
				if math.Abs(da) <= opts.Tolerance || math.Abs(db) <= opts.Tolerance {
					rep.Skipped++
					continue
				}
				switch {
				case da < 0 && db < 0:
					rep.Interference++
					if rep.FirstInterference == nil {
						q := p
						rep.FirstInterference = &q
					}
				case da > 0 && db > 0:
					rep.Gap++
					if rep.FirstGap == nil {
						q := p
						rep.FirstGap = &q
					}
				}
			}
		}
	}

	dovetail.Logger().Debug("fit: sampled joint",
		"grid", fmt.Sprintf("%dx%dx%d", nx, ny, nz),
		"interference", rep.Interference, "gap", rep.Gap, "skipped", rep.Skipped)
	return rep, nil
}

// CheckScene checks an assembled two-board scene over its joint region.
func CheckScene(s *dovetail.Scene, opts Options) (Report, error) {
	if s.Options.Layout != dovetail.LayoutAssembled || len(s.Boards) != 2 {
		return Report{}, fmt.Errorf("%w: layout %v, %d boards", ErrNotAssembled, s.Options.Layout, len(s.Boards))
	}
	return Check(s.Boards[0].Solid, s.Boards[1].Solid, JointRegion(s.Params), opts)
}
