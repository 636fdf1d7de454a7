package dovetail

import (
	"errors"
	"testing"

	"github.com/chazu/dovetail/pkg/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func offsets(ps []Placement) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = p.Offset
	}
	return out
}

func TestExampleOffsets(t *testing.T) {
	d := exampleDims(t)

	tails := TailOffsets(d, 5)
	assert.InDeltaSlice(t, []float64{3.175, 20.32, 37.465, 54.61, 71.755}, offsets(tails), 1e-9)

	pins := PinOffsets(d, 5)
	assert.InDeltaSlice(t,
		[]float64{-2.38125, 14.76375, 31.90875, 49.05375, 66.19875, 83.34375},
		offsets(pins), 1e-9)

	for i, p := range pins {
		assert.Equal(t, i, p.Index)
	}
}

func TestOffsetCounts(t *testing.T) {
	d := exampleDims(t)
	for n := 1; n <= 7; n++ {
		assert.Len(t, TailOffsets(d, n), n)
		assert.Len(t, PinOffsets(d, n), n+1)
	}
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("Assembled")
	require.NoError(t, err)
	assert.Equal(t, LayoutAssembled, l)

	l, err = ParseLayout(" apart ")
	require.NoError(t, err)
	assert.Equal(t, LayoutApart, l)

	_, err = ParseLayout("exploded")
	assert.True(t, errors.Is(err, ErrUnknownLayout))

	assert.Equal(t, LayoutAssembled, LayoutFor(true))
	assert.Equal(t, LayoutApart, LayoutFor(false))
	assert.Equal(t, "unknown", Layout(5).String())
}

func vecNear(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func TestRelocationAssembled(t *testing.T) {
	p := DefaultParameters()
	steps := Relocation(p, LayoutAssembled)
	// Board-local (x, y, z) lands at world (x, T-z, y).
	vecNear(t, r3.Vec{X: 10, Y: p.Thickness - 4, Z: 30}, TransformPoint(r3.Vec{X: 10, Y: 30, Z: 4}, steps))
	vecNear(t, r3.Vec{X: 0, Y: p.Thickness, Z: 0}, TransformPoint(r3.Vec{}, steps))
}

func TestRelocationApart(t *testing.T) {
	p := DefaultParameters()
	got := TransformPoint(r3.Vec{X: 1, Y: 2, Z: 3}, Relocation(p, LayoutApart))
	vecNear(t, r3.Vec{X: 1 + p.Width + 3*Inch, Y: 2, Z: 3}, got)
}

func TestMirrorThickness(t *testing.T) {
	steps := MirrorThickness(19.05)
	p := r3.Vec{X: 3, Y: 4, Z: 5}
	m := TransformPoint(p, steps)
	vecNear(t, r3.Vec{X: 3, Y: 4, Z: 14.05}, m)
	vecNear(t, p, TransformPoint(m, steps))
}

func TestStepPointMatchesKernelBounds(t *testing.T) {
	k := kernel.NewRecorder()
	steps := append(Relocation(DefaultParameters(), LayoutAssembled), MirrorThickness(19.05)...)
	s := ApplySteps(k, k.Box(1, 1, 1), steps)
	min, max := s.BoundingBox()

	lo := r3.Vec{X: 1e9, Y: 1e9, Z: 1e9}
	hi := r3.Vec{X: -1e9, Y: -1e9, Z: -1e9}
	for c := 0; c < 8; c++ {
		p := r3.Vec{X: float64(c & 1), Y: float64(c >> 1 & 1), Z: float64(c >> 2 & 1)}
		q := TransformPoint(p, steps)
		lo = r3.Vec{X: min2(lo.X, q.X), Y: min2(lo.Y, q.Y), Z: min2(lo.Z, q.Z)}
		hi = r3.Vec{X: max2(hi.X, q.X), Y: max2(hi.Y, q.Y), Z: max2(hi.Z, q.Z)}
	}
	vecNear(t, r3.Vec{X: min[0], Y: min[1], Z: min[2]}, lo)
	vecNear(t, r3.Vec{X: max[0], Y: max[1], Z: max[2]}, hi)
	assert.Equal(t, 2, k.Count("rotate")+k.Count("mirror"))
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max2(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
