//go:build !manifold

// Package manifold provides a cgo geometry kernel bound to the Manifold
// library. Without the "manifold" build tag this stub is compiled instead
// and New reports ErrUnavailable.
//
// Build with: go build -tags=manifold
package manifold

import (
	"errors"

	"github.com/chazu/dovetail/pkg/kernel"
)

// ErrUnavailable is returned by New when the binary was built without
// Manifold support.
var ErrUnavailable = errors.New("manifold kernel not available: build with -tags=manifold")

// New returns ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
