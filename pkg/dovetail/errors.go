package dovetail

import (
	"errors"
	"strings"
)

// ErrInvalidJointGeometry is the sentinel for parameters that cannot produce
// a joint. Errors returned by Validate and Solve match it with errors.Is.
var ErrInvalidJointGeometry = errors.New("invalid joint geometry")

// ErrUnknownDisplayMode is returned when a display mode name is not
// recognized.
var ErrUnknownDisplayMode = errors.New("unknown display mode")

// ErrUnknownLayout is returned when a layout name is not recognized.
var ErrUnknownLayout = errors.New("unknown layout")

// GeometryError lists every constraint a Parameters value violates.
type GeometryError struct {
	Problems []string
}

func (e *GeometryError) Error() string {
	return ErrInvalidJointGeometry.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *GeometryError) Unwrap() error {
	return ErrInvalidJointGeometry
}
