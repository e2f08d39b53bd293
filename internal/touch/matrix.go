// Package touch keeps touchscreen coordinate transforms in step with the
// rotation of a reference monitor.
package touch

import (
	"strconv"

	"github.com/1broseidon/spanwm/internal/platform"
)

// Matrix is a row-major 3x3 coordinate transformation matrix.
type Matrix [9]float64

var (
	identity  = Matrix{1, 0, 0, 0, 1, 0, 0, 0, 1}
	rotate90  = Matrix{0, -1, 1, 1, 0, 0, 0, 0, 1}
	rotate180 = Matrix{-1, 0, 1, 0, -1, 1, 0, 0, 1}
	rotate270 = Matrix{0, 1, 0, -1, 0, 1, 0, 0, 1}
)

// MatrixFor returns the transform for a monitor rotation. Unknown rotations
// map to the identity.
func MatrixFor(rot platform.Rotation) Matrix {
	switch rot {
	case platform.Rotate90:
		return rotate90
	case platform.Rotate180:
		return rotate180
	case platform.Rotate270:
		return rotate270
	default:
		return identity
	}
}

// Args formats the matrix as nine property values.
func (m Matrix) Args() []string {
	out := make([]string, len(m))
	for i, v := range m {
		out[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
