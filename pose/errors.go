// Package pose computes the rotation of a planar square marker relative to a
// calibrated camera.
//
// It converts between rotation matrices and the ZYZ-like angle triple used
// by the pose refinement, composes camera projection matrices and derives a
// closed form initial rotation from the edges of an observed marker.
package pose

import "github.com/pkg/errors"

var (
	// ErrDegenerateGeometry is returned when a required vector or cross
	// product collapses to zero length.
	ErrDegenerateGeometry = errors.New("degenerate marker geometry")

	// ErrSingularProjection is returned on a homogeneous divide by zero or a
	// singular perspective matrix.
	ErrSingularProjection = errors.New("singular projection")

	// ErrNonOrthonormalizable is returned when two direction candidates can't
	// be corrected into an orthonormal pair.
	ErrNonOrthonormalizable = errors.New("directions cannot be orthonormalized")

	// ErrInvalidMarker is returned for a marker whose direction index is not in [0, 3].
	ErrInvalidMarker = errors.New("invalid marker")
)
