package pose

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BackProjectionDepth is the depth at which an edge start point is lifted
// back into camera space when checking a direction's sign. Only the sign of
// the reprojected direction is used, so any positive depth works as long as
// it stays fixed.
const BackProjectionDepth = 10.0

// EstimateInitialRotation computes a first guess of the marker rotation from
// its edge lines. The columns of the result are the marker x axis, y axis
// and their cross product, in camera coordinates.
//
// Each axis is the vanishing direction of a pair of opposite edges. Its sign
// is fixed against the vertex order, then both axes are corrected into an
// exactly orthogonal pair. Any failure abandons the estimate for this
// marker.
func EstimateInitialRotation(marker MarkerInfo, cpara CameraParam) (RotationMatrix, error) {
	dir := marker.Dir
	if dir < 0 || dir > 3 {
		return RotationMatrix{}, errors.Wrapf(ErrInvalidMarker, "direction index %d", dir)
	}

	var wdir [2]r3.Vector
	for j := 0; j < 2; j++ {
		l1 := marker.Lines[(4-dir+j)%4]
		l2 := marker.Lines[(6-dir+j)%4]
		d, err := vanishingDirection(l1, l2, cpara)
		if err != nil {
			return RotationMatrix{}, errors.Wrapf(err, "edge pair %d", j)
		}
		wdir[j] = d
	}

	if err := disambiguateDirection(&wdir[0], marker.Vertices[(4-dir)%4], marker.Vertices[(5-dir)%4], cpara); err != nil {
		return RotationMatrix{}, errors.Wrap(err, "x axis")
	}
	if err := disambiguateDirection(&wdir[1], marker.Vertices[(7-dir)%4], marker.Vertices[(4-dir)%4], cpara); err != nil {
		return RotationMatrix{}, errors.Wrap(err, "y axis")
	}

	x, y, err := orthonormalizeBasis(wdir[0], wdir[1])
	if err != nil {
		return RotationMatrix{}, err
	}

	z, err := normalize(x.Cross(y))
	if err != nil {
		return RotationMatrix{}, errors.Wrap(err, "z axis")
	}
	return rotationFromColumns(x, y, z), nil
}

// vanishingDirection returns the unit camera-space direction of the
// vanishing point of two image lines.
func vanishingDirection(l1, l2 r3.Vector, cpara CameraParam) (r3.Vector, error) {
	v := l1.Cross(l2)
	d := r3.Vector{
		X: v.Z*(cpara[0][1]*cpara[1][2]-cpara[0][2]*cpara[1][1]) + v.X*cpara[1][1] - v.Y*cpara[0][1],
		Y: -v.Z*cpara[0][0]*cpara[1][2] + v.Y*cpara[0][0],
		Z: v.Z * cpara[0][0] * cpara[1][1],
	}
	return normalize(d)
}

func normalize(v r3.Vector) (r3.Vector, error) {
	w := v.Norm()
	if w == 0 {
		return r3.Vector{}, ErrDegenerateGeometry
	}
	return r3.Vector{X: v.X / w, Y: v.Y / w, Z: v.Z / w}, nil
}

// disambiguateDirection flips dir when its image, starting from st, points
// away from the observed edge st->ed.
func disambiguateDirection(dir *r3.Vector, st, ed r2.Point, cpara CameraParam) error {
	inv, err := invertPerspective(cpara)
	if err != nil {
		return err
	}

	s := BackProjectionDepth
	var world [2]r3.Vector
	world[0] = r3.Vector{
		X: inv.At(0, 0)*st.X*s + inv.At(0, 1)*st.Y*s + inv.At(0, 2)*s,
		Y: inv.At(1, 0)*st.X*s + inv.At(1, 1)*st.Y*s + inv.At(1, 2)*s,
		Z: inv.At(2, 0)*st.X*s + inv.At(2, 1)*st.Y*s + inv.At(2, 2)*s,
	}
	world[1] = world[0].Add(*dir)

	var camera [2]r2.Point
	for i, w := range world {
		h := cpara[2][0]*w.X + cpara[2][1]*w.Y + cpara[2][2]*w.Z
		if h == 0 {
			return ErrSingularProjection
		}
		camera[i] = r2.Point{
			X: (cpara[0][0]*w.X + cpara[0][1]*w.Y + cpara[0][2]*w.Z) / h,
			Y: (cpara[1][0]*w.X + cpara[1][1]*w.Y + cpara[1][2]*w.Z) / h,
		}
	}

	observed := ed.Sub(st)
	predicted := camera[1].Sub(camera[0])
	if observed.Dot(predicted) < 0 {
		*dir = dir.Mul(-1)
	}
	return nil
}

// invertPerspective returns the inverse of the 3x3 perspective block of cpara.
func invertPerspective(cpara CameraParam) (*mat.Dense, error) {
	a := mat.NewDense(3, 3, []float64{
		cpara[0][0], cpara[0][1], cpara[0][2],
		cpara[1][0], cpara[1][1], cpara[1][2],
		cpara[2][0], cpara[2][1], cpara[2][2],
	})
	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		// Ill-conditioned blocks still yield a usable inverse; only an
		// exactly singular one (infinite condition number) is fatal.
		cond, ok := err.(mat.Condition)
		if !ok || math.IsInf(float64(cond), 1) {
			return nil, errors.Wrap(ErrSingularProjection, err.Error())
		}
	}
	return &inv, nil
}
