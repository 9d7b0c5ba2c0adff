package pose

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// QuaternionFromRotation returns the unit quaternion of rot with a
// non-negative real part.
func QuaternionFromRotation(rot RotationMatrix) quat.Number {
	var q quat.Number
	if tr := rot[0][0] + rot[1][1] + rot[2][2]; tr > 0 {
		s := 0.5 / math.Sqrt(tr+1)
		q = quat.Number{
			Real: 0.25 / s,
			Imag: (rot[2][1] - rot[1][2]) * s,
			Jmag: (rot[0][2] - rot[2][0]) * s,
			Kmag: (rot[1][0] - rot[0][1]) * s,
		}
	} else if rot[0][0] > rot[1][1] && rot[0][0] > rot[2][2] {
		s := 2 * math.Sqrt(1+rot[0][0]-rot[1][1]-rot[2][2])
		q = quat.Number{
			Real: (rot[2][1] - rot[1][2]) / s,
			Imag: 0.25 * s,
			Jmag: (rot[0][1] + rot[1][0]) / s,
			Kmag: (rot[0][2] + rot[2][0]) / s,
		}
	} else if rot[1][1] > rot[2][2] {
		s := 2 * math.Sqrt(1+rot[1][1]-rot[0][0]-rot[2][2])
		q = quat.Number{
			Real: (rot[0][2] - rot[2][0]) / s,
			Imag: (rot[0][1] + rot[1][0]) / s,
			Jmag: 0.25 * s,
			Kmag: (rot[1][2] + rot[2][1]) / s,
		}
	} else {
		s := 2 * math.Sqrt(1+rot[2][2]-rot[0][0]-rot[1][1])
		q = quat.Number{
			Real: (rot[1][0] - rot[0][1]) / s,
			Imag: (rot[0][2] + rot[2][0]) / s,
			Jmag: (rot[1][2] + rot[2][1]) / s,
			Kmag: 0.25 * s,
		}
	}

	q = quat.Scale(1/quat.Abs(q), q)
	if q.Real < 0 {
		q = quat.Scale(-1, q)
	}
	return q
}

// RotationFromQuaternion returns the rotation of q. q need not be unit.
func RotationFromQuaternion(q quat.Number) RotationMatrix {
	q = quat.Scale(1/quat.Abs(q), q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return RotationMatrix{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	}
}

// RotationDistance returns the angle in radians of the rotation taking r1
// onto r2.
func RotationDistance(r1, r2 RotationMatrix) float64 {
	m := r1.Transpose().Mul(r2)
	cos := (m[0][0] + m[1][1] + m[2][2] - 1) / 2
	return math.Acos(math.Max(-1, math.Min(1, cos)))
}
