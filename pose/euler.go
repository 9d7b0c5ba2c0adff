package pose

import "math"

// gimbalLockEpsilon is the smallest |b| for which a and c are separable.
const gimbalLockEpsilon = 0.000001

// clampPair clamps a sine/cosine pair to [-1, 1]. When one member is clamped
// the other is zeroed so the pair stays on the unit circle.
func clampPair(sin, cos float64) (float64, float64) {
	if cos > 1 {
		cos, sin = 1, 0
	}
	if cos < -1 {
		cos, sin = -1, 0
	}
	if sin > 1 {
		sin, cos = 1, 0
	}
	if sin < -1 {
		sin, cos = -1, 0
	}
	return sin, cos
}

// signedAcos returns acos(cos), negated when sin is negative.
func signedAcos(sin, cos float64) float64 {
	angle := math.Acos(cos)
	if sin < 0 {
		angle = -angle
	}
	return angle
}

// EulerFromRotation decomposes rot into the angle triple consumed by
// RotationFromEuler. Values slightly outside [-1, 1] from round-off are
// clamped, so the decomposition never produces NaN.
//
// When b is within 1e-6 of zero the rotation is about z only; a and b are
// then defined as zero and the whole rotation is carried by c.
func EulerFromRotation(rot RotationMatrix) EulerAngles {
	cosb := math.Max(-1, math.Min(1, rot[2][2]))
	b := math.Acos(cosb)
	sinb := math.Sin(b)

	if b < gimbalLockEpsilon && b > -gimbalLockEpsilon {
		sinc, cosc := clampPair(rot[1][0], rot[0][0])
		return EulerAngles{A: 0, B: 0, C: signedAcos(sinc, cosc)}
	}

	sina, cosa := clampPair(rot[1][2]/sinb, rot[0][2]/sinb)
	a := signedAcos(sina, cosa)

	n := rot[0][2]*rot[0][2] + rot[1][2]*rot[1][2]
	sinc := (rot[2][1]*rot[0][2] - rot[2][0]*rot[1][2]) / n
	cosc := -(rot[0][2]*rot[2][0] + rot[1][2]*rot[2][1]) / n
	sinc, cosc = clampPair(sinc, cosc)

	return EulerAngles{A: a, B: b, C: signedAcos(sinc, cosc)}
}

// RotationFromEuler rebuilds the rotation matrix of e.
func RotationFromEuler(e EulerAngles) RotationMatrix {
	sina, cosa := math.Sincos(e.A)
	sinb, cosb := math.Sincos(e.B)
	sinc, cosc := math.Sincos(e.C)

	var rot RotationMatrix
	rot[0][0] = cosa*cosa*cosb*cosc + sina*sina*cosc + sina*cosa*cosb*sinc - sina*cosa*sinc
	rot[0][1] = -cosa*cosa*cosb*sinc - sina*sina*sinc + sina*cosa*cosb*cosc - sina*cosa*cosc
	rot[0][2] = cosa * sinb
	rot[1][0] = sina*cosa*cosb*cosc - sina*cosa*cosc + sina*sina*cosb*sinc + cosa*cosa*sinc
	rot[1][1] = -sina*cosa*cosb*sinc + sina*cosa*sinc + sina*sina*cosb*cosc + cosa*cosa*cosc
	rot[1][2] = sina * sinb
	rot[2][0] = -cosa*sinb*cosc - sina*sinb*sinc
	rot[2][1] = cosa*sinb*sinc - sina*sinb*cosc
	rot[2][2] = cosb
	return rot
}
