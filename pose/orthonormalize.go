package pose

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// discriminantRoundOff bounds the relative round-off under which a negative
// discriminant is read as a double root. Exactly orthogonal inputs give a
// tangent line whose discriminant lands on either side of zero.
const discriminantRoundOff = 1e-12

// axisSwap exchanges two coordinates of a vector. Each swap is its own
// inverse, so the same value maps into and out of the permuted frame.
type axisSwap struct{ i, j int }

// axisSwaps are the coordinate exchanges available to turnInPlane.
var axisSwaps = [...]axisSwap{
	{0, 0}, // identity
	{1, 2},
	{0, 2},
}

func (s axisSwap) apply(v r3.Vector) r3.Vector {
	c := [3]float64{v.X, v.Y, v.Z}
	c[s.i], c[s.j] = c[s.j], c[s.i]
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

// orthonormalizeBasis corrects two approximately orthogonal unit vectors
// into the closest exactly orthogonal unit pair lying in the same plane.
//
// Each vector is turned by the same angle inside the plane they span: the
// corrected vector x satisfies |x| = 1, x.v3 = 0 and x.v = ca, where v3 is
// the plane normal. Both roots of that quadratic are kept, and of the four
// pairings the one closest to orthogonal wins.
func orthonormalizeBasis(v1, v2 r3.Vector) (r3.Vector, r3.Vector, error) {
	v3, err := normalize(v1.Cross(v2))
	if err != nil {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(err, "colinear directions")
	}

	cb := math.Abs(v1.Dot(v2))
	ca := (math.Sqrt(cb+1) + math.Sqrt(1-cb)) * 0.5

	x1, x2, err := turnInPlane(v1, v3, ca)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(err, "first direction")
	}
	y1, y2, err := turnInPlane(v2, v3, ca)
	if err != nil {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(err, "second direction")
	}

	x, y := closestToOrthogonal([4][2]r3.Vector{
		{x1, y1},
		{x1, y2},
		{x2, y1},
		{x2, y2},
	})
	return x, y, nil
}

// bestAxisSwap returns the swap whose 2x2 system in v and v3 has the
// largest |det|, the first one on equal values. ok is false when every
// system is singular.
func bestAxisSwap(v, v3 r3.Vector) (s axisSwap, ok bool) {
	var best float64
	for _, cand := range axisSwaps {
		pv, pv3 := cand.apply(v), cand.apply(v3)
		if det := math.Abs(pv3.Y*pv.X - pv.Y*pv3.X); det > best {
			s, best, ok = cand, det, true
		}
	}
	return s, ok
}

// turnInPlane returns the two unit vectors x with x.v3 = 0 and x.v = ca.
// The first result comes from the positive square root of the discriminant.
func turnInPlane(v, v3 r3.Vector, ca float64) (r3.Vector, r3.Vector, error) {
	s, ok := bestAxisSwap(v, v3)
	if !ok {
		return r3.Vector{}, r3.Vector{}, errors.Wrap(ErrNonOrthonormalizable, "no coordinate pair gives a solvable system")
	}
	pv, pv3 := s.apply(v), s.apply(v3)
	det := pv3.Y*pv.X - pv.Y*pv3.X

	k1 := (pv.Y*pv3.Z - pv3.Y*pv.Z) / det
	k2 := (pv3.Y * ca) / det
	k3 := (pv.X*pv3.Z - pv3.X*pv.Z) / (pv3.X*pv.Y - pv.X*pv3.Y)
	k4 := (pv3.X * ca) / (pv3.X*pv.Y - pv.X*pv3.Y)

	a := k1*k1 + k3*k3 + 1
	b := k1*k2 + k3*k4
	c := k2*k2 + k4*k4 - 1

	d := b*b - a*c
	if d < 0 && d >= -discriminantRoundOff*(b*b+math.Abs(a*c)) {
		d = 0
	}
	if d < 0 {
		return r3.Vector{}, r3.Vector{}, errors.Wrapf(ErrNonOrthonormalizable, "negative discriminant %g", d)
	}

	r1 := (-b + math.Sqrt(d)) / a
	r2 := (-b - math.Sqrt(d)) / a
	x1 := r3.Vector{X: k1*r1 + k2, Y: k3*r1 + k4, Z: r1}
	x2 := r3.Vector{X: k1*r2 + k2, Y: k3*r2 + k4, Z: r2}
	return s.apply(x1), s.apply(x2), nil
}

// closestToOrthogonal picks the pair with the smallest |x.y|.
//
// Candidates are scanned in order and a later candidate replaces the current
// best on an exact tie. Existing poses depend on this order.
func closestToOrthogonal(candidates [4][2]r3.Vector) (r3.Vector, r3.Vector) {
	best := 0
	bestScore := math.Abs(candidates[0][0].Dot(candidates[0][1]))
	for i := 1; i < len(candidates); i++ {
		score := math.Abs(candidates[i][0].Dot(candidates[i][1]))
		if score <= bestScore {
			best, bestScore = i, score
		}
	}
	return candidates[best][0], candidates[best][1]
}
