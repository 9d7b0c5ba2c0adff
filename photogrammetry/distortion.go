package photogrammetry

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const OPENCV_DISTORT_VALUES = 8
const MAX_ITER = 100

// Distortion holds the OpenCV rational lens model coefficients
// k1, k2, p1, p2, k3, k4, k5, k6.
type Distortion [OPENCV_DISTORT_VALUES]float64

// NewDistortion pads coeffs with zeros up to the full rational model.
func NewDistortion(coeffs []float64) (Distortion, error) {
	var d Distortion
	if len(coeffs) > OPENCV_DISTORT_VALUES {
		return d, errors.Errorf("at most %d distortion coefficients, got %d", OPENCV_DISTORT_VALUES, len(coeffs))
	}
	copy(d[:], coeffs)
	return d, nil
}

func (d Distortion) IsZero() bool {
	return d == Distortion{}
}

func normalizePixel(point r2.Point, intrinsics mat.Matrix) r2.Point {
	fx, fy := intrinsics.At(0, 0), intrinsics.At(1, 1)
	cx, cy := intrinsics.At(0, 2), intrinsics.At(1, 2)
	return r2.Point{X: (point.X - cx) / fx, Y: (point.Y - cy) / fy}
}

func denormalizePixel(normPoint r2.Point, intrinsics mat.Matrix) r2.Point {
	fx, fy := intrinsics.At(0, 0), intrinsics.At(1, 1)
	cx, cy := intrinsics.At(0, 2), intrinsics.At(1, 2)
	return r2.Point{X: normPoint.X*fx + cx, Y: normPoint.Y*fy + cy}
}

// Undistort maps an observed pixel to where an ideal pinhole camera would
// have seen it, by fixed point iteration on the normalized coordinates.
func (d Distortion) Undistort(point r2.Point, intrinsics mat.Matrix) r2.Point {
	k1, k2, p1, p2, k3, k4, k5, k6 := d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7]

	p0 := normalizePixel(point, intrinsics)
	x, y := p0.X, p0.Y
	for range MAX_ITER {
		rsq := x*x + y*y
		kInv := (1 + k4*rsq + k5*rsq*rsq + k6*rsq*rsq*rsq) / (1 + k1*rsq + k2*rsq*rsq + k3*rsq*rsq*rsq)
		deltaX := 2*p1*x*y + p2*(rsq+2*x*x)
		deltaY := p1*(rsq+2*y*y) + 2*p2*x*y
		xant, yant := x, y
		x = (p0.X - deltaX) * kInv
		y = (p0.Y - deltaY) * kInv
		if e := math.Pow(xant-x, 2) + math.Pow(yant-y, 2); e == 0 {
			break
		}
	}
	return denormalizePixel(r2.Point{X: x, Y: y}, intrinsics)
}

// Distort applies the lens model to an ideal pixel.
func (d Distortion) Distort(point r2.Point, intrinsics mat.Matrix) r2.Point {
	// Non linear algorithm of lens distortion (explained by Amy Tabb)
	k1, k2, p1, p2, k3, k4, k5, k6 := d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7]

	u := normalizePixel(point, intrinsics)
	rsq := u.X*u.X + u.Y*u.Y
	radial := (1 + k1*rsq + k2*rsq*rsq + k3*rsq*rsq*rsq) / (1 + k4*rsq + k5*rsq*rsq + k6*rsq*rsq*rsq)
	x := u.X*radial + 2*p1*u.X*u.Y + p2*(rsq+2*u.X*u.X)
	y := u.Y*radial + 2*p2*u.X*u.Y + p1*(rsq+2*u.Y*u.Y)
	return denormalizePixel(r2.Point{X: x, Y: y}, intrinsics)
}
