package pose

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Float is the scalar type of every pose computation.
type Float = float64

// RotationMatrix is a 3x3 rotation in row major order.
type RotationMatrix [3][3]Float

// CameraParam is the 3x4 camera parameter matrix produced by calibration.
// The upper-left 3x3 block is the perspective matrix.
type CameraParam [3][4]Float

// ProjectionMatrix maps marker-local homogeneous coordinates to image
// homogeneous coordinates.
type ProjectionMatrix [3][4]Float

// EulerAngles holds the three angles of the ZYZ-like decomposition used by
// EulerFromRotation and RotationFromEuler, in radians.
type EulerAngles struct {
	A Float `json:"a"`
	B Float `json:"b"`
	C Float `json:"c"`
}

// MarkerInfo describes one detected marker quadrilateral.
//
// Lines[i] holds the homogeneous coefficients (a, b, c) of the edge running
// from Vertices[i] to Vertices[(i+1)%4], with a*x + b*y + c = 0. Dir tells
// which vertex is the marker's first corner once the pattern orientation is
// known.
type MarkerInfo struct {
	Dir      int
	Lines    [4]r3.Vector
	Vertices [4]r2.Point
}

// Identity returns the identity rotation.
func Identity() RotationMatrix {
	return RotationMatrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

func rotationFromColumns(c0, c1, c2 r3.Vector) RotationMatrix {
	return RotationMatrix{
		{c0.X, c1.X, c2.X},
		{c0.Y, c1.Y, c2.Y},
		{c0.Z, c1.Z, c2.Z},
	}
}

// Column returns column i as a vector.
func (r RotationMatrix) Column(i int) r3.Vector {
	return r3.Vector{X: r[0][i], Y: r[1][i], Z: r[2][i]}
}

func (r RotationMatrix) Transpose() RotationMatrix {
	var t RotationMatrix
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			t[j][i] = r[i][j]
		}
	}
	return t
}

func (r RotationMatrix) Mul(o RotationMatrix) RotationMatrix {
	var m RotationMatrix
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			m[j][i] = r[j][0]*o[0][i] + r[j][1]*o[1][i] + r[j][2]*o[2][i]
		}
	}
	return m
}

// Apply rotates v.
func (r RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

func (r RotationMatrix) Det() float64 {
	return r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
}

// IsOrthonormal reports whether the columns are unit length and mutually
// orthogonal within tol and the determinant is +1 within tol.
func (r RotationMatrix) IsOrthonormal(tol float64) bool {
	for i := 0; i < 3; i++ {
		c := r.Column(i)
		if math.Abs(c.Norm()-1) > tol {
			return false
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(c.Dot(r.Column(j))) > tol {
				return false
			}
		}
	}
	return math.Abs(r.Det()-1) <= tol
}

func (r RotationMatrix) Dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		r[0][0], r[0][1], r[0][2],
		r[1][0], r[1][1], r[1][2],
		r[2][0], r[2][1], r[2][2],
	})
}

func (c CameraParam) Dense() *mat.Dense {
	return dense34(c)
}

func (p ProjectionMatrix) Dense() *mat.Dense {
	return dense34(p)
}

func dense34(m [3][4]float64) *mat.Dense {
	data := make([]float64, 0, 12)
	for j := 0; j < 3; j++ {
		data = append(data, m[j][:]...)
	}
	return mat.NewDense(3, 4, data)
}

// CameraParamFromDense builds a camera parameter matrix from a 3x3 camera
// matrix (the fourth column is zero) or a full 3x4 matrix.
func CameraParamFromDense(m mat.Matrix) (CameraParam, error) {
	var c CameraParam
	rows, cols := m.Dims()
	if rows != 3 || (cols != 3 && cols != 4) {
		return c, errors.Errorf("camera parameter must be 3x3 or 3x4, got %dx%d", rows, cols)
	}
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			c[j][i] = m.At(j, i)
		}
	}
	return c, nil
}

// Project maps a marker-local point to image coordinates.
func (p ProjectionMatrix) Project(x r3.Vector) (r2.Point, error) {
	h := p[2][0]*x.X + p[2][1]*x.Y + p[2][2]*x.Z + p[2][3]
	if h == 0 {
		return r2.Point{}, ErrSingularProjection
	}
	return r2.Point{
		X: (p[0][0]*x.X + p[0][1]*x.Y + p[0][2]*x.Z + p[0][3]) / h,
		Y: (p[1][0]*x.X + p[1][1]*x.Y + p[1][2]*x.Z + p[1][3]) / h,
	}, nil
}
