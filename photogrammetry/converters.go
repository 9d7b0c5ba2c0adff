package photogrammetry

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"sphaeroptica.be/markerpose/pose"
)

func FormatMatrixPrint(matrix mat.Matrix) fmt.Formatter {
	return mat.Formatted(matrix, mat.Prefix("    "), mat.Squeeze())
}

func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

func Degrees2Rad(deg float64) float64 {
	res := deg * math.Pi / 180
	return roundFloat(res, 10)
}

func Rad2Degrees(rad float64) float64 {
	res := rad * 180 / math.Pi
	return roundFloat(res, 10)
}

// EulerDegrees returns the angles in degrees.
func EulerDegrees(e pose.EulerAngles) pose.EulerAngles {
	return pose.EulerAngles{A: Rad2Degrees(e.A), B: Rad2Degrees(e.B), C: Rad2Degrees(e.C)}
}

// RotateXAxis returns the rotation of angle radians around the x axis.
func RotateXAxis(angle float64) *mat.Dense {
	s, c := math.Sincos(angle)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// GetCameraWorldsCoordinates returns the camera centre in the frame the
// rotation and translation map from, here the marker frame.
func GetCameraWorldsCoordinates(rotation pose.RotationMatrix, trans r3.Vector) r3.Vector {
	return rotation.Transpose().Apply(trans).Mul(-1)
}

// GetLongLat returns the geographic coordinates of a direction, in radians.
func GetLongLat(vector r3.Vector) (float64, float64) {
	v := vector.Normalize()
	latitude := math.Atan2(v.Z, math.Sqrt(v.X*v.X+v.Y*v.Y))
	longitude := math.Atan2(v.Y, v.X)
	return longitude, latitude
}
