package photogrammetry

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sphaeroptica.be/markerpose/pose"
)

type Shape struct {
	Row int
	Col int
}

type MatrixInfo struct {
	Shape Shape
	Data  []float64
}

// Dense returns the matrix, checking the data against the declared shape.
func (m MatrixInfo) Dense() (*mat.Dense, error) {
	if m.Shape.Row <= 0 || m.Shape.Col <= 0 {
		return nil, errors.Errorf("invalid shape %dx%d", m.Shape.Row, m.Shape.Col)
	}
	if len(m.Data) != m.Shape.Row*m.Shape.Col {
		return nil, errors.Errorf("shape %dx%d needs %d values, got %d", m.Shape.Row, m.Shape.Col, m.Shape.Row*m.Shape.Col, len(m.Data))
	}
	return mat.NewDense(m.Shape.Row, m.Shape.Col, m.Data), nil
}

type Extrinsics struct {
	Matrix MatrixInfo
}

// Pose splits a 3x4 or 4x4 extrinsic matrix into its rotation and
// translation.
func (e Extrinsics) Pose() (pose.RotationMatrix, r3.Vector, error) {
	var rot pose.RotationMatrix
	m, err := e.Matrix.Dense()
	if err != nil {
		return rot, r3.Vector{}, errors.Wrap(err, "extrinsics")
	}
	if rows, cols := m.Dims(); rows < 3 || rows > 4 || cols != 4 {
		return rot, r3.Vector{}, errors.Errorf("extrinsics must be 3x4 or 4x4, got %dx%d", rows, cols)
	}
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			rot[j][i] = m.At(j, i)
		}
	}
	return rot, r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, nil
}

type Intrinsics struct {
	Height           int
	Width            int
	CameraMatrix     MatrixInfo
	DistortionMatrix MatrixInfo
}

// CameraParam returns the camera matrix as a 3x4 camera parameter matrix.
func (in Intrinsics) CameraParam() (pose.CameraParam, error) {
	m, err := in.CameraMatrix.Dense()
	if err != nil {
		return pose.CameraParam{}, errors.Wrap(err, "camera matrix")
	}
	return pose.CameraParamFromDense(m)
}

// Distortion returns the lens distortion coefficients. A missing
// distortion matrix means no distortion.
func (in Intrinsics) Distortion() (Distortion, error) {
	if len(in.DistortionMatrix.Data) == 0 {
		return Distortion{}, nil
	}
	m, err := in.DistortionMatrix.Dense()
	if err != nil {
		return Distortion{}, errors.Wrap(err, "distortion matrix")
	}
	return NewDistortion(m.RawMatrix().Data)
}

// IntrinsicsXML is the OpenCV storage layout written by Metashape's
// calibration export.
type IntrinsicsXML struct {
	ImageWidth             int       `xml:"image_Width"`
	ImageHeight            int       `xml:"image_Height"`
	CameraMatrix           MatrixXML `xml:"Camera_Matrix"`
	DistortionCoefficients MatrixXML `xml:"Distortion_Coefficients"`
}

type MatrixXML struct {
	Rows int    `xml:"rows"`
	Cols int    `xml:"cols"`
	Data string `xml:"data"`
}

type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
