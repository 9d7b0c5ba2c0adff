package photogrammetry

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"sphaeroptica.be/markerpose/pose"
)

// ProjectionMatrix combines a camera matrix with known extrinsics.
func ProjectionMatrix(cpara pose.CameraParam, extrinsics Extrinsics) (pose.ProjectionMatrix, error) {
	var p pose.ProjectionMatrix
	ext, err := extrinsics.Matrix.Dense()
	if err != nil {
		return p, errors.Wrap(err, "extrinsics")
	}
	if rows, cols := ext.Dims(); rows < 3 || cols != 4 {
		return p, errors.Errorf("extrinsics must be 3x4 or 4x4, got %dx%d", rows, cols)
	}

	var projMat mat.Dense
	projMat.Mul(cpara.Dense().Slice(0, 3, 0, 3), ext.Slice(0, 3, 0, 4))
	for j := 0; j < 3; j++ {
		for i := 0; i < 4; i++ {
			p[j][i] = projMat.At(j, i)
		}
	}
	return p, nil
}

// ProjectPoints projects marker-local points and applies the lens
// distortion, giving the pixels a real camera observes.
func ProjectPoints(positions []r3.Vector, proj pose.ProjectionMatrix, intrinsics mat.Matrix, dist Distortion) ([]Pos, error) {
	poses := make([]Pos, 0, len(positions))
	for _, position := range positions {
		pt, err := proj.Project(position)
		if err != nil {
			return nil, errors.Wrapf(err, "point %v", position)
		}
		if !dist.IsZero() {
			pt = dist.Distort(pt, intrinsics)
		}
		poses = append(poses, Pos{X: pt.X, Y: pt.Y})
	}
	return poses, nil
}

// MarkerCorners returns the corners of a square marker of side size in its
// own frame, ordered like the vertices a detector reports with direction dir.
func MarkerCorners(size float64, dir int) [4]r3.Vector {
	h := size / 2
	base := [4]r3.Vector{
		{X: -h, Y: h},
		{X: h, Y: h},
		{X: h, Y: -h},
		{X: -h, Y: -h},
	}
	var corners [4]r3.Vector
	for i := range corners {
		corners[i] = base[((i+dir)%4+4)%4]
	}
	return corners
}

// NewMarker builds the marker seen by an ideal camera from the observed
// vertices. Lines are fitted through the undistorted vertices unless the
// detector supplied them.
func NewMarker(dir int, vertices [4]r2.Point, lines *[4]r3.Vector, intrinsics mat.Matrix, dist Distortion) pose.MarkerInfo {
	if !dist.IsZero() {
		for i, v := range vertices {
			vertices[i] = dist.Undistort(v, intrinsics)
		}
	}
	marker := pose.MarkerFromVertices(dir, vertices)
	if lines != nil {
		marker.Lines = *lines
	}
	return marker
}
