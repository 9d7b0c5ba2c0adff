package main

import (
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"sphaeroptica.be/markerpose/imports"
	sph "sphaeroptica.be/markerpose/photogrammetry"
	"sphaeroptica.be/markerpose/pose"
)

// App struct
type App struct {
	logger golog.Logger
}

// NewApp creates a new App application struct
func NewApp(logger golog.Logger) *App {
	return &App{logger: logger}
}

// LoadProject reads a project file. A non empty intrinsicsFile replaces the
// project calibration with an OpenCV XML one.
func (a *App) LoadProject(projectFile string, intrinsicsFile string) (*project, error) {
	jsonFile, err := os.Open(projectFile)
	if err != nil {
		return nil, err
	}
	defer jsonFile.Close()

	byteValue, err := io.ReadAll(jsonFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", projectFile)
	}
	var calibFile project
	if err := json.Unmarshal(byteValue, &calibFile); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", projectFile)
	}

	if intrinsicsFile != "" {
		intrinsics, err := imports.ReadIntrinsicMetashape(intrinsicsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "intrinsics %s", intrinsicsFile)
		}
		calibFile.Intrinsics = *intrinsics
	}

	if calibFile.camera.cpara, err = calibFile.Intrinsics.CameraParam(); err != nil {
		return nil, errors.Wrap(err, "intrinsics")
	}
	if calibFile.camera.intrinsics, err = calibFile.Intrinsics.CameraMatrix.Dense(); err != nil {
		return nil, errors.Wrap(err, "intrinsics")
	}
	if calibFile.camera.dist, err = calibFile.Intrinsics.Distortion(); err != nil {
		return nil, errors.Wrap(err, "intrinsics")
	}
	a.logger.Debugf("camera matrix\n%v", sph.FormatMatrixPrint(calibFile.camera.intrinsics))
	return &calibFile, nil
}

func (p *project) markerNames() []string {
	keys := make([]string, 0, len(p.Markers))
	for k := range p.Markers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *project) observedVertices(name string) ([4]r2.Point, error) {
	var vertices [4]r2.Point
	m, ok := p.Markers[name]
	if !ok {
		return vertices, errors.Errorf("unknown marker %q", name)
	}
	if len(m.Vertices) != 4 {
		return vertices, errors.Wrapf(pose.ErrInvalidMarker, "%d vertices", len(m.Vertices))
	}
	for i, v := range m.Vertices {
		vertices[i] = r2.Point{X: v[0], Y: v[1]}
	}
	return vertices, nil
}

func (p *project) marker(name string) (pose.MarkerInfo, error) {
	vertices, err := p.observedVertices(name)
	if err != nil {
		return pose.MarkerInfo{}, err
	}
	m := p.Markers[name]

	var lines *[4]r3.Vector
	switch len(m.Lines) {
	case 0:
	case 4:
		lines = new([4]r3.Vector)
		for i, l := range m.Lines {
			lines[i] = r3.Vector{X: l[0], Y: l[1], Z: l[2]}
		}
	default:
		return pose.MarkerInfo{}, errors.Wrapf(pose.ErrInvalidMarker, "%d lines", len(m.Lines))
	}
	return sph.NewMarker(m.Dir, vertices, lines, p.camera.intrinsics, p.camera.dist), nil
}

// InitialRotations estimates the rotation of every marker of the project,
// in name order. Markers whose estimate fails are logged and left out.
func (a *App) InitialRotations(p *project) []MarkerRotation {
	results := make([]MarkerRotation, 0, len(p.Markers))
	for _, name := range p.markerNames() {
		marker, err := p.marker(name)
		if err != nil {
			a.logger.Warnf("skipping marker %s: %v", name, err)
			continue
		}
		rot, err := pose.EstimateInitialRotation(marker, p.camera.cpara)
		if err != nil {
			a.logger.Warnf("skipping marker %s: %v", name, err)
			continue
		}

		q := pose.QuaternionFromRotation(rot)
		results = append(results, MarkerRotation{
			Name:       name,
			Dir:        marker.Dir,
			Rotation:   rot,
			Angles:     sph.EulerDegrees(pose.EulerFromRotation(rot)),
			Quaternion: [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
		})
		a.logger.Debugf("marker %s rotation\n%v", name, sph.FormatMatrixPrint(rot.Dense()))
	}
	return results
}

// Evaluate fills the evaluation of each result that has a reference pose.
func (a *App) Evaluate(p *project, results []MarkerRotation, refs map[string]sph.Extrinsics) {
	for i := range results {
		res := &results[i]
		ref, ok := refs[res.Name]
		if !ok {
			a.logger.Warnf("no reference pose for marker %s", res.Name)
			continue
		}
		refRot, refTrans, err := ref.Pose()
		if err != nil {
			a.logger.Warnf("reference pose for marker %s: %v", res.Name, err)
			continue
		}

		centre := sph.GetCameraWorldsCoordinates(res.Rotation, refTrans)
		long, lat := sph.GetLongLat(centre)
		eval := &Evaluation{
			AngularError: sph.Rad2Degrees(pose.RotationDistance(refRot, res.Rotation)),
			Longitude:    sph.Rad2Degrees(long),
			Latitude:     sph.Rad2Degrees(lat),
		}

		if p.MaxAngularError > 0 && pose.RotationDistance(refRot, res.Rotation) > sph.Degrees2Rad(p.MaxAngularError) {
			eval.Outlier = true
			a.logger.Warnf("marker %s is %.3f degrees from its reference pose", res.Name, eval.AngularError)
		}

		if p.MarkerSize > 0 {
			a.reprojectAgainst(p, res.Name, eval, ref, pose.EulerFromRotation(res.Rotation), refTrans)
		}
		res.Evaluation = eval
		a.logger.Debugf("marker %s: %.3f degrees from reference", res.Name, eval.AngularError)
	}
}

// reprojectAgainst fills the reprojection of the estimate, placed at the
// reference translation, and of the reference pose itself.
func (a *App) reprojectAgainst(p *project, name string, eval *Evaluation, ref sph.Extrinsics, e pose.EulerAngles, trans r3.Vector) {
	corners, err := a.Reproject(p, name, e, trans)
	if err == nil {
		eval.Corners = corners
		eval.Reprojection, err = reprojectionError(p, name, corners)
	}
	if err != nil {
		a.logger.Warnf("reprojecting marker %s: %v", name, err)
	}

	proj, err := sph.ProjectionMatrix(p.camera.cpara, ref)
	if err == nil {
		var refCorners []sph.Pos
		if refCorners, err = projectCorners(p, name, proj); err == nil {
			eval.ReferenceReprojection, err = reprojectionError(p, name, refCorners)
		}
	}
	if err != nil {
		a.logger.Warnf("reprojecting reference of marker %s: %v", name, err)
	}
}

// Reproject returns the pixels where the corners of a marker at the given
// pose appear, lens distortion included.
func (a *App) Reproject(p *project, name string, e pose.EulerAngles, trans r3.Vector) ([]sph.Pos, error) {
	return projectCorners(p, name, pose.ComposeProjection(e, trans, nil, p.camera.cpara))
}

func projectCorners(p *project, name string, proj pose.ProjectionMatrix) ([]sph.Pos, error) {
	m, ok := p.Markers[name]
	if !ok {
		return nil, errors.Errorf("unknown marker %q", name)
	}
	if p.MarkerSize <= 0 {
		return nil, errors.New("project has no marker size")
	}
	corners := sph.MarkerCorners(p.MarkerSize, m.Dir)
	return sph.ProjectPoints(corners[:], proj, p.camera.intrinsics, p.camera.dist)
}

// reprojectionError is the mean pixel distance between the observed vertices
// of a marker and reprojected corners.
func reprojectionError(p *project, name string, corners []sph.Pos) (float64, error) {
	vertices, err := p.observedVertices(name)
	if err != nil {
		return 0, err
	}
	if len(corners) != len(vertices) {
		return 0, errors.Errorf("%d corners for %d vertices", len(corners), len(vertices))
	}
	var sum float64
	for i, c := range corners {
		sum += vertices[i].Sub(r2.Point{X: c.X, Y: c.Y}).Norm()
	}
	return sum / float64(len(corners)), nil
}
