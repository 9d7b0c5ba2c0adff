package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sph "sphaeroptica.be/markerpose/photogrammetry"
	"sphaeroptica.be/markerpose/pose"
)

var testIntrinsics = sph.Intrinsics{
	Height: 480,
	Width:  640,
	CameraMatrix: sph.MatrixInfo{
		Shape: sph.Shape{Row: 3, Col: 3},
		Data:  []float64{800, 0, 320, 0, 800, 240, 0, 0, 1},
	},
	DistortionMatrix: sph.MatrixInfo{
		Shape: sph.Shape{Row: 1, Col: 5},
		Data:  []float64{-0.1, 0.02, 0.0005, 0.0003, 0},
	},
}

var (
	trueAngles = pose.EulerAngles{A: 0.3, B: 0.5, C: -0.2}
	trueTrans  = r3.Vector{X: 10, Y: -5, Z: 500}
)

func observedMarker(t *testing.T, dir int) markerJSON {
	t.Helper()
	cpara, err := testIntrinsics.CameraParam()
	require.NoError(t, err)
	intrinsics, err := testIntrinsics.CameraMatrix.Dense()
	require.NoError(t, err)
	dist, err := testIntrinsics.Distortion()
	require.NoError(t, err)

	corners := sph.MarkerCorners(80, dir)
	pixels, err := sph.ProjectPoints(corners[:], pose.ComposeProjection(trueAngles, trueTrans, nil, cpara), intrinsics, dist)
	require.NoError(t, err)

	m := markerJSON{Dir: dir}
	for _, p := range pixels {
		m.Vertices = append(m.Vertices, [2]float64{p.X, p.Y})
	}
	return m
}

func writeProject(t *testing.T, p project) string {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testProject(t *testing.T) string {
	t.Helper()
	return writeProject(t, project{
		Intrinsics: testIntrinsics,
		MarkerSize: 80,
		Markers: map[string]markerJSON{
			"IMG_0001.jpg": observedMarker(t, 0),
			"IMG_0002.jpg": observedMarker(t, 3),
			"IMG_0003.jpg": {Dir: 0, Vertices: [][2]float64{{100, 100}, {100, 100}, {200, 220}, {90, 210}}},
			"IMG_0004.jpg": {Dir: 0, Vertices: [][2]float64{{100, 100}, {200, 100}, {200, 200}}},
			"IMG_0005.jpg": {Dir: 7, Vertices: [][2]float64{{100, 100}, {200, 100}, {200, 200}, {100, 200}}},
		},
	})
}

func TestInitialRotations(t *testing.T) {
	app := NewApp(golog.NewTestLogger(t))
	p, err := app.LoadProject(testProject(t), "")
	require.NoError(t, err)

	results := app.InitialRotations(p)
	require.Len(t, results, 2)
	assert.Equal(t, "IMG_0001.jpg", results[0].Name)
	assert.Equal(t, "IMG_0002.jpg", results[1].Name)

	want := pose.RotationFromEuler(trueAngles)
	for _, res := range results {
		assert.InDelta(t, 0, pose.RotationDistance(want, res.Rotation), 1e-6, res.Name)
		assert.InDelta(t, sph.Rad2Degrees(trueAngles.A), res.Angles.A, 1e-4, res.Name)
		assert.InDelta(t, sph.Rad2Degrees(trueAngles.B), res.Angles.B, 1e-4, res.Name)
		assert.InDelta(t, sph.Rad2Degrees(trueAngles.C), res.Angles.C, 1e-4, res.Name)
		assert.Nil(t, res.Evaluation)
	}
}

func TestEvaluate(t *testing.T) {
	app := NewApp(golog.NewTestLogger(t))
	p, err := app.LoadProject(testProject(t), "")
	require.NoError(t, err)
	results := app.InitialRotations(p)
	require.Len(t, results, 2)

	app.Evaluate(p, results, map[string]sph.Extrinsics{
		"IMG_0001.jpg": referenceExtrinsics(trueAngles, trueTrans),
	})

	eval := results[0].Evaluation
	require.NotNil(t, eval)
	assert.InDelta(t, 0, eval.AngularError, 1e-4)
	assert.Len(t, eval.Corners, 4)
	assert.InDelta(t, 0, eval.Reprojection, 1e-3)
	assert.InDelta(t, 0, eval.ReferenceReprojection, 1e-3)
	assert.False(t, eval.Outlier)

	centre := sph.GetCameraWorldsCoordinates(pose.RotationFromEuler(trueAngles), trueTrans)
	long, lat := sph.GetLongLat(centre)
	assert.InDelta(t, sph.Rad2Degrees(long), eval.Longitude, 1e-3)
	assert.InDelta(t, sph.Rad2Degrees(lat), eval.Latitude, 1e-3)

	assert.Nil(t, results[1].Evaluation)
}

func referenceExtrinsics(e pose.EulerAngles, trans r3.Vector) sph.Extrinsics {
	rot := pose.RotationFromEuler(e)
	return sph.Extrinsics{Matrix: sph.MatrixInfo{Shape: sph.Shape{Row: 3, Col: 4}, Data: []float64{
		rot[0][0], rot[0][1], rot[0][2], trans.X,
		rot[1][0], rot[1][1], rot[1][2], trans.Y,
		rot[2][0], rot[2][1], rot[2][2], trans.Z,
	}}}
}

func TestEvaluateFlagsOutlier(t *testing.T) {
	app := NewApp(golog.NewTestLogger(t))
	path := writeProject(t, project{
		Intrinsics:      testIntrinsics,
		MarkerSize:      80,
		MaxAngularError: 5,
		Markers: map[string]markerJSON{
			"IMG_0001.jpg": observedMarker(t, 0),
			"IMG_0002.jpg": observedMarker(t, 1),
		},
	})
	p, err := app.LoadProject(path, "")
	require.NoError(t, err)
	results := app.InitialRotations(p)
	require.Len(t, results, 2)

	// The second reference tilts the marker 0.4 rad further than observed.
	wrong := trueAngles
	wrong.B += 0.4
	app.Evaluate(p, results, map[string]sph.Extrinsics{
		"IMG_0001.jpg": referenceExtrinsics(trueAngles, trueTrans),
		"IMG_0002.jpg": referenceExtrinsics(wrong, trueTrans),
	})

	good := results[0].Evaluation
	require.NotNil(t, good)
	assert.False(t, good.Outlier)
	assert.InDelta(t, 0, good.ReferenceReprojection, 1e-3)

	bad := results[1].Evaluation
	require.NotNil(t, bad)
	assert.True(t, bad.Outlier)
	assert.Greater(t, bad.AngularError, 20.0)
	assert.InDelta(t, 0, bad.Reprojection, 1e-3)
	assert.Greater(t, bad.ReferenceReprojection, 1.0)
}

func TestEvaluateBadReference(t *testing.T) {
	app := NewApp(golog.NewTestLogger(t))
	p, err := app.LoadProject(testProject(t), "")
	require.NoError(t, err)
	results := app.InitialRotations(p)
	require.NotEmpty(t, results)

	ref := sph.Extrinsics{Matrix: sph.MatrixInfo{Shape: sph.Shape{Row: 3, Col: 3}, Data: make([]float64, 9)}}
	app.Evaluate(p, results, map[string]sph.Extrinsics{results[0].Name: ref})
	assert.Nil(t, results[0].Evaluation)
}

func TestReprojectWithoutMarkerSize(t *testing.T) {
	app := NewApp(golog.NewTestLogger(t))
	path := writeProject(t, project{
		Intrinsics: testIntrinsics,
		Markers:    map[string]markerJSON{"IMG_0001.jpg": observedMarker(t, 0)},
	})
	p, err := app.LoadProject(path, "")
	require.NoError(t, err)

	_, err = app.Reproject(p, "IMG_0001.jpg", trueAngles, trueTrans)
	assert.Error(t, err)
	_, err = app.Reproject(p, "missing", trueAngles, trueTrans)
	assert.Error(t, err)
}

func TestMarkerLines(t *testing.T) {
	m := observedMarker(t, 0)
	m.Lines = [][3]float64{{1, 0, 0}, {0, 1, 0}}
	p := &project{Markers: map[string]markerJSON{"bad": m}}
	_, err := p.marker("bad")
	assert.ErrorIs(t, err, pose.ErrInvalidMarker)

	_, err = p.marker("missing")
	assert.Error(t, err)
}

func TestLoadProjectErrors(t *testing.T) {
	app := NewApp(golog.NewTestLogger(t))

	_, err := app.LoadProject(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
	_, err = app.LoadProject(bad, "")
	assert.Error(t, err)

	intrinsics := testIntrinsics
	intrinsics.CameraMatrix.Data = intrinsics.CameraMatrix.Data[:8]
	_, err = app.LoadProject(writeProject(t, project{Intrinsics: intrinsics}), "")
	assert.Error(t, err)
}

func TestLoadProjectIntrinsicsOverride(t *testing.T) {
	xml := `<opencv_storage><image_Width>1000</image_Width><image_Height>800</image_Height>
<Camera_Matrix><rows>3</rows><cols>3</cols><data>1200 0 500 0 1200 400 0 0 1</data></Camera_Matrix>
<Distortion_Coefficients><rows>1</rows><cols>5</cols><data>0 0 0 0 0</data></Distortion_Coefficients>
</opencv_storage>`
	xmlPath := filepath.Join(t.TempDir(), "cam.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(xml), 0o644))

	app := NewApp(golog.NewTestLogger(t))
	p, err := app.LoadProject(testProject(t), xmlPath)
	require.NoError(t, err)
	assert.Equal(t, 1000, p.Intrinsics.Width)
	assert.Equal(t, 1200.0, p.camera.cpara[0][0])
	assert.True(t, p.camera.dist.IsZero())
}

func TestPrintResults(t *testing.T) {
	results := []MarkerRotation{{
		Name:       "IMG_0001.jpg",
		Rotation:   pose.Identity(),
		Quaternion: [4]float64{1, 0, 0, 0},
		Evaluation: &Evaluation{AngularError: 1.5},
	}}
	var buf bytes.Buffer
	require.NoError(t, printResults(&buf, results))
	assert.Contains(t, buf.String(), "IMG_0001.jpg (dir 0)")
	assert.Contains(t, buf.String(), "error = 1.5000 deg")
}
