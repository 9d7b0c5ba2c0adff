package main

import (
	"gonum.org/v1/gonum/mat"

	sph "sphaeroptica.be/markerpose/photogrammetry"
	"sphaeroptica.be/markerpose/pose"
)

type project struct {
	Intrinsics sph.Intrinsics
	// MarkerSize is the side of the square markers, in the unit of the
	// reference translations. Zero disables reprojection.
	MarkerSize float64
	// MaxAngularError, in degrees, flags estimates further than this from
	// their reference pose. Zero disables the check.
	MaxAngularError float64
	Markers         map[string]markerJSON

	camera camera
}

type markerJSON struct {
	Dir      int          `json:"dir"`
	Vertices [][2]float64 `json:"vertices"`
	Lines    [][3]float64 `json:"lines,omitempty"`
}

// camera is the calibration of a project, decoded once.
type camera struct {
	cpara      pose.CameraParam
	intrinsics *mat.Dense
	dist       sph.Distortion
}

type MarkerRotation struct {
	Name       string              `json:"name"`
	Dir        int                 `json:"dir"`
	Rotation   pose.RotationMatrix `json:"rotation"`
	Angles     pose.EulerAngles    `json:"angles"` // degrees
	Quaternion [4]float64          `json:"quaternion"`
	Evaluation *Evaluation         `json:"evaluation,omitempty"`
}

// Evaluation compares an estimate with the reference pose of its camera.
type Evaluation struct {
	AngularError          float64   `json:"angularError"` // degrees
	Outlier               bool      `json:"outlier,omitempty"`
	Reprojection          float64   `json:"reprojection,omitempty"`
	ReferenceReprojection float64   `json:"referenceReprojection,omitempty"`
	Corners               []sph.Pos `json:"corners,omitempty"`
	Longitude             float64   `json:"longitude"`
	Latitude              float64   `json:"latitude"`
}
