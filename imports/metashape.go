package imports

import (
	"encoding/csv"
	"encoding/xml"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	sph "sphaeroptica.be/markerpose/photogrammetry"
)

// metashapeColumns is the layout of a Metashape camera export:
// Label, X, Y, Z, Omega, Phi, Kappa, r11 ... r33.
const metashapeColumns = 16

func parseFields(data string) ([]float64, error) {
	fields := strings.Fields(data)
	values := make([]float64, len(fields))
	for index, field := range fields {
		val, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values[index] = val
	}
	return values, nil
}

// ReadIntrinsicMetashape reads a camera calibration in the OpenCV XML
// layout exported by Metashape.
func ReadIntrinsicMetashape(file string) (*sph.Intrinsics, error) {
	xmlFile, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer xmlFile.Close()

	byteValue, err := io.ReadAll(xmlFile)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}
	var intrinsicFile sph.IntrinsicsXML
	if err := xml.Unmarshal(byteValue, &intrinsicFile); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", file)
	}

	cameraData, err := parseFields(intrinsicFile.CameraMatrix.Data)
	if err != nil {
		return nil, errors.Wrap(err, "camera matrix")
	}
	distortionData, err := parseFields(intrinsicFile.DistortionCoefficients.Data)
	if err != nil {
		return nil, errors.Wrap(err, "distortion coefficients")
	}

	intrinsics := &sph.Intrinsics{
		Height: intrinsicFile.ImageHeight,
		Width:  intrinsicFile.ImageWidth,
		CameraMatrix: sph.MatrixInfo{
			Shape: sph.Shape{
				Row: intrinsicFile.CameraMatrix.Rows,
				Col: intrinsicFile.CameraMatrix.Cols,
			},
			Data: cameraData,
		},
		DistortionMatrix: sph.MatrixInfo{
			Shape: sph.Shape{
				Row: intrinsicFile.DistortionCoefficients.Rows,
				Col: intrinsicFile.DistortionCoefficients.Cols,
			},
			Data: distortionData,
		},
	}
	if _, err := intrinsics.CameraParam(); err != nil {
		return nil, errors.Wrap(err, file)
	}
	return intrinsics, nil
}

// ReadExtrinsicMetashape reads the camera poses of a Metashape export in
// which the marker defines the world frame, so each camera pose is the
// marker pose seen from that camera. Poses are keyed by images[label], or by
// the label itself when it has no entry.
func ReadExtrinsicMetashape(file string, images map[string]string) (map[string]sph.Extrinsics, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	csvReader := csv.NewReader(f)
	csvReader.Comma = '\t'
	csvReader.Comment = '#'
	csvReader.FieldsPerRecord = -1

	extMap := make(map[string]sph.Extrinsics)
	for line := 1; ; line++ {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s", file)
		}
		if len(record) < metashapeColumns {
			return nil, errors.Errorf("%s: record %d has %d fields, want %d", file, line, len(record), metashapeColumns)
		}

		values := make([]float64, metashapeColumns-1)
		for i := range values {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: record %d field %d", file, line, i+1)
			}
		}
		centre := mat.NewDense(3, 1, values[0:3])

		// Metashape cameras look down -z with y up.
		rotMat := mat.NewDense(3, 3, values[6:15])
		rotMat.Mul(sph.RotateXAxis(math.Pi), rotMat)

		var transMat mat.Dense
		transMat.Mul(rotMat, centre)
		transMat.Scale(-1, &transMat)

		name := record[0]
		if image, ok := images[name]; ok {
			name = image
		}
		extMap[name] = sph.Extrinsics{
			Matrix: sph.MatrixInfo{Shape: sph.Shape{Row: 3, Col: 4},
				Data: []float64{
					rotMat.At(0, 0),
					rotMat.At(0, 1),
					rotMat.At(0, 2),
					transMat.At(0, 0),
					rotMat.At(1, 0),
					rotMat.At(1, 1),
					rotMat.At(1, 2),
					transMat.At(1, 0),
					rotMat.At(2, 0),
					rotMat.At(2, 1),
					rotMat.At(2, 2),
					transMat.At(2, 0),
				},
			},
		}
	}
	return extMap, nil
}
