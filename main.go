// Estimate the initial rotation of the square markers observed in a project
// $ ./markerpose -conf=/path/to/project.json [-intrinsics=cam.xml] [-reference=cams.txt]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"sphaeroptica.be/markerpose/imports"
	sph "sphaeroptica.be/markerpose/photogrammetry"
)

var logger = golog.NewLogger("markerpose")

func main() {
	confPtr := flag.String("conf", "", "path to the project JSON file")
	intrinsicsPtr := flag.String("intrinsics", "", "OpenCV XML calibration replacing the project intrinsics")
	referencePtr := flag.String("reference", "", "Metashape camera export to evaluate the estimates against")
	jsonPtr := flag.Bool("json", false, "print the results as JSON")
	debugPtr := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	if *debugPtr {
		logger = golog.NewDevelopmentLogger("markerpose")
	}
	if *confPtr == "" {
		logger.Fatal(errors.New("need a project file, use -conf"))
	}

	app := NewApp(logger)
	p, err := app.LoadProject(*confPtr, *intrinsicsPtr)
	if err != nil {
		err = errors.Wrap(err, fmt.Sprintf("path=%q", *confPtr))
		logger.Fatal(err)
	}

	results := app.InitialRotations(p)
	logger.Infof("estimated %d of %d markers", len(results), len(p.Markers))

	if *referencePtr != "" {
		refs, err := imports.ReadExtrinsicMetashape(*referencePtr, imports.ImageLabels(p.markerNames()))
		if err != nil {
			err = errors.Wrap(err, fmt.Sprintf("path=%q", *referencePtr))
			logger.Fatal(err)
		}
		app.Evaluate(p, results, refs)
	}

	if *jsonPtr {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		err = enc.Encode(results)
	} else {
		err = printResults(os.Stdout, results)
	}
	if err != nil {
		logger.Fatal(err)
	}
}

func printResults(w io.Writer, results []MarkerRotation) error {
	for _, res := range results {
		if _, err := fmt.Fprintf(w, "%s (dir %d)\n    R = %v\n", res.Name, res.Dir, sph.FormatMatrixPrint(res.Rotation.Dense())); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    angles = %.4f %.4f %.4f deg\n    quaternion = %.6f %.6f %.6f %.6f\n",
			res.Angles.A, res.Angles.B, res.Angles.C,
			res.Quaternion[0], res.Quaternion[1], res.Quaternion[2], res.Quaternion[3]); err != nil {
			return err
		}
		if e := res.Evaluation; e != nil {
			outlier := ""
			if e.Outlier {
				outlier = " (outlier)"
			}
			if _, err := fmt.Fprintf(w, "    error = %.4f deg%s, reprojection = %.3f px (reference %.3f px), viewpoint = %.2f %.2f\n",
				e.AngularError, outlier, e.Reprojection, e.ReferenceReprojection, e.Longitude, e.Latitude); err != nil {
				return err
			}
		}
	}
	return nil
}
