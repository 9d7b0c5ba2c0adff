package pose

import "github.com/golang/geo/r3"

// ComposeProjection builds the projection matrix of a marker at rotation e
// and translation trans seen through cpara. When aux is non-nil the camera
// parameters are first multiplied by it.
func ComposeProjection(e EulerAngles, trans r3.Vector, aux *CameraParam, cpara CameraParam) ProjectionMatrix {
	rot := RotationFromEuler(e)

	eff := cpara
	if aux != nil {
		for j := 0; j < 3; j++ {
			for i := 0; i < 4; i++ {
				eff[j][i] = cpara[j][0]*aux[0][i] + cpara[j][1]*aux[1][i] + cpara[j][2]*aux[2][i]
			}
		}
	}

	var ret ProjectionMatrix
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			ret[j][i] = eff[j][0]*rot[0][i] + eff[j][1]*rot[1][i] + eff[j][2]*rot[2][i]
		}
		ret[j][3] = eff[j][0]*trans.X + eff[j][1]*trans.Y + eff[j][2]*trans.Z + eff[j][3]
	}
	return ret
}
