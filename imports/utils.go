package imports

import (
	"path/filepath"
	"strings"
)

var ACCEPTABLE_IMAGES_EXT = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ImageLabels maps the label Metashape gives each image, its base name
// without extension, to the image name. Names that are not images are
// ignored.
func ImageLabels(names []string) map[string]string {
	toRet := make(map[string]string)
	for _, name := range names {
		ext := filepath.Ext(name)
		if !ACCEPTABLE_IMAGES_EXT[strings.ToLower(ext)] {
			continue
		}
		toRet[strings.TrimSuffix(filepath.Base(name), ext)] = name
	}
	return toRet
}
