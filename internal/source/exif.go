package source

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

var pictureExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsPicture reports whether path has a decodable picture extension.
func IsPicture(path string) bool {
	return pictureExts[strings.ToLower(filepath.Ext(path))]
}

// orientationDegrees maps an EXIF orientation tag to a clockwise rotation.
// Mirrored variants use the rotation of their unmirrored counterpart.
func orientationDegrees(tag int) int {
	switch tag {
	case 3, 4:
		return 180
	case 5, 6:
		return 90
	case 7, 8:
		return 270
	}
	return 0
}

// pictureMeta holds what the pickers read from a file's EXIF block.
type pictureMeta struct {
	Orientation int
	Taken       time.Time
}

// readMeta reads EXIF orientation and capture time. Files without EXIF get
// orientation 0 and their modification time.
func readMeta(path string) pictureMeta {
	var meta pictureMeta
	if fi, err := os.Stat(path); err == nil {
		meta.Taken = fi.ModTime()
	}

	f, err := os.Open(path)
	if err != nil {
		return meta
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return meta
	}
	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil {
			meta.Orientation = orientationDegrees(v)
		}
	}
	if t, err := x.DateTime(); err == nil {
		meta.Taken = t
	}
	return meta
}
