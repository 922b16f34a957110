package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatBMP  ImageFormat = "bmp"
)

// extensions maps lower-cased file extensions to their image format.
var extensions = map[string]ImageFormat{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".bmp":  FormatBMP,
}

// FormatFromPath returns the image format implied by the file extension.
// The match is case-insensitive, so "IMG_01.JPG" is a JPEG.
func FormatFromPath(path string) (ImageFormat, bool) {
	format, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return format, ok
}

// IsImageFile reports whether the file name carries a supported image extension.
func IsImageFile(name string) bool {
	_, ok := FormatFromPath(name)
	return ok
}
