package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvr-ai/go-dataset/images"
	"github.com/pkg/errors"
)

// ImageFile represents an image file of a dataset directory.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Name is the file name, with extension.
	Name string
	// Base is the file name without extension, shared with the label file.
	Base string
	// Format is the image format implied by the extension.
	Format images.ImageFormat
}

// LoadDirectoryImageFiles lists all image files in a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile sorted by name.
// - error: Error if the directory cannot be read.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read image directory")
	}

	var out []ImageFile
	for _, file := range files {
		if !file.Type().IsRegular() {
			continue
		}

		format, ok := images.FormatFromPath(file.Name())
		if !ok {
			continue
		}

		out = append(out, ImageFile{
			Path:   filepath.Join(dir, file.Name()),
			Name:   file.Name(),
			Base:   TrimExt(file.Name()),
			Format: format,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})

	return out, nil
}

// BaseNames returns the set of file names without extension of all regular
// files in dir.
func BaseNames(dir string) (map[string]struct{}, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(files))
	for _, f := range files {
		out[TrimExt(filepath.Base(f))] = struct{}{}
	}
	return out, nil
}

// TrimExt strips the last extension from a file name.
func TrimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
