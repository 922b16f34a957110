// Package convert - Conversion of CSV bounding-box annotations to YOLO label files.
package convert

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvr-ai/go-dataset/images"
	"github.com/nvr-ai/go-dataset/labels"
	"github.com/nvr-ai/go-dataset/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CSV column names.
const (
	ColumnFilename = "filename"
	ColumnWidth    = "width"
	ColumnHeight   = "height"
	ColumnClass    = "class"
	ColumnXMin     = "xmin"
	ColumnYMin     = "ymin"
	ColumnXMax     = "xmax"
	ColumnYMax     = "ymax"
)

var requiredColumns = []string{
	ColumnFilename, ColumnWidth, ColumnHeight,
	ColumnXMin, ColumnYMin, ColumnXMax, ColumnYMax,
}

// Options configures a conversion.
type Options struct {
	// Classes maps class names to ids by position. When empty every box gets class 0.
	Classes []string `json:"classes" yaml:"classes"`
}

// Result describes a finished conversion.
type Result struct {
	OutputDir string
	Images    int
	Boxes     int
}

// Row is one CSV annotation: a pixel box on an image of known size.
type Row struct {
	Filename string
	Width    float64
	Height   float64
	Class    string
	Rect     images.Rect
}

// Group collects the rows of one image in CSV order.
type Group struct {
	Filename string
	Rows     []Row
}

// ReadRows parses an annotation CSV and groups its rows by filename. Groups are
// returned in order of first appearance.
func ReadRows(r io.Reader) ([]Group, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty annotation CSV")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, errors.Errorf("missing column %q", name)
		}
	}
	classIdx, hasClass := idx[ColumnClass]

	var groups []Group
	byName := make(map[string]int)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV line %d", line)
		}

		var nums [6]float64
		for i, name := range []string{ColumnWidth, ColumnHeight, ColumnXMin, ColumnYMin, ColumnXMax, ColumnYMax} {
			nums[i], err = strconv.ParseFloat(rec[idx[name]], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: invalid %s", line, name)
			}
		}

		row := Row{
			Filename: rec[idx[ColumnFilename]],
			Width:    nums[0],
			Height:   nums[1],
			Rect:     images.Rect{X1: nums[2], Y1: nums[3], X2: nums[4], Y2: nums[5]},
		}
		if hasClass {
			row.Class = rec[classIdx]
		}

		g, ok := byName[row.Filename]
		if !ok {
			g = len(groups)
			byName[row.Filename] = g
			groups = append(groups, Group{Filename: row.Filename})
		}
		groups[g].Rows = append(groups[g].Rows, row)
	}

	return groups, nil
}

// Annotations converts the rows of one image to normalized YOLO annotations.
//
// The image size is taken from the first row of the group, as every row of an
// image carries the same dimensions.
//
// Arguments:
//   - g: The rows of one image.
//   - classes: Class names indexed by id, or nil for a single-class dataset.
//
// Returns:
//   - []labels.Annotation: One annotation per row.
//   - error: Error if the image size is not positive or a class name is unknown.
func Annotations(g Group, classes map[string]int) ([]labels.Annotation, error) {
	if len(g.Rows) == 0 {
		return nil, nil
	}

	width, height := g.Rows[0].Width, g.Rows[0].Height
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("image %s: invalid size %vx%v", g.Filename, width, height)
	}

	anns := make([]labels.Annotation, 0, len(g.Rows))
	for _, row := range g.Rows {
		class := 0
		if classes != nil {
			id, ok := classes[row.Class]
			if !ok {
				return nil, errors.Errorf("image %s: unknown class %q", g.Filename, row.Class)
			}
			class = id
		}

		box := row.Rect.Normalize(width, height)
		if !box.Valid() {
			log.Warn().
				Str("image", g.Filename).
				Interface("rect", row.Rect).
				Msg("degenerate bounding box")
		}

		anns = append(anns, labels.Annotation{Class: class, Box: box})
	}

	return anns, nil
}

// ConvertCSV converts a CSV annotation file into one YOLO label file per image.
//
// Arguments:
//   - csvPath: The annotation CSV with columns filename, width, height, xmin,
//     ymin, xmax, ymax and optionally class.
//   - outputDir: The directory receiving "<image base name>.txt" files. Created if missing.
//   - opts: Class mapping.
//
// Returns:
//   - Result: The number of label files and boxes written.
//   - error: Error if the CSV cannot be parsed or a label file cannot be written.
func ConvertCSV(csvPath, outputDir string, opts Options) (Result, error) {
	res := Result{OutputDir: outputDir}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return res, errors.Wrap(err, "failed to create output directory")
	}

	f, err := os.Open(csvPath)
	if err != nil {
		return res, errors.Wrap(err, "failed to open annotation CSV")
	}
	defer f.Close()

	groups, err := ReadRows(f)
	if err != nil {
		return res, errors.Wrapf(err, "failed to parse %s", csvPath)
	}

	var classes map[string]int
	if len(opts.Classes) > 0 {
		classes = make(map[string]int, len(opts.Classes))
		for i, name := range opts.Classes {
			classes[name] = i
		}
	}

	for _, g := range groups {
		anns, err := Annotations(g, classes)
		if err != nil {
			return res, err
		}

		path := filepath.Join(outputDir, util.TrimExt(g.Filename)+labels.Extension)
		if err := labels.SaveAnnotations(path, anns); err != nil {
			return res, err
		}

		res.Images++
		res.Boxes += len(anns)
	}

	log.Info().
		Str("csv", csvPath).
		Str("output", outputDir).
		Int("images", res.Images).
		Int("boxes", res.Boxes).
		Msg("YOLO conversion complete")

	return res, nil
}
