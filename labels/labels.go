// Package labels - Reading and writing YOLO label text files.
//
// A label file holds one object per line:
//
//	<class> <x_center> <y_center> <width> <height>
//
// Prediction files written by the detector append the confidence score:
//
//	<class> <x_center> <y_center> <width> <height> <confidence>
package labels

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-dataset/images"
	"github.com/pkg/errors"
)

// Extension is the file extension of YOLO label files.
const Extension = ".txt"

// ErrMalformedLine is returned when a label line has the wrong number of fields or
// a field that does not parse as a number.
var ErrMalformedLine = errors.New("malformed label line")

// Annotation is one labeled object instance.
type Annotation struct {
	// Class is the zero-based class index.
	Class int
	// Box is the normalized center-form bounding box.
	Box images.Box
}

// Prediction is one detector output for an image.
type Prediction struct {
	// Class is the predicted class index.
	Class int
	// Box is the normalized center-form bounding box.
	Box images.Box
	// Confidence is the detector score in [0, 1].
	Confidence float64
}

// String formats the annotation as a label line, with 6 decimals per coordinate.
func (a Annotation) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", a.Class, a.Box.X, a.Box.Y, a.Box.W, a.Box.H)
}

// String formats the prediction as a prediction line.
func (p Prediction) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f %.6f",
		p.Class, p.Box.X, p.Box.Y, p.Box.W, p.Box.H, p.Confidence)
}

// ParseAnnotation parses a single "<class> <x> <y> <w> <h>" line.
func ParseAnnotation(line string) (Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return Annotation{}, errors.Wrapf(ErrMalformedLine, "want 5 fields, got %d", len(fields))
	}

	class, box, err := parseClassBox(fields)
	if err != nil {
		return Annotation{}, err
	}

	return Annotation{Class: class, Box: box}, nil
}

// ParsePrediction parses a single "<class> <x> <y> <w> <h> <confidence>" line.
func ParsePrediction(line string) (Prediction, error) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return Prediction{}, errors.Wrapf(ErrMalformedLine, "want 6 fields, got %d", len(fields))
	}

	class, box, err := parseClassBox(fields)
	if err != nil {
		return Prediction{}, err
	}

	confidence, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return Prediction{}, errors.Wrapf(ErrMalformedLine, "confidence %q", fields[5])
	}

	return Prediction{Class: class, Box: box, Confidence: confidence}, nil
}

func parseClassBox(fields []string) (int, images.Box, error) {
	class, err := strconv.Atoi(fields[0])
	if err != nil {
		// Some exporters write the class id as a float ("0.0").
		f, ferr := strconv.ParseFloat(fields[0], 64)
		if ferr != nil {
			return 0, images.Box{}, errors.Wrapf(ErrMalformedLine, "class %q", fields[0])
		}
		class = int(f)
	}

	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return 0, images.Box{}, errors.Wrapf(ErrMalformedLine, "coordinate %q", fields[i+1])
		}
	}

	return class, images.Box{X: v[0], Y: v[1], W: v[2], H: v[3]}, nil
}

// scanLines calls fn for every non-blank line of r, with its 1-based line number.
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
	}
	return errors.Wrap(scanner.Err(), "failed to scan label data")
}

// ReadAnnotations parses every annotation line of r.
func ReadAnnotations(r io.Reader) ([]Annotation, error) {
	var out []Annotation
	err := scanLines(r, func(_ int, line string) error {
		a, err := ParseAnnotation(line)
		if err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadPredictions parses every prediction line of r.
func ReadPredictions(r io.Reader) ([]Prediction, error) {
	var out []Prediction
	err := scanLines(r, func(_ int, line string) error {
		p, err := ParsePrediction(line)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadAnnotations reads a ground-truth label file.
//
// Arguments:
//   - path: The label file path.
//
// Returns:
//   - []Annotation: The annotations in file order.
//   - error: Error if the file cannot be read or a line is malformed.
func LoadAnnotations(path string) ([]Annotation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open label file")
	}
	defer f.Close()

	anns, err := ReadAnnotations(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return anns, nil
}

// LoadPredictions reads a prediction file.
//
// An absent file is not an error: found is false and the slice is nil, which the
// evaluator treats the same as an empty file.
//
// Arguments:
//   - path: The prediction file path.
//
// Returns:
//   - []Prediction: The predictions in file order.
//   - bool: Whether the file exists.
//   - error: Error if the file exists but cannot be read or parsed.
func LoadPredictions(path string) ([]Prediction, bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to open prediction file")
	}
	defer f.Close()

	preds, err := ReadPredictions(f)
	if err != nil {
		return nil, true, errors.Wrapf(err, "failed to parse %s", path)
	}
	return preds, true, nil
}

// WriteAnnotations writes one line per annotation to w.
func WriteAnnotations(w io.Writer, anns []Annotation) error {
	bw := bufio.NewWriter(w)
	for _, a := range anns {
		if _, err := fmt.Fprintln(bw, a.String()); err != nil {
			return errors.Wrap(err, "failed to write annotation")
		}
	}
	return errors.Wrap(bw.Flush(), "failed to flush annotations")
}

// SaveAnnotations writes a label file, replacing any existing file at path.
func SaveAnnotations(path string, anns []Annotation) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create label file")
	}

	if err := WriteAnnotations(f, anns); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "failed to close label file")
}

// Boxes returns the boxes of the annotations, in order.
func Boxes(anns []Annotation) []images.Box {
	boxes := make([]images.Box, len(anns))
	for i, a := range anns {
		boxes[i] = a.Box
	}
	return boxes
}
