package evaluate

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Column names of the evaluation report.
const (
	ColumnImage      = "image_name"
	ColumnConfidence = "confidence_value"
	ColumnIoU        = "IoU_value"
)

// formatFloat writes the shortest representation that round-trips, so a
// zero-filled record is written as "0".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes the records as a three-column table with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnImage, ColumnConfidence, ColumnIoU}); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, r := range records {
		row := []string{r.Image, formatFloat(r.Confidence), formatFloat(r.IoU)}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write record %s", r.Image)
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush CSV")
}

// ReadCSV parses a report written by WriteCSV. Columns are located by header name,
// so extra columns and a different column order are accepted.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty report")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}

	idx := map[string]int{ColumnImage: -1, ColumnConfidence: -1, ColumnIoU: -1}
	for i, name := range header {
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	for name, i := range idx {
		if i < 0 {
			return nil, errors.Errorf("missing column %q", name)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read CSV line %d", line)
		}

		field := func(name string) (string, error) {
			i := idx[name]
			if i >= len(row) {
				return "", errors.Errorf("line %d: missing %s", line, name)
			}
			return row[i], nil
		}

		var rec Record
		if rec.Image, err = field(ColumnImage); err != nil {
			return nil, err
		}
		if rec.Confidence, err = parseField(field, ColumnConfidence); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if rec.IoU, err = parseField(field, ColumnIoU); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseField(field func(string) (string, error), name string) (float64, error) {
	s, err := field(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", name)
	}
	return v, nil
}

// WriteReport writes the records to a CSV file, creating parent directories.
func WriteReport(path string, records []Record) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create report directory")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create report")
	}

	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to close report")
	}

	log.Info().Str("path", path).Int("records", len(records)).Msg("evaluation report saved")
	return nil
}

// LoadReport reads a CSV report from disk.
func LoadReport(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open report")
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return records, nil
}

// CheckCSV loads a report and applies Aggregate to it.
//
// Arguments:
//   - path: The CSV report.
//   - threshold: The IoU a record must exceed, DefaultThreshold if unsure.
//
// Returns:
//   - bool: True when at least 80% of the images pass.
//   - error: Error if the report cannot be read or holds no records.
func CheckCSV(path string, threshold float64) (bool, error) {
	records, err := LoadReport(path)
	if err != nil {
		return false, err
	}
	return Aggregate(records, threshold)
}
