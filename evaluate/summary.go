package evaluate

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Summary captures dataset-level evaluation statistics.
type Summary struct {
	Timestamp      time.Time `json:"timestamp"`
	Threshold      float64   `json:"threshold"`
	Images         int       `json:"images"`
	Sentinels      int       `json:"sentinels"`
	Passed         int       `json:"passed"`
	PassRate       float64   `json:"pass_rate"`
	MeanIoU        float64   `json:"mean_iou"`
	MeanConfidence float64   `json:"mean_confidence"`
	Pass           bool      `json:"pass"`
}

// Summarize computes the summary of a record set. An empty record set yields a
// zero summary that does not pass.
func Summarize(records []Record, threshold float64) Summary {
	s := Summary{
		Timestamp: time.Now().UTC(),
		Threshold: threshold,
		Images:    len(records),
	}
	if len(records) == 0 {
		return s
	}

	var sumIoU, sumConf float64
	for _, r := range records {
		if r.Sentinel() {
			s.Sentinels++
		}
		if r.IoU > threshold {
			s.Passed++
		}
		sumIoU += r.IoU
		sumConf += r.Confidence
	}

	n := float64(len(records))
	s.PassRate = float64(s.Passed) / n
	s.MeanIoU = sumIoU / n
	s.MeanConfidence = sumConf / n
	s.Pass = s.PassRate >= PassFraction

	return s
}

// SaveSummary writes the summary as indented JSON.
func SaveSummary(path string, s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal summary")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write summary file")
	}

	return nil
}
