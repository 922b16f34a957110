// Package evaluate - Confidence-driven IoU evaluation of detector predictions.
package evaluate

import (
	"github.com/nvr-ai/go-dataset/images"
	"github.com/nvr-ai/go-dataset/labels"
	"github.com/pkg/errors"
)

const (
	// DefaultThreshold is the IoU a record must exceed to count as a hit.
	DefaultThreshold = 0.9
	// PassFraction is the share of hits required for a dataset to pass.
	PassFraction = 0.8
)

// ErrNoRecords is returned when a pass rate is requested for an empty record set.
var ErrNoRecords = errors.New("no evaluation records")

// Record is the evaluation result for one image.
type Record struct {
	// Image is the image name, i.e. the label file name without extension.
	Image string `json:"image_name"`
	// Confidence is the highest prediction confidence for the image, or 0.
	Confidence float64 `json:"confidence_value"`
	// IoU is the best ground-truth overlap of the highest-confidence prediction, or 0.
	IoU float64 `json:"IoU_value"`
}

// Sentinel reports whether the record is zero-filled, i.e. no prediction was selected.
func (r Record) Sentinel() bool {
	return r.Confidence == 0 && r.IoU == 0
}

// BestMatch returns the highest IoU between box and any of the ground-truth boxes.
// It returns 0 when groundTruths is empty.
func BestMatch(box images.Box, groundTruths []images.Box) float64 {
	best := 0.0
	for _, gt := range groundTruths {
		if iou := images.CalculateIoU(box, gt); iou > best {
			best = iou
		}
	}
	return best
}

// EvaluateImage selects the highest-confidence prediction of an image and reports
// it together with its best ground-truth overlap.
//
// Selection is driven by confidence, not overlap: a confident but misplaced box
// is reported with its poor IoU even when a better placed, less confident box
// exists. The running maximum starts at 0 and only a strictly greater confidence
// replaces it, so ties keep the first prediction and zero-confidence predictions
// are never selected.
//
// Arguments:
//   - groundTruths: The ground-truth boxes of the image, center form.
//   - predictions: The predictions of the image, in file order. May be empty.
//
// Returns:
//   - confidence: The highest confidence, or 0 when there are no predictions.
//   - iou: The best ground-truth IoU of that prediction, or 0.
//
// Example Usage:
// ```go
//
//	gt := []images.Box{{X: 0.5, Y: 0.5, W: 0.4, H: 0.4}}
//	preds := []labels.Prediction{
//		{Box: images.Box{X: 0.1, Y: 0.1, W: 0.1, H: 0.1}, Confidence: 0.95},
//		{Box: images.Box{X: 0.5, Y: 0.5, W: 0.4, H: 0.4}, Confidence: 0.5},
//	}
//
//	conf, iou := EvaluateImage(gt, preds) // 0.95, 0
//
// ```
func EvaluateImage(groundTruths []images.Box, predictions []labels.Prediction) (confidence, iou float64) {
	for _, p := range predictions {
		best := BestMatch(p.Box, groundTruths)
		if p.Confidence > confidence {
			confidence = p.Confidence
			iou = best
		}
	}
	return confidence, iou
}

// PassRate returns the fraction of records whose IoU is strictly greater than threshold.
func PassRate(records []Record, threshold float64) (float64, error) {
	if len(records) == 0 {
		return 0, ErrNoRecords
	}

	passed := 0
	for _, r := range records {
		if r.IoU > threshold {
			passed++
		}
	}
	return float64(passed) / float64(len(records)), nil
}

// Aggregate reports whether at least PassFraction of the records have an IoU
// strictly greater than threshold.
//
// Arguments:
//   - records: The per-image records. Order does not matter.
//   - threshold: The IoU a record must exceed.
//
// Returns:
//   - bool: The pass verdict.
//   - error: ErrNoRecords when records is empty.
func Aggregate(records []Record, threshold float64) (bool, error) {
	rate, err := PassRate(records, threshold)
	if err != nil {
		return false, err
	}
	return rate >= PassFraction, nil
}
