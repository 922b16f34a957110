package evaluate

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/nvr-ai/go-dataset/labels"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Options configures a directory evaluation.
type Options struct {
	// GroundTruthDir holds one YOLO label file per image.
	GroundTruthDir string `json:"groundTruthDir" yaml:"groundTruthDir"`
	// PredictDir holds prediction files named like the ground-truth files.
	PredictDir string `json:"predictDir" yaml:"predictDir"`
	// Workers bounds the number of images evaluated at once. Zero means runtime.NumCPU().
	Workers int `json:"workers" yaml:"workers"`
}

// ProcessLabels evaluates every image of a ground-truth directory against the
// matching prediction file.
//
// An image whose prediction file is absent, empty or malformed yields a
// zero-filled record. An image whose ground truth cannot be read is skipped with
// a warning. Neither case aborts the evaluation of the other images.
//
// Arguments:
//   - ctx: Cancels the evaluation.
//   - opts: The directories to read and the worker limit.
//
// Returns:
//   - []Record: One record per evaluated image, sorted by image name.
//   - error: Error if the ground-truth directory cannot be listed or ctx is cancelled.
func ProcessLabels(ctx context.Context, opts Options) ([]Record, error) {
	entries, err := os.ReadDir(opts.GroundTruthDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ground truth directory")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), labels.Extension) {
			continue
		}
		names = append(names, entry.Name())
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*Record, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			record, ok := evaluateFile(opts, name)
			if ok {
				results[i] = &record
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Image < out[j].Image
	})

	log.Debug().
		Int("images", len(names)).
		Int("records", len(out)).
		Msg("evaluation complete")

	return out, nil
}

// evaluateFile builds the record of a single image. ok is false when the image
// has to be skipped.
func evaluateFile(opts Options, name string) (record Record, ok bool) {
	image := strings.TrimSuffix(name, labels.Extension)
	record.Image = image

	gtPath := filepath.Join(opts.GroundTruthDir, name)
	anns, err := labels.LoadAnnotations(gtPath)
	if err != nil {
		log.Warn().Err(err).Str("image", image).Str("path", gtPath).Msg("skipping image with unreadable ground truth")
		return record, false
	}
	if len(anns) == 0 {
		log.Warn().Str("image", image).Str("path", gtPath).Msg("ground truth has no boxes")
	}

	predPath := filepath.Join(opts.PredictDir, name)
	preds, found, err := labels.LoadPredictions(predPath)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("image", image).Str("path", predPath).Msg("malformed prediction file, recording zero")
		return record, true
	case !found:
		log.Debug().Str("image", image).Msg("no prediction file")
		return record, true
	}

	record.Confidence, record.IoU = EvaluateImage(labels.Boxes(anns), preds)
	return record, true
}
