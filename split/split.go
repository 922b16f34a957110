// Package split - Random train/test/val split of a YOLO dataset.
package split

import (
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/nvr-ai/go-dataset/images"
	"github.com/nvr-ai/go-dataset/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Split names.
const (
	Train = "train"
	Test  = "test"
	Val   = "val"
)

// ErrNotEnoughImages is returned when a source split holds fewer matched images
// than requested.
var ErrNotEnoughImages = errors.New("not enough images with labels")

// labelExtensions are tried in order when looking for an image's label file.
var labelExtensions = []string{".txt", ".xml", ".json"}

// Options configures a dataset split.
//
// The source directory must contain images/{train,test} and labels/{train,test}.
// The training set is sampled from the train folders; the test and validation sets
// are both sampled, without overlap, from the test folders.
type Options struct {
	SourceDir string `json:"sourceDir" yaml:"sourceDir"`
	OutputDir string `json:"outputDir" yaml:"outputDir"`
	TrainSize int    `json:"trainSize" yaml:"trainSize"`
	TestSize  int    `json:"testSize"  yaml:"testSize"`
	ValSize   int    `json:"valSize"   yaml:"valSize"`
	// Seed makes the shuffle reproducible. Nil seeds from the clock.
	Seed *int64 `json:"seed" yaml:"seed"`
	// ResizeMaxSide downscales copied JPEG/PNG images so neither side exceeds it. Zero copies as is.
	ResizeMaxSide uint `json:"resizeMaxSide" yaml:"resizeMaxSide"`
}

// DefaultOptions returns the sizes used for the graffiti dataset.
func DefaultOptions() Options {
	return Options{
		SourceDir: "data/converted",
		OutputDir: "data/split_dataset",
		TrainSize: 400,
		TestSize:  40,
		ValSize:   40,
	}
}

// Result lists the image file names placed in each split.
type Result struct {
	Train []string `json:"train"`
	Test  []string `json:"test"`
	Val   []string `json:"val"`
}

// MatchedImages returns the images of imgDir that have a label file with the same
// base name in labelDir, sorted by name.
func MatchedImages(imgDir, labelDir string) ([]util.ImageFile, error) {
	imgs, err := util.LoadDirectoryImageFiles(imgDir)
	if err != nil {
		return nil, err
	}

	bases, err := util.BaseNames(labelDir)
	if err != nil {
		return nil, err
	}

	matched := imgs[:0]
	for _, img := range imgs {
		if _, ok := bases[img.Base]; ok {
			matched = append(matched, img)
		}
	}
	return matched, nil
}

// Split shuffles the matched images of the source dataset and copies the sampled
// train, test and val sets, images and labels, into the output directory.
//
// Arguments:
//   - opts: Source and output layout, set sizes, seed and optional resize.
//
// Returns:
//   - Result: The sampled image file names per split.
//   - error: ErrNotEnoughImages, or an I/O error.
func Split(opts Options) (Result, error) {
	var res Result

	if opts.TrainSize < 0 || opts.TestSize < 0 || opts.ValSize < 0 {
		return res, errors.New("split sizes must not be negative")
	}

	trainImagesDir := filepath.Join(opts.SourceDir, "images", Train)
	testImagesDir := filepath.Join(opts.SourceDir, "images", Test)
	trainLabelsDir := filepath.Join(opts.SourceDir, "labels", Train)
	testLabelsDir := filepath.Join(opts.SourceDir, "labels", Test)

	for _, split := range []string{Train, Test, Val} {
		for _, kind := range []string{"images", "labels"} {
			if err := os.MkdirAll(filepath.Join(opts.OutputDir, kind, split), 0o755); err != nil {
				return res, errors.Wrap(err, "failed to create output directory")
			}
		}
	}

	trainPool, err := MatchedImages(trainImagesDir, trainLabelsDir)
	if err != nil {
		return res, err
	}
	testPool, err := MatchedImages(testImagesDir, testLabelsDir)
	if err != nil {
		return res, err
	}

	log.Info().Int("train", len(trainPool)).Int("test", len(testPool)).Msg("found images with matching labels")

	if len(trainPool) < opts.TrainSize {
		return res, errors.Wrapf(ErrNotEnoughImages, "training: requested %d, available %d",
			opts.TrainSize, len(trainPool))
	}
	if len(testPool) < opts.TestSize+opts.ValSize {
		return res, errors.Wrapf(ErrNotEnoughImages, "test: requested %d, available %d",
			opts.TestSize+opts.ValSize, len(testPool))
	}

	seed := time.Now().UnixNano()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(trainPool), func(i, j int) { trainPool[i], trainPool[j] = trainPool[j], trainPool[i] })
	rng.Shuffle(len(testPool), func(i, j int) { testPool[i], testPool[j] = testPool[j], testPool[i] })

	sets := []struct {
		name     string
		files    []util.ImageFile
		labelDir string
		out      *[]string
	}{
		{Train, trainPool[:opts.TrainSize], trainLabelsDir, &res.Train},
		{Test, testPool[:opts.TestSize], testLabelsDir, &res.Test},
		{Val, testPool[opts.TestSize : opts.TestSize+opts.ValSize], testLabelsDir, &res.Val},
	}

	for _, set := range sets {
		*set.out = make([]string, 0, len(set.files))
		for _, img := range set.files {
			*set.out = append(*set.out, img.Name)
			if err := copyPair(img, set.labelDir, opts.OutputDir, set.name, opts.ResizeMaxSide); err != nil {
				return res, errors.Wrapf(err, "failed to copy %s", img.Name)
			}
		}
	}

	log.Info().
		Int("train", len(res.Train)).
		Int("test", len(res.Test)).
		Int("val", len(res.Val)).
		Str("output", opts.OutputDir).
		Msg("dataset split complete")

	return res, nil
}

// findLabel returns the first existing label file for base in labelDir.
func findLabel(labelDir, base string) (string, bool) {
	for _, ext := range labelExtensions {
		name := base + ext
		if util.Exists(filepath.Join(labelDir, name)) {
			return name, true
		}
	}
	return "", false
}

// copyPair copies an image and its label into the output split. Images without a
// label are skipped with a warning.
func copyPair(img util.ImageFile, labelDir, outputDir, split string, maxSide uint) error {
	label, ok := findLabel(labelDir, img.Base)
	if !ok {
		log.Warn().Str("image", img.Name).Msg("no annotation file found, skipping")
		return nil
	}

	imgDst := filepath.Join(outputDir, "images", split, img.Name)
	if err := copyImage(img, imgDst, maxSide); err != nil {
		return err
	}

	return util.CopyFile(filepath.Join(labelDir, label), filepath.Join(outputDir, "labels", split, label))
}

func copyImage(img util.ImageFile, dst string, maxSide uint) error {
	if maxSide == 0 {
		return util.CopyFile(img.Path, dst)
	}

	err := images.ResizeFile(img.Path, dst, maxSide)
	if errors.Is(err, images.ErrUnsupportedFormat) {
		log.Debug().Str("image", img.Name).Msg("format cannot be resized, copying as is")
		return util.CopyFile(img.Path, dst)
	}
	return err
}
