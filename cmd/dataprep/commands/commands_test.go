package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvr-ai/go-dataset/dataset"
	"github.com/nvr-ai/go-dataset/evaluate"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeLabels creates n ground-truth files and matching predictions. When hit is
// false every prediction misses its ground truth.
func writeLabels(t *testing.T, n int, hit bool) (gt, pred string) {
	t.Helper()
	gt = filepath.Join(t.TempDir(), "gt")
	pred = filepath.Join(t.TempDir(), "pred")
	require.NoError(t, os.MkdirAll(gt, 0o755))
	require.NoError(t, os.MkdirAll(pred, 0o755))

	p := "0 0.5 0.5 0.2 0.2 0.9\n"
	if !hit {
		p = "0 0.1 0.1 0.05 0.05 0.9\n"
	}
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("img_%02d.txt", i)
		require.NoError(t, os.WriteFile(filepath.Join(gt, name), []byte("0 0.5 0.5 0.2 0.2\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(pred, name), []byte(p), 0o644))
	}
	return gt, pred
}

func TestEvaluateAndCheck(t *testing.T) {
	gt, pred := writeLabels(t, 5, true)
	dir := t.TempDir()
	report := filepath.Join(dir, "iou.csv")
	summary := filepath.Join(dir, "summary.json")

	out, err := run(t, "evaluate",
		"--ground-truth", gt,
		"--predictions", pred,
		"--output", report,
		"--summary", summary,
		"--log-level", "error",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
	assert.FileExists(t, summary)

	records, err := evaluate.LoadReport(report)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	out, err = run(t, "check", report, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS")
}

func TestEvaluate_Fail(t *testing.T) {
	gt, pred := writeLabels(t, 4, false)
	report := filepath.Join(t.TempDir(), "iou.csv")

	out, err := run(t, "evaluate",
		"--ground-truth", gt,
		"--predictions", pred,
		"--output", report,
		"--log-level", "error",
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCheckFailed))
	assert.Equal(t, 2, ExitCode(err))
	assert.Contains(t, out, "FAIL")
	assert.FileExists(t, report)
}

func TestCheck_MissingReport(t *testing.T) {
	_, err := run(t, "check", filepath.Join(t.TempDir(), "missing.csv"), "--log-level", "error")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}

func TestYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")

	_, err := run(t, "yaml",
		"--path", path,
		"--root", "/data/graffiti",
		"--names", "graffiti,tag",
		"--log-level", "error",
	)
	require.NoError(t, err)

	cfg, err := dataset.ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/graffiti", cfg.Root)
	assert.Equal(t, "images/train", cfg.Train)
	assert.Equal(t, map[int]string{0: "graffiti", 1: "tag"}, cfg.Names)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "check", "--log-level", "loud")
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "annotations.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"filename,width,height,xmin,ymin,xmax,ymax\nimg.jpg,100,100,10,10,30,30\n"), 0o644))
	out := filepath.Join(dir, "labels")

	_, err := run(t, "convert", "--csv", csvPath, "--output", out, "--log-level", "error")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "img.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "0 0.200000 0.200000 0.200000 0.200000")
}

func TestSplit(t *testing.T) {
	src := t.TempDir()
	for _, s := range []string{"train", "test"} {
		for i := 0; i < 3; i++ {
			base := fmt.Sprintf("%s_%d", s, i)
			for _, p := range []string{
				filepath.Join(src, "images", s, base+".jpg"),
				filepath.Join(src, "labels", s, base+".txt"),
			} {
				require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
				require.NoError(t, os.WriteFile(p, []byte(base), 0o644))
			}
		}
	}
	out := filepath.Join(t.TempDir(), "split")

	_, err := run(t, "split",
		"--source", src,
		"--output", out,
		"--train", "2",
		"--test", "1",
		"--val", "1",
		"--seed", "3",
		"--log-level", "error",
	)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(out, "images", "train"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = run(t, "split", "--source", src, "--output", out, "--train", "9", "--log-level", "error")
	assert.Error(t, err)
}
