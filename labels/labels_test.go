package labels

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvr-ai/go-dataset/images"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Annotation
		wantErr bool
	}{
		{
			name: "valid",
			line: "0 0.500000 0.400000 0.200000 0.100000",
			want: Annotation{Class: 0, Box: images.Box{X: 0.5, Y: 0.4, W: 0.2, H: 0.1}},
		},
		{
			name: "float class and extra spaces",
			line: "  2.0   0.1 0.2\t0.3 0.4 ",
			want: Annotation{Class: 2, Box: images.Box{X: 0.1, Y: 0.2, W: 0.3, H: 0.4}},
		},
		{name: "too few fields", line: "0 0.5 0.5 0.2", wantErr: true},
		{name: "too many fields", line: "0 0.5 0.5 0.2 0.2 0.9", wantErr: true},
		{name: "non-numeric coordinate", line: "0 0.5 abc 0.2 0.2", wantErr: true},
		{name: "non-numeric class", line: "cat 0.5 0.5 0.2 0.2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnnotation(tt.line)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMalformedLine), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePrediction(t *testing.T) {
	p, err := ParsePrediction("0 0.5 0.5 0.4 0.4 0.93")
	require.NoError(t, err)
	assert.Equal(t, Prediction{Box: images.Box{X: 0.5, Y: 0.5, W: 0.4, H: 0.4}, Confidence: 0.93}, p)

	_, err = ParsePrediction("0 0.5 0.5 0.4 0.4")
	assert.True(t, errors.Is(err, ErrMalformedLine), "confidence column is required")

	_, err = ParsePrediction("0 0.5 0.5 0.4 0.4 high")
	assert.True(t, errors.Is(err, ErrMalformedLine))
}

func TestAnnotationString(t *testing.T) {
	a := Annotation{Class: 1, Box: images.Box{X: 0.5, Y: 0.25, W: 0.125, H: 1.0 / 3.0}}
	assert.Equal(t, "1 0.500000 0.250000 0.125000 0.333333", a.String())

	p := Prediction{Box: images.Box{X: 0.5, Y: 0.5, W: 0.1, H: 0.1}, Confidence: 0.875}
	assert.Equal(t, "0 0.500000 0.500000 0.100000 0.100000 0.875000", p.String())
}

func TestReadAnnotations(t *testing.T) {
	data := "0 0.1 0.1 0.1 0.1\n\n1 0.5 0.5 0.2 0.2\n"

	anns, err := ReadAnnotations(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, 1, anns[1].Class)

	_, err = ReadAnnotations(strings.NewReader("0 0.1 0.1 0.1 0.1\n0 bad\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.True(t, errors.Is(err, ErrMalformedLine))
}

func TestSaveLoadAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.txt")
	anns := []Annotation{
		{Class: 0, Box: images.Box{X: 0.5, Y: 0.5, W: 0.25, H: 0.25}},
		{Class: 3, Box: images.Box{X: 0.125, Y: 0.75, W: 0.0625, H: 0.5}},
	}

	require.NoError(t, SaveAnnotations(path, anns))

	loaded, err := LoadAnnotations(path)
	require.NoError(t, err)
	assert.Equal(t, anns, loaded)
	assert.Equal(t, []images.Box{anns[0].Box, anns[1].Box}, Boxes(loaded))

	var buf bytes.Buffer
	require.NoError(t, WriteAnnotations(&buf, anns[:1]))
	assert.Equal(t, "0 0.500000 0.500000 0.250000 0.250000\n", buf.String())
}

func TestLoadPredictions(t *testing.T) {
	dir := t.TempDir()

	preds, found, err := LoadPredictions(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, preds)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	preds, found, err = LoadPredictions(empty)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, preds)

	valid := filepath.Join(dir, "valid.txt")
	require.NoError(t, os.WriteFile(valid, []byte("0 0.5 0.5 0.4 0.4 0.9\n0 0.1 0.1 0.1 0.1 0.3\n"), 0o644))
	preds, found, err = LoadPredictions(valid)
	require.NoError(t, err)
	assert.True(t, found)
	require.Len(t, preds, 2)
	assert.Equal(t, 0.3, preds[1].Confidence)

	broken := filepath.Join(dir, "broken.txt")
	require.NoError(t, os.WriteFile(broken, []byte("0 0.5 0.5\n"), 0o644))
	_, found, err = LoadPredictions(broken)
	assert.True(t, found)
	assert.True(t, errors.Is(err, ErrMalformedLine))
}
