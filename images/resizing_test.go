package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	return img
}

// Helper functions to create test data for different formats
func getJPEGBytes(t *testing.T, width, height int) []byte {
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, getTestImage(width, height), nil)
	require.NoError(t, err)
	return buf.Bytes()
}

func getPNGBytes(t *testing.T, width, height int) []byte {
	var buf bytes.Buffer
	err := png.Encode(&buf, getTestImage(width, height))
	require.NoError(t, err)
	return buf.Bytes()
}

func TestResizeImage(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		format     ImageFormat
		wantWidth  int
		wantHeight int
	}{
		{"JPEG landscape", getJPEGBytes(t, 200, 100), FormatJPEG, 50, 25},
		{"PNG portrait", getPNGBytes(t, 100, 200), FormatPNG, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResizeImage(tt.data, tt.format, 50)
			require.NoError(t, err)

			cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, cfg.Width)
			assert.Equal(t, tt.wantHeight, cfg.Height)
		})
	}
}

func TestResizeImage_AlreadySmall(t *testing.T) {
	data := getPNGBytes(t, 40, 30)

	out, err := ResizeImage(data, FormatPNG, 64)
	require.NoError(t, err)
	assert.Equal(t, data, out, "images that fit are returned unchanged")
}

func TestResizeImage_Errors(t *testing.T) {
	_, err := ResizeImage(nil, FormatJPEG, 50)
	assert.Error(t, err, "empty data")

	_, err = ResizeImage(getJPEGBytes(t, 10, 10), FormatJPEG, 0)
	assert.Error(t, err, "zero max side")

	_, err = ResizeImage([]byte("not a jpeg"), FormatJPEG, 50)
	assert.Error(t, err, "invalid JPEG input")

	_, err = ResizeImage([]byte("BM"), FormatBMP, 50)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestResizeFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.JPG")
	dst := filepath.Join(dir, "out.jpg")
	require.NoError(t, os.WriteFile(src, getJPEGBytes(t, 300, 150), 0o644))

	require.NoError(t, ResizeFile(src, dst, 100))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)

	err = ResizeFile(filepath.Join(dir, "notes.txt"), dst, 100)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path   string
		format ImageFormat
		ok     bool
	}{
		{"a.jpg", FormatJPEG, true},
		{"b.JPEG", FormatJPEG, true},
		{"dir/c.png", FormatPNG, true},
		{"d.bmp", FormatBMP, true},
		{"e.txt", "", false},
		{"noext", "", false},
	}

	for _, tt := range tests {
		format, ok := FormatFromPath(tt.path)
		assert.Equal(t, tt.format, format, tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.ok, IsImageFile(tt.path), tt.path)
	}
}
