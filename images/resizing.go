package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned when an image cannot be decoded and re-encoded
// by the resize helpers. Callers usually fall back to a plain copy.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// jpegQuality is the encoder quality used when re-encoding resized JPEGs.
const jpegQuality = 95

// ResizeImage downscales encoded image bytes so that the longest side is at most
// maxSide pixels, preserving the aspect ratio.
//
// Images that already fit are returned unchanged. Normalized YOLO labels stay
// valid under any rescale, so the matching label file needs no update.
//
// Arguments:
//   - data: The encoded image.
//   - format: The encoding of data. Only JPEG and PNG are supported.
//   - maxSide: The maximum width and height in pixels.
//
// Returns:
//   - []byte: The re-encoded image, in the same format.
//   - error: ErrUnsupportedFormat, or a decode/encode error.
func ResizeImage(data []byte, format ImageFormat, maxSide uint) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image data")
	}
	if maxSide == 0 {
		return nil, errors.New("invalid max side: 0")
	}

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s image", format)
	}

	bounds := img.Bounds()
	if uint(bounds.Dx()) <= maxSide && uint(bounds.Dy()) <= maxSide {
		return data, nil
	}

	resized := resize.Thumbnail(maxSide, maxSide, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality})
	case FormatPNG:
		err = png.Encode(&buf, resized)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode resized %s image", format)
	}

	return buf.Bytes(), nil
}

// ResizeFile reads src, downscales it with ResizeImage and writes the result to dst.
func ResizeFile(src, dst string, maxSide uint) error {
	format, ok := FormatFromPath(src)
	if !ok {
		return errors.Wrapf(ErrUnsupportedFormat, "file %s", src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrap(err, "failed to read image file")
	}

	out, err := ResizeImage(data, format, maxSide)
	if err != nil {
		return err
	}

	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return errors.Wrap(err, "failed to write resized image")
	}

	return nil
}
