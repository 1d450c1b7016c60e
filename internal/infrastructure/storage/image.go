package storage

import (
	"bytes"
	"fmt"
	"image"
	"net/http"

	"github.com/bizdesk/backend/internal/application/shared"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedImage is returned for uploads that are not png, jpeg or gif
var ErrUnsupportedImage = shared.ErrUnsupportedImage

// ErrImageTooLarge is returned when the image header declares dimensions above the limits
var ErrImageTooLarge = shared.ErrImageTooLarge

// Limits checked against the header before the pixels are decoded.
// A small compressed file can otherwise expand to gigabytes of RGBA.
const (
	MaxSourceDimension = 8000
	MaxSourcePixels    = 40_000_000
)

// allowedImageTypes are the sniffed content types accepted for logos and product images
var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// DetectContentType sniffs the content type of an upload from its first bytes
func DetectContentType(data []byte) string {
	return http.DetectContentType(data)
}

// IsAllowedImage reports whether data is a png, jpeg or gif image
func IsAllowedImage(data []byte) bool {
	return allowedImageTypes[DetectContentType(data)]
}

// ProcessImage decodes an uploaded image, shrinks it to fit inside a
// maxDim x maxDim box keeping the aspect ratio, and re-encodes it as PNG.
// Images already inside the box are only re-encoded.
func ProcessImage(data []byte, maxDim int) ([]byte, error) {
	if !IsAllowedImage(data) {
		return nil, ErrUnsupportedImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	if cfg.Width > MaxSourceDimension || cfg.Height > MaxSourceDimension ||
		int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, ErrImageTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if maxDim > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
			img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// ImageResizer fits uploads into a fixed square box
type ImageResizer struct {
	MaxDimension int
}

// NewImageResizer creates an ImageResizer. maxDim <= 0 keeps the original size.
func NewImageResizer(maxDim int) *ImageResizer {
	return &ImageResizer{MaxDimension: maxDim}
}

// Process implements shared.ImageProcessor
func (r *ImageResizer) Process(data []byte) ([]byte, error) {
	return ProcessImage(data, r.MaxDimension)
}

var _ shared.ImageProcessor = (*ImageResizer)(nil)
