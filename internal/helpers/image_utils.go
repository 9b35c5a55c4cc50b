package helpers

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const (
	// JPEG quality settings
	HighQuality   = 95
	MediumQuality = 75
)

// ResizeToWidth scales img to width keeping the aspect ratio. A width of 0
// or one matching the image returns img unchanged.
func ResizeToWidth(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	if width <= 0 || bounds.Dx() == width || bounds.Empty() {
		return img
	}
	resized := imaging.Resize(img, width, 0, imaging.Linear)
	log.Debug().
		Int("src_width", bounds.Dx()).
		Int("src_height", bounds.Dy()).
		Int("width", resized.Bounds().Dx()).
		Int("height", resized.Bounds().Dy()).
		Msg("Frame resized")
	return resized
}

// DecodeImage decodes a JPEG/PNG/GIF/BMP/TIFF frame honoring EXIF orientation
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}
	return img, nil
}

// FormatFromName maps a file extension, format name or MIME type to an
// imaging format, defaulting to PNG
func FormatFromName(name string) imaging.Format {
	name = strings.ToLower(name)
	name = strings.TrimPrefix(name, "image/")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	switch name {
	case "jpg", "jpeg":
		return imaging.JPEG
	case "gif":
		return imaging.GIF
	case "bmp":
		return imaging.BMP
	case "tif", "tiff":
		return imaging.TIFF
	default:
		return imaging.PNG
	}
}

// ContentType returns the MIME type for an imaging format
func ContentType(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

// EncodeImage encodes img in the given format
func EncodeImage(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(HighQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
