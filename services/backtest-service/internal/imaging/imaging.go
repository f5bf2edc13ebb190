package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrInvalidEncoding is returned when an embedded image is not valid base64
	ErrInvalidEncoding = errors.New("image is not valid base64")
	// ErrNotImage is returned when decoded bytes are not a recognised image
	ErrNotImage = errors.New("data is not an image")
)

// Image is a decoded trade screenshot
type Image struct {
	Data        []byte
	ContentType string
}

// Decode turns an embedded image string into bytes. Both bare base64 and
// data URLs ("data:image/png;base64,...") are accepted.
func Decode(s string) (*Image, error) {
	payload := strings.TrimSpace(s)
	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 || !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, ErrInvalidEncoding
		}
		payload = payload[comma+1:]
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, ErrInvalidEncoding
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrNotImage
	}

	return &Image{Data: data, ContentType: contentType}, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)

	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	if data, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.URLEncoding.DecodeString(s)
}

// Thumbnail scales img to fit within maxWidth x maxHeight, preserving the
// aspect ratio. Images already within bounds are returned unchanged.
// JPEG sources stay JPEG; everything else is encoded as PNG.
func Thumbnail(img *Image, maxWidth, maxHeight int) (*Image, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid thumbnail size %dx%d", maxWidth, maxHeight)
	}

	src, format, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() <= maxWidth && bounds.Dy() <= maxHeight {
		return img, nil
	}

	width, height := calculateDimensions(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	// Create the thumbnail image
	thumb := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(thumb, thumb.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode JPEG thumbnail: %w", err)
		}
		return &Image{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
	default:
		if err := png.Encode(&buf, thumb); err != nil {
			return nil, fmt.Errorf("failed to encode PNG thumbnail: %w", err)
		}
		return &Image{Data: buf.Bytes(), ContentType: "image/png"}, nil
	}
}

// calculateDimensions calculates thumbnail dimensions while maintaining aspect ratio
func calculateDimensions(origWidth, origHeight, maxWidth, maxHeight int) (int, int) {
	if origWidth <= 0 || origHeight <= 0 {
		return maxWidth, maxHeight
	}

	ratio := float64(origWidth) / float64(origHeight)

	width := maxWidth
	height := int(float64(width) / ratio)

	// If height is too large, recalculate width based on maxHeight
	if height > maxHeight {
		height = maxHeight
		width = int(float64(height) * ratio)
	}

	return max(width, 1), max(height, 1)
}
