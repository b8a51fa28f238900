// Package assets loads and checks raster images (logos, signatures, stamps)
// before they are embedded into a document.
package assets

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/zlovtnik/gletter/internal/render/geometry"
)

// Limits for accepted images.
const (
	MaxBytes     = 10 << 20
	MaxDimension = 10000
)

var (
	ErrEmpty       = errors.New("image data is empty")
	ErrTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupported = errors.New("unsupported image format")
	ErrNoImage     = errors.New("no image reference")
)

// Image is a decoded-and-verified raster image. Data is always PNG, JPEG or
// GIF, the formats both encoders can embed directly.
type Image struct {
	Data   []byte
	MIME   string
	Format string
	Width  int
	Height int
}

// Decode verifies that data is a readable image. BMP, TIFF and WebP input is
// converted to PNG.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if len(data) > MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrTooLarge, cfg.Width, cfg.Height)
	}

	switch format {
	case "png", "jpeg", "gif":
		// Full decode catches truncated bodies.
		if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return &Image{Data: data, MIME: "image/" + format, Format: format, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to convert %s image: %w", format, err)
	}
	return &Image{Data: buf.Bytes(), MIME: "image/png", Format: "png", Width: cfg.Width, Height: cfg.Height}, nil
}

// FromBase64 decodes an inline image, either bare base64 or a data URI.
func FromBase64(s string) (*Image, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmpty
	}
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, fmt.Errorf("%w: malformed data URI", ErrUnsupported)
		}
		s = s[idx+1:]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return nil, fmt.Errorf("%w: invalid base64: %v", ErrUnsupported, err)
		}
	}
	return Decode(data)
}

// DataURI returns the image as a base64 data URI.
func (img *Image) DataURI() string {
	return "data:" + img.MIME + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Ext returns the file extension used when the image is stored in a package.
func (img *Image) Ext() string {
	if img.Format == "jpeg" {
		return "jpg"
	}
	return img.Format
}

// Fit scales the image into a box without changing its aspect ratio.
func (img *Image) Fit(maxWidth, maxHeight geometry.Length) (geometry.Length, geometry.Length) {
	if img.Width <= 0 || img.Height <= 0 || maxWidth <= 0 || maxHeight <= 0 {
		return maxWidth, maxHeight
	}
	ratio := float64(img.Width) / float64(img.Height)
	w, h := maxWidth, maxWidth.Scale(1/ratio)
	if h > maxHeight {
		w, h = maxHeight.Scale(ratio), maxHeight
	}
	return w, h
}
