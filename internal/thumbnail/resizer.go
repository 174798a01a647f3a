package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth    = 320
	DefaultMaxHeight   = 320
	DefaultJPEGQuality = 75

	// ContentType is the MIME type of every encoded thumbnail.
	ContentType = "image/jpeg"
)

// ErrDecode is wrapped when the source bytes are not a decodable image.
var ErrDecode = errors.New("decode image")

// Config bounds the thumbnail size and sets the JPEG quality.
type Config struct {
	MaxWidth    int `mapstructure:"max_width"`
	MaxHeight   int `mapstructure:"max_height"`
	JPEGQuality int `mapstructure:"jpeg_quality"`
}

// Image is an encoded thumbnail and its final dimensions.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Resizer produces JPEG thumbnails that fit within a bounding box.
type Resizer struct {
	maxWidth  int
	maxHeight int
	quality   int
}

// NewResizer validates cfg and returns a Resizer.
func NewResizer(cfg Config) (*Resizer, error) {
	if cfg.MaxWidth <= 0 || cfg.MaxHeight <= 0 {
		return nil, fmt.Errorf("thumbnail bounds must be positive, got %dx%d", cfg.MaxWidth, cfg.MaxHeight)
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within 1..100, got %d", cfg.JPEGQuality)
	}

	return &Resizer{
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
		quality:   cfg.JPEGQuality,
	}, nil
}

// Fit scales img down, preserving aspect ratio, until neither side exceeds
// the bounds. Images that already fit keep their size.
func (r *Resizer) Fit(img image.Image) image.Image {
	return imaging.Fit(img, r.maxWidth, r.maxHeight, imaging.Lanczos)
}

// Thumbnail decodes src (format auto-detected), fits it and encodes the
// result as JPEG.
func (r *Resizer) Thumbnail(src io.Reader) (*Image, error) {
	img, err := imaging.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	resized := r.Fit(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	b := resized.Bounds()
	return &Image{
		Data:   buf.Bytes(),
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
