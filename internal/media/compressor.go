package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

var ErrNotSmaller = errors.New("recompressed image is not smaller")

const CompressedMimeType = "image/jpeg"

var compressible = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/bmp":  true,
	"image/tiff": true,
}

type Compressor struct {
	config CompressionConfig
}

func NewCompressor(cfg CompressionConfig) *Compressor {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = 2048
	}

	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 80
	}

	return &Compressor{config: cfg}
}

// Applies reports whether an input of this size and type is a recompression candidate.
func (c *Compressor) Applies(size int64, mimeType string) bool {
	return c != nil && c.config.Enabled && size > c.config.ThresholdBytes && compressible[mimeType]
}

// Compress downsizes and re-encodes data as JPEG. The result is always smaller
// than the input or an error is returned.
func (c *Compressor) Compress(ctx context.Context, data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = imaging.Fit(img, c.config.MaxDimension, c.config.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.config.Quality)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	if buf.Len() >= len(data) {
		return nil, ErrNotSmaller
	}

	return buf.Bytes(), nil
}
