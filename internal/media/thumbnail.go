// Package media derives previews from plaintext media and recompresses large
// images before encryption.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

var ErrUnsupported = errors.New("unsupported media")

// FrameExtractor pulls a single still frame out of a video.
type FrameExtractor interface {
	FirstFrame(ctx context.Context, video []byte) (image.Image, error)
}

type ThumbnailGenerator struct {
	config ThumbnailConfig
	frames FrameExtractor
}

// NewThumbnailGenerator builds a generator. frames may be nil, in which case
// videos get no thumbnail.
func NewThumbnailGenerator(cfg ThumbnailConfig, frames FrameExtractor) *ThumbnailGenerator {
	return &ThumbnailGenerator{config: cfg.withDefaults(), frames: frames}
}

// Generate returns a JPEG preview within the configured byte cap, or nil when
// the input is not image/video or no quality step fits the cap.
func (g *ThumbnailGenerator) Generate(ctx context.Context, data []byte, mimeType string) ([]byte, error) {
	var (
		src image.Image
		err error
	)

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		src, err = imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", mimeType, err)
		}
	case strings.HasPrefix(mimeType, "video/"):
		if g.frames == nil {
			return nil, nil
		}

		src, err = g.frames.FirstFrame(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("video frame: %w", err)
		}
	default:
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	small := imaging.Fit(src, g.config.MaxDimension, g.config.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	for _, q := range g.config.Qualities {
		buf.Reset()
		if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, fmt.Errorf("encode thumbnail: %w", err)
		}

		if buf.Len() <= g.config.MaxBytes {
			return append([]byte(nil), buf.Bytes()...), nil
		}
	}

	return nil, nil
}
