package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	ThumbnailSize = 256
	JPEGQuality   = 90
	// MaxSourcePixels bounds what a cover may declare before it is decoded.
	MaxSourcePixels = 40_000_000
)

// DecodeError reports input bytes that are not a readable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[MediaNormalizer] failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Normalize decodes an image in any registered format and re-encodes it as a
// ThumbnailSize x ThumbnailSize RGB JPEG. Aspect ratio is not preserved.
func Normalize(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: errors.New("empty input")}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, &DecodeError{Err: fmt.Errorf("unsupported dimensions %dx%d", cfg.Width, cfg.Height)}
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	sb := src.Bounds()
	if sb.Dx() <= 0 || sb.Dy() <= 0 {
		return nil, &DecodeError{Err: fmt.Errorf("invalid dimensions %dx%d", sb.Dx(), sb.Dy())}
	}

	// Opaque black base drops any alpha channel before encoding.
	dst := image.NewRGBA(image.Rect(0, 0, ThumbnailSize, ThumbnailSize))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("[MediaNormalizer] failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}
