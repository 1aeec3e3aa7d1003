package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int, withAlpha bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := uint8(255)
			if withAlpha && x%2 == 0 {
				a = 0
			}
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 120, A: a})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func encodeGrayJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeProducesFixedSizeRGBJPEG(t *testing.T) {
	cases := map[string][]byte{
		"wide png":        encodePNG(t, 640, 360, false),
		"tall png":        encodePNG(t, 90, 300, false),
		"tiny png":        encodePNG(t, 1, 1, false),
		"png with alpha":  encodePNG(t, 300, 300, true),
		"grayscale jpeg":  encodeGrayJPEG(t, 512, 512),
		"exact size jpeg": encodeGrayJPEG(t, ThumbnailSize, ThumbnailSize),
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := Normalize(input)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}

			cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a decodable image: %v", err)
			}
			if format != "jpeg" {
				t.Fatalf("format = %q, want jpeg", format)
			}
			if cfg.Width != ThumbnailSize || cfg.Height != ThumbnailSize {
				t.Fatalf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, ThumbnailSize, ThumbnailSize)
			}
			if cfg.ColorModel != color.YCbCrModel {
				t.Errorf("color model = %v, want three-component YCbCr", cfg.ColorModel)
			}
		})
	}
}

func TestNormalizeRejectsMalformedInput(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("definitely not an image"),
		"truncated": encodePNG(t, 64, 64, false)[:40],
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(input)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Normalize() error = %v, want *DecodeError", err)
			}
		})
	}
}

func TestNormalizeRejectsOversizedDeclaredDimensions(t *testing.T) {
	data := encodePNG(t, 2, 2, false)
	// IHDR data starts at byte 16; its CRC covers the chunk type and data.
	binary.BigEndian.PutUint32(data[16:20], 40000)
	binary.BigEndian.PutUint32(data[20:24], 40000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, err := Normalize(data)
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Normalize() error = %v, want *DecodeError", err)
	}
}
