package display

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
)

// DefaultMaxImagePixels caps the canvas CompositeImage will allocate.
const DefaultMaxImagePixels int64 = 50_000_000

// ErrImageTooLarge is returned when an image's declared dimensions exceed the
// pixel cap.
var ErrImageTooLarge = errors.New("image exceeds pixel limit")

// CompositeImage decodes a base64 image and paints it over a white canvas of
// the same size, so transparent regions render white on any page. Images
// whose header declares more than maxPixels pixels are rejected before any
// pixel data is decoded; maxPixels <= 0 means DefaultMaxImagePixels.
func CompositeImage(payload string, maxPixels int64) (Image, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	raw, err := decodeBase64(payload)
	if err != nil {
		return Image{}, fmt.Errorf("decode image payload: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("decode image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return Image{}, fmt.Errorf("%w: %dx%d > %d", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return Image{}, fmt.Errorf("encode image: %w", err)
	}
	return Image{Width: b.Dx(), Height: b.Dy(), PNG: buf.Bytes()}, nil
}

// decodeBase64 accepts the MIME-style base64 notebooks store, which may be
// wrapped across lines.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	return base64.StdEncoding.DecodeString(s)
}
