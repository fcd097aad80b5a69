// IndieForge - Community Forum for Indie Game Developers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/indieforge

package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// decoders for image.Decode
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format, use JPEG, PNG or GIF")
	ErrTooManyPixels     = errors.New("image has too many pixels")
)

// acceptedFormats are the names image.DecodeConfig reports for the
// formats uploads may use.
var acceptedFormats = map[string]bool{"jpeg": true, "png": true, "gif": true}

// Processed is an uploaded image re-encoded in both sizes.
type Processed struct {
	Format string

	Full       []byte
	FullWidth  int
	FullHeight int

	Thumb       []byte
	ThumbWidth  int
	ThumbHeight int
}

// Processor validates, downscales and re-encodes images.
type Processor struct {
	maxPixels int
	maxDim    int
	thumbDim  int
	quality   int
}

// NewProcessor creates a processor. Zero values take the defaults
// 40 megapixels, 1600px, 320px and quality 85.
func NewProcessor(maxPixels, maxDim, thumbDim, quality int) *Processor {
	if maxPixels <= 0 {
		maxPixels = 40_000_000
	}
	if maxDim <= 0 {
		maxDim = 1600
	}
	if thumbDim <= 0 {
		thumbDim = 320
	}
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Processor{maxPixels: maxPixels, maxDim: maxDim, thumbDim: thumbDim, quality: quality}
}

// Process decodes data and produces the full and thumb JPEGs. The header
// is checked before the pixel data is decoded.
func (p *Processor) Process(data []byte) (*Processed, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnsupportedFormat
		}
		return nil, fmt.Errorf("read image header: %w", err)
	}
	if !acceptedFormats[format] {
		return nil, ErrUnsupportedFormat
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("image has no pixels")
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return nil, ErrTooManyPixels
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := &Processed{Format: format}

	full := fit(src, p.maxDim)
	if out.Full, err = p.encode(full); err != nil {
		return nil, err
	}
	out.FullWidth, out.FullHeight = full.Bounds().Dx(), full.Bounds().Dy()

	thumb := fit(full, p.thumbDim)
	if out.Thumb, err = p.encode(thumb); err != nil {
		return nil, err
	}
	out.ThumbWidth, out.ThumbHeight = thumb.Bounds().Dx(), thumb.Bounds().Dy()

	return out, nil
}

// fit scales src down so neither side exceeds maxDim, keeping the aspect
// ratio. Images that already fit are copied onto a white canvas unscaled.
func fit(src image.Image, maxDim int) image.Image {
	b := src.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; transparent pixels become white
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// fitSize returns the largest size within maxDim x maxDim with the aspect
// ratio of w x h. It never enlarges.
func fitSize(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

func (p *Processor) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// readLimited reads at most limit bytes from r and reports ErrTooLarge
// when more is available.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
