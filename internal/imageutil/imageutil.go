// Package imageutil implements the image-cleanup stage: orientation
// correction (driven by Tesseract OSD), uniform-border trim, aspect-ratio
// splitting for extreme page shapes, and size-bounded recompression.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/disintegration/imaging"

	"github.com/adverant/zerox/internal/tesseractpool"
)

// aspectSplitThreshold mirrors the ~5:1 guideline from the design notes;
// it is implementation-defined, not a hard contract.
const aspectSplitThreshold = 5.0

// Options controls the cleanup pass over one page image.
type Options struct {
	CorrectOrientation bool
	TrimEdges          bool
	Pool               *tesseractpool.Pool
}

// Cleanup normalizes one page image buffer, returning one buffer in the
// common case or several when the image is taller than wide and its aspect
// ratio exceeds the split threshold. Wide images are never split.
func Cleanup(buf []byte, opts Options) ([][]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(false))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	if opts.CorrectOrientation && opts.Pool != nil {
		worker := opts.Pool.Acquire()
		rotation, err := tesseractpool.DetectRotation(worker, buf)
		opts.Pool.Release(worker)
		if err != nil {
			return nil, fmt.Errorf("detect orientation: %w", err)
		}
		img = counterRotate(img, rotation)
	}

	if opts.TrimEdges {
		img = trim(img)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var tiles []image.Image
	if w > 0 && h > 0 && aspectRatio(w, h) > aspectSplitThreshold {
		tiles = splitTall(img)
	} else {
		tiles = []image.Image{img}
	}

	out := make([][]byte, 0, len(tiles))
	for _, tile := range tiles {
		buf, err := encodePNGBytes(tile)
		if err != nil {
			return nil, err
		}
		out = append(out, buf)
	}
	return out, nil
}

func aspectRatio(w, h int) float64 {
	long, short := float64(w), float64(h)
	if short > long {
		long, short = short, long
	}
	if short == 0 {
		return 0
	}
	return long / short
}

// counterRotate rotates img opposite to the detected rotation, so the
// content reads upright.
func counterRotate(img image.Image, detectedDegrees int) image.Image {
	switch detectedDegrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// trim removes uniform-color border regions from img.
func trim(img image.Image) image.Image {
	b := img.Bounds()
	left, top, right, bottom := b.Min.X, b.Min.Y, b.Max.X-1, b.Max.Y-1

	border := img.At(b.Min.X, b.Min.Y)

	for left < right && rowOrColumnUniform(img, left, top, bottom, true, border) {
		left++
	}
	for right > left && rowOrColumnUniform(img, right, top, bottom, true, border) {
		right--
	}
	for top < bottom && rowOrColumnUniform(img, top, left, right, false, border) {
		top++
	}
	for bottom > top && rowOrColumnUniform(img, bottom, left, right, false, border) {
		bottom--
	}

	if right <= left || bottom <= top {
		return img
	}
	return imaging.Crop(img, image.Rect(left, top, right+1, bottom+1))
}

func rowOrColumnUniform(img image.Image, fixed, from, to int, isColumn bool, border color.Color) bool {
	br, bg, bb, ba := border.RGBA()
	for i := from; i <= to; i++ {
		var c color.Color
		if isColumn {
			c = img.At(fixed, i)
		} else {
			c = img.At(i, fixed)
		}
		r, g, bl, a := c.RGBA()
		if !closeEnough(r, br) || !closeEnough(g, bg) || !closeEnough(bl, bb) || !closeEnough(a, ba) {
			return false
		}
	}
	return true
}

func closeEnough(a, b uint32) bool {
	const tolerance = 1024 // out of 65535
	if a > b {
		return a-b <= tolerance
	}
	return b-a <= tolerance
}

// splitTall divides an unusually long/tall image into overlap-free
// horizontal tiles of roughly square-to-moderate aspect ratio.
func splitTall(img image.Image) []image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if h <= w {
		return []image.Image{img}
	}

	tileHeight := w * 2 // keep each tile at roughly 1:2
	if tileHeight <= 0 {
		return []image.Image{img}
	}

	var tiles []image.Image
	for y := 0; y < h; y += tileHeight {
		bottom := y + tileHeight
		if bottom > h {
			bottom = h
		}
		tiles = append(tiles, imaging.Crop(img, image.Rect(0, y, w, bottom)))
	}
	return tiles
}

// ResizeToHeight resizes img preserving aspect ratio so its height equals
// targetHeight.
func ResizeToHeight(img image.Image, targetHeight int) image.Image {
	return imaging.Resize(img, 0, targetHeight, imaging.Lanczos)
}

// EncodePNG writes img to path as a PNG without DPI metadata, avoiding the
// "Invalid resolution … dpi" warning class of problems entirely by never
// emitting a pHYs chunk.
func EncodePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func encodePNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressToSize recompresses the PNG at srcPath, writing dstPath, shrinking
// dimensions until the encoded size is at or under maxBytes.
func CompressToSize(srcPath, dstPath string, maxBytes int64) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(false))
	if err != nil {
		return err
	}

	scale := 1.0
	for {
		b := img.Bounds()
		w := int(float64(b.Dx()) * scale)
		h := int(float64(b.Dy()) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		resized := imaging.Resize(img, w, h, imaging.Lanczos)

		encoded, err := encodePNGBytes(resized)
		if err != nil {
			return err
		}
		if int64(len(encoded)) <= maxBytes || scale < 0.1 {
			return os.WriteFile(dstPath, encoded, 0o644)
		}
		scale *= 0.85
	}
}

// EncodeBase64PNG reads path and returns its base64-encoded PNG contents,
// the form the Model Abstraction layer sends to vision providers.
func EncodeBase64PNG(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
