package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// Register decoders for the formats technicians upload.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailMaxDim bounds the longest side of an embedded photo, in pixels.
const DefaultThumbnailMaxDim = 800

const thumbnailQuality = 80

var errEmptyImage = errors.New("empty image data")

// thumbnail decodes a photo, downscales it to fit maxDim and re-encodes it as baseline JPEG.
func thumbnail(data []byte, maxDim int) ([]byte, int, int, error) {
	if len(data) == 0 {
		return nil, 0, 0, errEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding image: %w", err)
	}
	b := img.Bounds()
	w, h := fitDimensions(b.Dx(), b.Dy(), maxDim)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// fitDimensions scales w x h to fit within maxDim preserving aspect ratio.
func fitDimensions(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return max(w, 1), max(h, 1)
	}
	if w >= h {
		return maxDim, max(h*maxDim/w, 1)
	}
	return max(w*maxDim/h, 1), maxDim
}
