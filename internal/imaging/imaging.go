// Package imaging normalises uploaded item photos and keeps them in a
// pluggable blob store.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"

	"github.com/erazemk/fixitforward/internal/model"
)

const (
	// MaxDimension bounds the longer side of a stored photo.
	MaxDimension = 1024
	// JPEGQuality is used for every stored photo.
	JPEGQuality = 85
	// MaxUploadSize caps the accepted upload body.
	MaxUploadSize = 5 << 20
)

// StoredMIME is the type of every stored photo.
const StoredMIME = "image/jpeg"

// accepted lists the sniffed input types.
var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a normalised photo ready to store.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process reads one JPEG or PNG photo, shrinks it to fit MaxDimension and
// re-encodes it as JPEG. The format is sniffed from the bytes. Rejected
// input is a model.ErrValidation.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, model.Invalid("image", fmt.Sprintf("larger than %d MiB", MaxUploadSize>>20))
	}
	if kind := http.DetectContentType(data); !accepted[kind] {
		return nil, model.Invalid("image", fmt.Sprintf("unsupported format %s, use JPEG or PNG", kind))
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.Invalid("image", fmt.Sprintf("unreadable photo: %v", err))
	}

	img := shrink(src, MaxDimension)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: StoredMIME, Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales w x h down, keeping the aspect ratio, so that neither side
// exceeds limit. Sizes already within it are returned unchanged.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		return limit, clampOne(h * limit / w)
	}
	return clampOne(w * limit / h), limit
}

func clampOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// shrink resamples img with Catmull-Rom when it exceeds limit.
func shrink(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), limit)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
