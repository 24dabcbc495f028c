package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	dimg "github.com/disintegration/imaging"
)

// FitLessonFrame decodes a generated image and center-crops it to the lesson
// frame, re-encoding as PNG so every lesson image has the placeholder's geometry.
func FitLessonFrame(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	src, err := dimg.Decode(bytes.NewReader(data), dimg.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var out image.Image = src
	if b := src.Bounds(); b.Dx() != placeholderW || b.Dy() != placeholderH {
		out = dimg.Fill(src, placeholderW, placeholderH, dimg.Center, dimg.Lanczos)
	}

	var buf bytes.Buffer
	if err := dimg.Encode(&buf, out, dimg.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
