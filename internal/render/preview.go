package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"

	"geosismica/pkg/models"
)

// BuildPreview decodes data, normalises it to RGBA and re-encodes it as PNG.
// data itself is only read.
func BuildPreview(data []byte) (*models.Preview, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	return &models.Preview{
		Src:    "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}
