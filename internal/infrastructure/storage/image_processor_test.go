package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestProcessGeneratedProducesBoundedVariants(t *testing.T) {
	p := NewImageProcessor()
	p.ThumbnailSize = 32

	variants, err := p.ProcessGenerated(pngFixture(t, 400, 200), 100, 100)
	require.NoError(t, err)
	require.Contains(t, variants, VariantFull)
	require.Contains(t, variants, VariantThumbnail)

	full, format, err := image.DecodeConfig(bytes.NewReader(variants[VariantFull]))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, full.Width)
	assert.Equal(t, 50, full.Height)

	thumb, _, err := image.DecodeConfig(bytes.NewReader(variants[VariantThumbnail]))
	require.NoError(t, err)
	assert.LessOrEqual(t, thumb.Width, 32)
}

func TestValidateImageRejectsGarbage(t *testing.T) {
	p := NewImageProcessor()
	assert.Error(t, p.ValidateImage([]byte("not an image")))

	p.MaxSize = 10
	assert.Error(t, p.ValidateImage(pngFixture(t, 8, 8)))
}
