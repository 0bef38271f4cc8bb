package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestIsValidImageType(t *testing.T) {
	assert.True(t, IsValidImageType("image/png"))
	assert.True(t, IsValidImageType("IMAGE/JPEG"))
	assert.True(t, IsValidImageType("image/png; charset=binary"))
	assert.False(t, IsValidImageType("text/html"))
	assert.False(t, IsValidImageType(""))
}

func TestPrepareForOCR_DownscalesWideImages(t *testing.T) {
	out, err := PrepareForOCR(encodePNG(t, 400, 100), 200)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestPrepareForOCR_KeepsNarrowImages(t *testing.T) {
	out, err := PrepareForOCR(encodePNG(t, 120, 40), 200)
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Width)
}

func TestPrepareForOCR_RejectsGarbage(t *testing.T) {
	_, err := PrepareForOCR([]byte("<html>not an image</html>"), 200)
	assert.Error(t, err)
}
