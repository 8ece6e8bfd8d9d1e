package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})

	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestValidateImageAcceptsPNG(t *testing.T) {
	p := NewImageProcessor()

	format, err := p.ValidateImage(encodePNG(t, 10, 10))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestValidateImageRejects(t *testing.T) {
	p := NewImageProcessor()

	t.Run("not an image", func(t *testing.T) {
		_, err := p.ValidateImage([]byte("hello"))
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})

	t.Run("too large", func(t *testing.T) {
		small := &ImageProcessor{MaxSize: 10}
		_, err := small.ValidateImage(encodePNG(t, 10, 10))
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})

	t.Run("gif", func(t *testing.T) {
		buf := new(bytes.Buffer)
		img := image.NewPaletted(image.Rect(0, 0, 4, 4), []color.Color{color.Black, color.White})
		require.NoError(t, gif.Encode(buf, img, nil))

		_, err := p.ValidateImage(buf.Bytes())
		assert.ErrorIs(t, err, ErrUnsupportedImage)
	})
}

func TestResizeCover(t *testing.T) {
	p := NewImageProcessor()

	t.Run("wide image is scaled down", func(t *testing.T) {
		out, err := p.ResizeCover(encodePNG(t, 1200, 1800))
		require.NoError(t, err)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
		assert.Equal(t, CoverWidth, cfg.Width)
		assert.Equal(t, 900, cfg.Height)
	})

	t.Run("small image keeps its size", func(t *testing.T) {
		out, err := p.ResizeCover(encodePNG(t, 300, 450))
		require.NoError(t, err)

		cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 300, cfg.Width)
	})
}
