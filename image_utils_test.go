package yololbl

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// losslessWebP is a 1x1 lossless WebP image.
var losslessWebP = []byte{
	0x52, 0x49, 0x46, 0x46, 0x1a, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50, 0x56, 0x50, 0x38,
	0x4c, 0x0d, 0x00, 0x00, 0x00, 0x2f, 0x00, 0x00, 0x00, 0x10, 0x07, 0x10, 0x11, 0x11, 0x88,
	0x88, 0xfe, 0x07, 0x00,
}

func writeImage(t *testing.T, fs afero.Fs, path string, width, height int, format imaging.Format) {
	var buf bytes.Buffer
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	require.NoError(t, imaging.Encode(&buf, img, format))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

func TestSampleImageSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeImage(t, fs, "/images/b.png", 64, 48, imaging.PNG)
	writeImage(t, fs, "/images/a.jpg", 32, 16, imaging.JPEG)
	writeImage(t, fs, "/images/c.png", 10, 10, imaging.PNG)

	// PNG images are preferred, and the first one by name is used.
	size, path, err := SampleImageSize(fs, "/images")
	require.NoError(t, err)
	assert.Equal(t, ImageSize{Width: 64, Height: 48}, size)
	assert.Equal(t, "/images/b.png", path)
	assert.Equal(t, "64x48", size.String())

	require.NoError(t, fs.Remove("/images/b.png"))
	require.NoError(t, fs.Remove("/images/c.png"))
	size, path, err = SampleImageSize(fs, "/images")
	require.NoError(t, err)
	assert.Equal(t, ImageSize{Width: 32, Height: 16}, size)
	assert.Equal(t, "/images/a.jpg", path)

	// Extensions match regardless of case.
	writeImage(t, fs, "/camera/IMG_0001.JPG", 24, 12, imaging.JPEG)
	size, path, err = SampleImageSize(fs, "/camera")
	require.NoError(t, err)
	assert.Equal(t, ImageSize{Width: 24, Height: 12}, size)
	assert.Equal(t, "/camera/IMG_0001.JPG", path)

	require.NoError(t, fs.MkdirAll("/empty", 0755))
	_, _, err = SampleImageSize(fs, "/empty")
	assert.True(t, errors.Is(err, ErrMissingInput))

	_, _, err = SampleImageSize(fs, "/missing")
	assert.True(t, errors.Is(err, ErrMissingInput))

	require.NoError(t, afero.WriteFile(fs, "/broken/x.png", []byte("not an image"), 0644))
	_, _, err = SampleImageSize(fs, "/broken")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingInput))
}

func TestDecodeImageConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 7, 5))))
	require.NoError(t, afero.WriteFile(fs, "/img.png", buf.Bytes(), 0644))

	config, format, err := decodeImageConfig(fs, "/img.png")
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 7, config.Width)
	assert.Equal(t, 5, config.Height)

	require.NoError(t, afero.WriteFile(fs, "/img.webp", losslessWebP, 0644))
	config, format, err = decodeImageConfig(fs, "/img.webp")
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 1, config.Width)
	assert.Equal(t, 1, config.Height)
}
