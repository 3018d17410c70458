package repository

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/validation"
)

type fakeFetcher struct {
	data []byte
	err  error
	urls []string
}

func (f *fakeFetcher) FetchImage(_ context.Context, imageURL string) ([]byte, error) {
	f.urls = append(f.urls, imageURL)
	return f.data, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: 120, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadUpload(t *testing.T) {
	repo := NewImageRepository(&fakeFetcher{}, nil, validation.NewSourceValidator())
	data := pngBytes(t, 8, 5)

	src, err := repo.LoadUpload("bin.png", data)
	require.NoError(t, err)
	assert.Equal(t, 8, src.Width)
	assert.Equal(t, 5, src.Height)
	assert.Equal(t, data, src.Data)
	assert.Equal(t, "bin.png", src.Name)
}

// rotatedJPEG encodes a w x h JPEG carrying an EXIF orientation tag
func rotatedJPEG(t *testing.T, w, h int, orientation byte) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	raw := buf.Bytes()

	exif := []byte{
		'E', 'x', 'i', 'f', 0, 0,
		'M', 'M', 0, 42, 0, 0, 0, 8, // big-endian TIFF header, IFD at 8
		0, 1, // one entry
		0x01, 0x12, 0, 3, 0, 0, 0, 1, 0, orientation, 0, 0, // Orientation, SHORT
		0, 0, 0, 0, // no next IFD
	}
	size := len(exif) + 2
	out := append([]byte{}, raw[:2]...)
	out = append(out, 0xFF, 0xE1, byte(size>>8), byte(size))
	out = append(out, exif...)
	return append(out, raw[2:]...)
}

func TestLoadUpload_KeepsStoredOrientation(t *testing.T) {
	repo := NewImageRepository(&fakeFetcher{}, nil, validation.NewSourceValidator())
	data := rotatedJPEG(t, 16, 8, 6)

	src, err := repo.LoadUpload("bin.jpg", data)
	require.NoError(t, err)
	assert.Equal(t, 16, src.Width, "width of the frame the backend sees")
	assert.Equal(t, 8, src.Height)
	assert.Equal(t, data, src.Data)
	assert.Equal(t, image.Rect(0, 0, 16, 8), src.Image.Bounds())
}

func TestLoadUpload_Undecodable(t *testing.T) {
	repo := NewImageRepository(&fakeFetcher{}, nil, validation.NewSourceValidator())

	for _, data := range [][]byte{nil, []byte("definitely not an image")} {
		_, err := repo.LoadUpload("bin.jpg", data)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeImageDecode))
	}
}

func TestFetchImage_URL(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t, 3, 3)}
	repo := NewImageRepository(fetcher, nil, validation.NewSourceValidator())

	src, err := repo.FetchImage(context.Background(), validation.SourceURL, "https://example.com/piles/pile.png")
	require.NoError(t, err)
	assert.Equal(t, "pile.png", src.Name)
	assert.Equal(t, []string{"https://example.com/piles/pile.png"}, fetcher.urls)
}

func TestFetchImage_Errors(t *testing.T) {
	t.Run("invalid url is not fetched", func(t *testing.T) {
		fetcher := &fakeFetcher{}
		repo := NewImageRepository(fetcher, nil, validation.NewSourceValidator())

		_, err := repo.FetchImage(context.Background(), validation.SourceURL, "ftp://example.com/a.png")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.Empty(t, fetcher.urls)
	})

	t.Run("fetch failure is a network error", func(t *testing.T) {
		repo := NewImageRepository(&fakeFetcher{err: errors.New("connection refused")}, nil, validation.NewSourceValidator())

		_, err := repo.FetchImage(context.Background(), validation.SourceURL, "https://example.com/a.png")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork))
	})

	t.Run("azure without account", func(t *testing.T) {
		repo := NewImageRepository(&fakeFetcher{}, nil, validation.NewSourceValidator())

		_, err := repo.FetchImage(context.Background(), validation.SourceAzure,
			"https://acct.blob.core.windows.net/uploads?blob=a.png")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.ErrorIs(t, err, ErrSourceUnavailable)
	})
}
