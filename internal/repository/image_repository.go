package repository

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/disintegration/imaging"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/internal/storage"
	"github.com/anime-shed/waste-inspector-go/pkg/validation"
)

// imageRepository implements ImageRepository over HTTP and optional blob storage
type imageRepository struct {
	fetcher   storage.ImageFetcher
	blobs     storage.BlobStorage
	validator *validation.SourceValidator
}

// NewImageRepository creates an image repository. blobs may be nil when no
// Azure account is configured.
func NewImageRepository(fetcher storage.ImageFetcher, blobs storage.BlobStorage, validator *validation.SourceValidator) ImageRepository {
	return &imageRepository{
		fetcher:   fetcher,
		blobs:     blobs,
		validator: validator,
	}
}

func (r *imageRepository) LoadUpload(filename string, data []byte) (*SourceImage, error) {
	return decode(filename, data)
}

func (r *imageRepository) FetchImage(ctx context.Context, source, imageURL string) (*SourceImage, error) {
	if err := r.validator.Validate(source, imageURL); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch source {
	case validation.SourceAzure:
		if r.blobs == nil {
			return nil, apperrors.NewValidationError("azure source is not configured", ErrSourceUnavailable)
		}
		data, err = r.blobs.FetchImage(ctx, imageURL)
	default:
		data, err = r.fetcher.FetchImage(ctx, imageURL)
	}
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, apperrors.NewTimeoutError("image fetch timed out", err)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", err)
	}

	return decode(sourceName(source, imageURL), data)
}

// sourceName is the file name reports use as the image id
func sourceName(source, imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return imageURL
	}
	if source == validation.SourceAzure {
		return parsed.Query().Get("blob")
	}
	return path.Base(parsed.Path)
}

// decode keeps the stored pixel frame and ignores EXIF orientation. The
// backend receives the same bytes, so its box and mask coordinates refer to
// this frame.
func decode(name string, data []byte) (*SourceImage, error) {
	if len(data) == 0 {
		return nil, apperrors.NewImageDecodeError("image is empty", nil)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(false))
	if err != nil {
		return nil, apperrors.NewImageDecodeError(fmt.Sprintf("cannot decode %s", name), err)
	}
	b := img.Bounds()
	return &SourceImage{
		Name:   name,
		Data:   data,
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}
