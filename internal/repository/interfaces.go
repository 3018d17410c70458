package repository

import (
	"context"
	"image"

	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// SourceImage is a decoded input image plus the bytes sent to the backend
type SourceImage struct {
	Name   string
	Data   []byte
	Image  image.Image
	Width  int
	Height int
}

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// LoadUpload decodes an uploaded file
	LoadUpload(filename string, data []byte) (*SourceImage, error)

	// FetchImage downloads and decodes an image from a URL or blob source
	FetchImage(ctx context.Context, source, imageURL string) (*SourceImage, error)
}

// ReportRepository stores detection reports
type ReportRepository interface {
	Save(ctx context.Context, report *models.DetectionReport) error
	Get(ctx context.Context, id string) (*models.DetectionReport, error)

	// List returns reports for imageID oldest first; an empty imageID lists all
	List(ctx context.Context, imageID string) ([]*models.DetectionReport, error)

	Close() error
}
