package analyzer

import (
	"fmt"

	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// GenerateSummary builds one pixel summary per image, preserving input order
func GenerateSummary(results []models.ImageResult, cat *catalog.Catalog) ([]models.Summary, error) {
	summaries := make([]models.Summary, 0, len(results))
	for _, r := range results {
		report, err := PixelCounts(r.Outputs, cat)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", r.ImageID, err)
		}
		summaries = append(summaries, models.Summary{
			ImageID:        r.ImageID,
			TotalPixels:    report.TotalPixels,
			CategoryPixels: report.CategoryPixels,
			Percentages:    report.Percentages,
		})
	}
	return summaries, nil
}

// NonZeroSummary drops the categories of s that received no pixels
func NonZeroSummary(s models.Summary) models.Summary {
	report := models.PixelReport{
		TotalPixels:    s.TotalPixels,
		CategoryPixels: s.CategoryPixels,
		Percentages:    s.Percentages,
	}
	nz := report.NonZero()
	s.CategoryPixels = nz.CategoryPixels
	s.Percentages = nz.Percentages
	return s
}
