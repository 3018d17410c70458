package models

import "time"

// PixelReport aggregates segmentation pixel statistics for one image.
// CategoryPixels and Percentages always hold every catalog category.
type PixelReport struct {
	TotalPixels    int64              `json:"total_pixels"`
	CategoryPixels map[string]int64   `json:"category_pixel_counts"`
	Percentages    map[string]float64 `json:"percentages"`
}

// NonZero returns the counts and percentages of categories that received at
// least one pixel
func (r *PixelReport) NonZero() NonZeroStats {
	stats := NonZeroStats{
		CategoryPixels: make(map[string]int64),
		Percentages:    make(map[string]float64),
	}
	if r == nil {
		return stats
	}
	for cat, count := range r.CategoryPixels {
		if count > 0 {
			stats.CategoryPixels[cat] = count
			stats.Percentages[cat] = r.Percentages[cat]
		}
	}
	return stats
}

// NonZeroStats is the filtered view of a PixelReport shown to users
type NonZeroStats struct {
	CategoryPixels map[string]int64   `json:"category_pixel_counts"`
	Percentages    map[string]float64 `json:"percentages"`
}

// AreaEntry is the bounding-box area of one detection
type AreaEntry struct {
	Category string  `json:"category"`
	Area     float64 `json:"area"`
}

// Summary is the per-image package produced by the summary builder
type Summary struct {
	ImageID        string             `json:"image_id"`
	TotalPixels    int64              `json:"total_pixels"`
	CategoryPixels map[string]int64   `json:"category_pixel_counts"`
	Percentages    map[string]float64 `json:"percentages"`
}

// DisplayShare is a presentation-only ranking row. Percent is relative to the
// display anchor and is not a statistical share of the image.
type DisplayShare struct {
	Category string  `json:"category"`
	Area     float64 `json:"area"`
	Percent  float64 `json:"percent"`
	Anchor   bool    `json:"anchor,omitempty"`
}

// DetectionReport is the full result of one detect action
type DetectionReport struct {
	ID                string         `json:"id"`
	ImageID           string         `json:"image_id"`
	Task              Task           `json:"task"`
	Confidence        float64        `json:"confidence"`
	CreatedAt         time.Time      `json:"created_at"`
	ProcessingTimeSec float64        `json:"processing_time_sec"`
	ImageWidth        int            `json:"image_width"`
	ImageHeight       int            `json:"image_height"`
	Detections        []Box          `json:"detections"`
	AreaReport        []AreaEntry    `json:"area_report"`
	PixelReport       *PixelReport   `json:"pixel_report,omitempty"`
	NonZero           *NonZeroStats  `json:"non_zero,omitempty"`
	DisplayRanking    []DisplayShare `json:"display_ranking,omitempty"`
	AnnotatedImageURL string         `json:"annotated_image_url,omitempty"`
	Errors            []string       `json:"errors,omitempty"`
}
