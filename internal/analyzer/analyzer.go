package analyzer

import (
	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// statsAnalyzer implements DetectionAnalyzer over a fixed catalog
type statsAnalyzer struct {
	catalog *catalog.Catalog
}

// NewDetectionAnalyzer creates an analyzer bound to cat
func NewDetectionAnalyzer(cat *catalog.Catalog) DetectionAnalyzer {
	return &statsAnalyzer{catalog: cat}
}

// Analyze computes the area report for every task and the pixel report for
// segmentation. The display ranking is only built on request.
func (a *statsAnalyzer) Analyze(outputs []models.InferenceOutput, options AnalysisOptions) (*Result, error) {
	areas, err := AreaReport(outputs, a.catalog)
	if err != nil {
		return nil, err
	}

	result := &Result{Areas: areas}

	if options.Task == models.TaskSegmentation {
		pixels, err := PixelCounts(outputs, a.catalog)
		if err != nil {
			return nil, err
		}
		result.Pixels = pixels
	}

	if options.IncludeDisplayRanking {
		result.Display = DisplayRanking(areas, options.Display)
	}

	return result, nil
}

// FilterByConfidence drops detections below min, keeping masks aligned with
// their boxes. Outputs are copied; the input is not modified.
func FilterByConfidence(outputs []models.InferenceOutput, min float64) []models.InferenceOutput {
	filtered := make([]models.InferenceOutput, 0, len(outputs))
	for _, out := range outputs {
		kept := models.InferenceOutput{Width: out.Width, Height: out.Height, Boxes: []models.Box{}}
		for i, box := range out.Boxes {
			if box.Confidence < min {
				continue
			}
			kept.Boxes = append(kept.Boxes, box)
			if i < len(out.Masks) {
				kept.Masks = append(kept.Masks, out.Masks[i])
			}
		}
		filtered = append(filtered, kept)
	}
	return filtered
}
