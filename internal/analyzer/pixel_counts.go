package analyzer

import (
	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// PixelCounts tallies segmentation mask pixels per category and converts them
// to percentages of the total. Every catalog category is present in the
// report. A class index outside the catalog aborts the whole report.
func PixelCounts(outputs []models.InferenceOutput, cat *catalog.Catalog) (*models.PixelReport, error) {
	total, counts, err := countPixels(outputs, cat)
	if err != nil {
		return nil, err
	}

	return &models.PixelReport{
		TotalPixels:    total,
		CategoryPixels: counts,
		Percentages:    Percentages(counts, total, cat),
	}, nil
}

func countPixels(outputs []models.InferenceOutput, cat *catalog.Catalog) (int64, map[string]int64, error) {
	counts := make(map[string]int64, cat.Len())
	for _, name := range cat.Names() {
		counts[name] = 0
	}

	var total int64
	for _, out := range outputs {
		// masks and boxes are parallel; extra entries on either side are ignored
		n := len(out.Masks)
		if len(out.Boxes) < n {
			n = len(out.Boxes)
		}
		for i := 0; i < n; i++ {
			name, err := cat.Name(out.Boxes[i].Class)
			if err != nil {
				return 0, nil, err
			}
			pixels := out.Masks[i].OnPixels()
			total += pixels
			counts[name] += pixels
		}
	}
	return total, counts, nil
}

// Percentages converts per-category counts to count/total*100. A zero total
// is a valid "nothing segmented" result and yields 0 for every category.
func Percentages(counts map[string]int64, total int64, cat *catalog.Catalog) map[string]float64 {
	pct := make(map[string]float64, cat.Len())
	for _, name := range cat.Names() {
		if total == 0 {
			pct[name] = 0
			continue
		}
		pct[name] = float64(counts[name]) / float64(total) * 100
	}
	return pct
}
