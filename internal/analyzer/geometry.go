package analyzer

import (
	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// BoxAreas returns (x2-x1)*(y2-y1) for every box, in input order.
// Malformed boxes (x2 < x1 or y2 < y1) yield negative areas unchanged.
func BoxAreas(boxes []models.Box) []float64 {
	areas := make([]float64, 0, len(boxes))
	for _, b := range boxes {
		areas = append(areas, b.Area())
	}
	return areas
}

// AreaReport pairs each detection's box area with its category name, in
// detection order across all outputs.
func AreaReport(outputs []models.InferenceOutput, cat *catalog.Catalog) ([]models.AreaEntry, error) {
	entries := make([]models.AreaEntry, 0)
	for _, out := range outputs {
		areas := BoxAreas(out.Boxes)
		for i, box := range out.Boxes {
			name, err := cat.Name(box.Class)
			if err != nil {
				return nil, err
			}
			entries = append(entries, models.AreaEntry{Category: name, Area: areas[i]})
		}
	}
	return entries, nil
}
