package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

func TestBoxAreas(t *testing.T) {
	tests := []struct {
		name  string
		boxes []models.Box
		want  []float64
	}{
		{"empty", nil, []float64{}},
		{"unit square", []models.Box{box(0, 0, 0, 1, 1)}, []float64{1}},
		{"rectangle", []models.Box{box(0, 10, 20, 40, 60)}, []float64{1200}},
		{"fractional", []models.Box{box(0, 0.5, 0.5, 2, 1.5)}, []float64{1.5}},
		{"degenerate", []models.Box{box(0, 5, 5, 5, 9)}, []float64{0}},
		{"inverted x passes through", []models.Box{box(0, 10, 0, 0, 10)}, []float64{-100}},
		{
			"several keep order",
			[]models.Box{box(0, 0, 0, 2, 2), box(1, 0, 0, 3, 1), box(2, 1, 1, 2, 5)},
			[]float64{4, 3, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoxAreas(tt.boxes)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoxAreas_NonNegativeForWellFormed(t *testing.T) {
	boxes := make([]models.Box, 0)
	for x1 := 0.0; x1 < 5; x1++ {
		for w := 0.0; w < 5; w++ {
			boxes = append(boxes, box(0, x1, x1/2, x1+w, x1/2+w*2))
		}
	}

	areas := BoxAreas(boxes)
	require.Len(t, areas, len(boxes))
	for i, a := range areas {
		b := boxes[i]
		assert.GreaterOrEqual(t, a, 0.0)
		assert.Equal(t, (b.X2-b.X1)*(b.Y2-b.Y1), a)
	}
}

func TestAreaReport(t *testing.T) {
	cat := catalog.Default()
	outputs := []models.InferenceOutput{
		{Boxes: []models.Box{box(18, 0, 0, 10, 10), box(17, 0, 0, 5, 4)}},
		{Boxes: []models.Box{box(9, 0, 0, 2, 3)}},
	}

	entries, err := AreaReport(outputs, cat)
	require.NoError(t, err)
	assert.Equal(t, []models.AreaEntry{
		{Category: "Plastic", Area: 100},
		{Category: "Paper", Area: 20},
		{Category: "Garbage", Area: 6},
	}, entries)
}

func TestAreaReport_BadClass(t *testing.T) {
	_, err := AreaReport([]models.InferenceOutput{{Boxes: []models.Box{box(99, 0, 0, 1, 1)}}}, catalog.Default())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCategoryIndex))
}
