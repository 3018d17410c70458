package analyzer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

func plasticAndPaper() []models.InferenceOutput {
	return []models.InferenceOutput{{
		Boxes: []models.Box{box(18, 0, 0, 20, 20), box(17, 0, 0, 20, 20)},
		Masks: []models.Mask{maskWithPixels(20, 100), maskWithPixels(20, 50)},
	}}
}

func TestPixelCounts_PlasticAndPaper(t *testing.T) {
	cat := catalog.Default()

	report, err := PixelCounts(plasticAndPaper(), cat)
	require.NoError(t, err)

	assert.Equal(t, int64(150), report.TotalPixels)
	require.Len(t, report.CategoryPixels, cat.Len())
	require.Len(t, report.Percentages, cat.Len())

	for _, name := range cat.Names() {
		switch name {
		case "Plastic":
			assert.Equal(t, int64(100), report.CategoryPixels[name])
			assert.InDelta(t, 66.67, report.Percentages[name], 0.01)
		case "Paper":
			assert.Equal(t, int64(50), report.CategoryPixels[name])
			assert.InDelta(t, 33.33, report.Percentages[name], 0.01)
		default:
			assert.Equal(t, int64(0), report.CategoryPixels[name], name)
			assert.Equal(t, 0.0, report.Percentages[name], name)
		}
	}
}

func TestPixelCounts_Invariants(t *testing.T) {
	cat := catalog.Default()
	outputs := []models.InferenceOutput{
		{
			Boxes: []models.Box{box(0, 0, 0, 1, 1), box(5, 0, 0, 1, 1), box(5, 0, 0, 1, 1)},
			Masks: []models.Mask{maskWithPixels(7, 13), maskWithPixels(7, 29), maskWithPixels(7, 1)},
		},
		{
			Boxes: []models.Box{box(36, 0, 0, 1, 1)},
			Masks: []models.Mask{maskWithPixels(9, 81)},
		},
	}

	report, err := PixelCounts(outputs, cat)
	require.NoError(t, err)
	require.Greater(t, report.TotalPixels, int64(0))

	var sumCounts int64
	for _, c := range report.CategoryPixels {
		sumCounts += c
	}
	assert.Equal(t, report.TotalPixels, sumCounts)

	var sumPct float64
	for _, p := range report.Percentages {
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 100.0)
		sumPct += p
	}
	assert.InEpsilon(t, 100.0, sumPct, 1e-6)
}

func TestPixelCounts_ZeroTotal(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		name    string
		outputs []models.InferenceOutput
	}{
		{"no outputs", nil},
		{"detection only", []models.InferenceOutput{{Boxes: []models.Box{box(3, 0, 0, 4, 4)}}}},
		{"empty masks", []models.InferenceOutput{{
			Boxes: []models.Box{box(3, 0, 0, 4, 4)},
			Masks: []models.Mask{maskWithPixels(4, 0)},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := PixelCounts(tt.outputs, cat)
			require.NoError(t, err)
			assert.Equal(t, int64(0), report.TotalPixels)
			require.Len(t, report.Percentages, cat.Len())
			for name, p := range report.Percentages {
				assert.Equal(t, 0.0, p, name)
			}
		})
	}
}

func TestPixelCounts_OutOfRangeClass(t *testing.T) {
	cat := catalog.Default()

	for _, class := range []int{-1, cat.Len(), cat.Len() + 5} {
		outputs := []models.InferenceOutput{{
			Boxes: []models.Box{box(18, 0, 0, 1, 1), box(class, 0, 0, 1, 1)},
			Masks: []models.Mask{maskWithPixels(4, 3), maskWithPixels(4, 2)},
		}}

		report, err := PixelCounts(outputs, cat)
		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeCategoryIndex))
	}
}

func TestPixelCounts_MaskValueCoercion(t *testing.T) {
	cat := catalog.Default()
	mask := models.Mask{
		{0, 1, 2.5, 0.4},
		{255, 0.99, 1, 0},
	}
	outputs := []models.InferenceOutput{{Boxes: []models.Box{box(18, 0, 0, 4, 2)}, Masks: []models.Mask{mask}}}

	report, err := PixelCounts(outputs, cat)
	require.NoError(t, err)
	// 1, 2.5, 255 and 1 truncate to non-zero; 0.4 and 0.99 truncate to zero
	assert.Equal(t, int64(4), report.TotalPixels)
	assert.Equal(t, int64(4), report.CategoryPixels["Plastic"])
}

func TestPixelCounts_UnpairedMasksIgnored(t *testing.T) {
	cat := catalog.Default()
	outputs := []models.InferenceOutput{{
		Boxes: []models.Box{box(18, 0, 0, 1, 1)},
		Masks: []models.Mask{maskWithPixels(4, 5), maskWithPixels(4, 7)},
	}}

	report, err := PixelCounts(outputs, cat)
	require.NoError(t, err)
	assert.Equal(t, int64(5), report.TotalPixels)
}

func TestPixelCounts_Idempotent(t *testing.T) {
	cat := catalog.Default()
	outputs := plasticAndPaper()

	first, err := PixelCounts(outputs, cat)
	require.NoError(t, err)
	second, err := PixelCounts(outputs, cat)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPercentages_ZeroTotal(t *testing.T) {
	cat := catalog.Default()
	pct := Percentages(map[string]int64{}, 0, cat)

	require.Len(t, pct, cat.Len())
	for _, p := range pct {
		assert.Zero(t, p)
	}
}

func TestNonZero(t *testing.T) {
	report, err := PixelCounts(plasticAndPaper(), catalog.Default())
	require.NoError(t, err)

	nz := report.NonZero()
	assert.Equal(t, map[string]int64{"Plastic": 100, "Paper": 50}, nz.CategoryPixels)
	require.Len(t, nz.Percentages, 2)
	assert.InDelta(t, 66.67, nz.Percentages["Plastic"], 0.01)

	var empty *models.PixelReport
	assert.Empty(t, empty.NonZero().CategoryPixels)
}
