package analyzer

import "github.com/anime-shed/waste-inspector-go/pkg/models"

// maskWithPixels builds a width x width mask whose first n pixels are on
func maskWithPixels(width, n int) models.Mask {
	m := make(models.Mask, width)
	for y := range m {
		m[y] = make([]float32, width)
	}
	for i := 0; i < n; i++ {
		m[i/width][i%width] = 1
	}
	return m
}

func box(class int, x1, y1, x2, y2 float64) models.Box {
	return models.Box{X1: x1, Y1: y1, X2: x2, Y2: y2, Class: class, Confidence: 0.9}
}
