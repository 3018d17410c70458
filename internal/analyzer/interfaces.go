package analyzer

import "github.com/anime-shed/waste-inspector-go/pkg/models"

// Result holds the statistics derived from one inference call
type Result struct {
	Areas   []models.AreaEntry
	Pixels  *models.PixelReport
	Display []models.DisplayShare
}

// DetectionAnalyzer turns raw backend outputs into area and pixel statistics
type DetectionAnalyzer interface {
	Analyze(outputs []models.InferenceOutput, options AnalysisOptions) (*Result, error)
}
