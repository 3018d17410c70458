package analyzer

import "github.com/anime-shed/waste-inspector-go/pkg/models"

const (
	// MinConfidencePercent is the lowest value of the confidence slider
	MinConfidencePercent = 25
	// MaxConfidencePercent is the highest value of the confidence slider
	MaxConfidencePercent = 100
	// DefaultConfidencePercent is the slider's initial position
	DefaultConfidencePercent = 40
)

// AnalysisOptions provides flexible configuration for detection analysis
type AnalysisOptions struct {
	Task models.Task

	// Confidence is the model threshold in [0.25, 1.0]
	Confidence float64

	// Display heuristic
	IncludeDisplayRanking bool
	Display               DisplayOptions
}

// DefaultOptions returns options for a plain detection run
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Task:                  models.TaskDetection,
		Confidence:            float64(DefaultConfidencePercent) / 100,
		IncludeDisplayRanking: false,
		Display:               DefaultDisplayOptions(),
	}
}

// SegmentationOptions returns options that also produce the pixel report
func SegmentationOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.Task = models.TaskSegmentation
	return opts
}

// OptionsForTask returns the default options for task
func OptionsForTask(task models.Task) AnalysisOptions {
	if task == models.TaskSegmentation {
		return SegmentationOptions()
	}
	return DefaultOptions()
}

// WithConfidence sets the model threshold
func (opts AnalysisOptions) WithConfidence(confidence float64) AnalysisOptions {
	opts.Confidence = confidence
	return opts
}

// WithDisplayRanking enables the display heuristic with the given parameters
func (opts AnalysisOptions) WithDisplayRanking(display DisplayOptions) AnalysisOptions {
	opts.IncludeDisplayRanking = true
	opts.Display = display
	return opts
}
