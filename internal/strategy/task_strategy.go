package strategy

import (
	"fmt"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// TaskStrategy turns backend outputs into statistics for one model task
type TaskStrategy interface {
	Analyze(outputs []models.InferenceOutput, options analyzer.AnalysisOptions) (*analyzer.Result, error)
	Task() models.Task
	GetStrategyName() string
}

// DetectionStrategy reports box areas only
type DetectionStrategy struct {
	analyzer analyzer.DetectionAnalyzer
}

// NewDetectionStrategy creates a new detection strategy
func NewDetectionStrategy(a analyzer.DetectionAnalyzer) TaskStrategy {
	return &DetectionStrategy{analyzer: a}
}

// Analyze ignores any masks the backend returned
func (s *DetectionStrategy) Analyze(outputs []models.InferenceOutput, options analyzer.AnalysisOptions) (*analyzer.Result, error) {
	options.Task = models.TaskDetection
	return s.analyzer.Analyze(outputs, options)
}

func (s *DetectionStrategy) Task() models.Task { return models.TaskDetection }

// GetStrategyName returns the strategy name
func (s *DetectionStrategy) GetStrategyName() string {
	return "detection"
}

// SegmentationStrategy reports box areas and mask pixel statistics
type SegmentationStrategy struct {
	analyzer analyzer.DetectionAnalyzer
}

// NewSegmentationStrategy creates a new segmentation strategy
func NewSegmentationStrategy(a analyzer.DetectionAnalyzer) TaskStrategy {
	return &SegmentationStrategy{analyzer: a}
}

func (s *SegmentationStrategy) Analyze(outputs []models.InferenceOutput, options analyzer.AnalysisOptions) (*analyzer.Result, error) {
	options.Task = models.TaskSegmentation
	return s.analyzer.Analyze(outputs, options)
}

func (s *SegmentationStrategy) Task() models.Task { return models.TaskSegmentation }

// GetStrategyName returns the strategy name
func (s *SegmentationStrategy) GetStrategyName() string {
	return "segmentation"
}

// Registry resolves the strategy for a task
type Registry struct {
	strategies map[models.Task]TaskStrategy
}

// NewRegistry registers the detection and segmentation strategies
func NewRegistry(a analyzer.DetectionAnalyzer) *Registry {
	r := &Registry{strategies: make(map[models.Task]TaskStrategy)}
	r.Register(NewDetectionStrategy(a))
	r.Register(NewSegmentationStrategy(a))
	return r
}

// Register adds or replaces the strategy for its task
func (r *Registry) Register(s TaskStrategy) {
	r.strategies[s.Task()] = s
}

// ForTask returns the strategy registered for task
func (r *Registry) ForTask(task models.Task) (TaskStrategy, error) {
	s, ok := r.strategies[task]
	if !ok {
		return nil, fmt.Errorf("no strategy for task %q", task)
	}
	return s, nil
}
