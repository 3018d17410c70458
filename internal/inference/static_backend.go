package inference

import (
	"context"
	"sync"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// StaticBackend returns canned outputs regardless of the image. It backs
// offline runs and tests.
type StaticBackend struct {
	mu      sync.RWMutex
	outputs map[models.Task][]models.InferenceOutput
	calls   int
}

// NewStaticBackend creates a backend with no canned outputs
func NewStaticBackend() *StaticBackend {
	return &StaticBackend{outputs: make(map[models.Task][]models.InferenceOutput)}
}

// SetOutputs replaces the canned outputs for task
func (s *StaticBackend) SetOutputs(task models.Task, outputs []models.InferenceOutput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs[task] = outputs
}

// Predict returns the canned outputs for the task with detections under the
// confidence threshold removed
func (s *StaticBackend) Predict(_ context.Context, _ []byte, req PredictRequest) ([]models.InferenceOutput, error) {
	s.mu.Lock()
	s.calls++
	canned := s.outputs[req.Task]
	s.mu.Unlock()

	out := analyzer.FilterByConfidence(canned, req.Confidence)
	if req.Task != models.TaskSegmentation {
		for i := range out {
			out[i].Masks = nil
		}
	}
	return out, nil
}

// Health always succeeds
func (s *StaticBackend) Health(context.Context) error {
	return nil
}

// Calls returns how many times Predict ran
func (s *StaticBackend) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}
