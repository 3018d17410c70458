package inference

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// PredictRequest carries the per-call model parameters
type PredictRequest struct {
	Task       models.Task
	Confidence float64
	ModelPath  string
	Filename   string
}

// Backend runs a detection or segmentation model over encoded image bytes
type Backend interface {
	Predict(ctx context.Context, image []byte, req PredictRequest) ([]models.InferenceOutput, error)
	Health(ctx context.Context) error
}

// LoadModel checks that the weights configured for task are usable. An
// empty path means the backend uses its own bundled weights.
func LoadModel(task models.Task, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewModelLoadError(path, err)
	}
	if !info.Mode().IsRegular() {
		return apperrors.NewModelLoadError(path, fmt.Errorf("%s weights are not a regular file", task))
	}
	if info.Size() == 0 {
		return apperrors.NewModelLoadError(path, fmt.Errorf("%s weights file is empty", task))
	}
	return nil
}
