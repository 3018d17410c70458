package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/internal/config"
	"github.com/anime-shed/waste-inspector-go/internal/factory"
	"github.com/anime-shed/waste-inspector-go/internal/inference"
	"github.com/anime-shed/waste-inspector-go/internal/logger"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
	"github.com/anime-shed/waste-inspector-go/pkg/validation"
)

func newDetectCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect IMAGE...",
		Short: "Run the inference backend over local images and print pixel summaries",
		Long: `Run the inference backend over local .jpg/.jpeg/.png images and print one
pixel summary per image. Images are sent concurrently, at most --concurrency
at a time. Any failure stops the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := runDetect(cmd.Context(), v, args)
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), v, summaries)
		},
	}

	flags := cmd.Flags()
	flags.String("backend", string(factory.HTTPBackend), "inference backend: http or static")
	flags.String("inference-url", "http://localhost:5000/predict", "model server predict endpoint")
	flags.Duration("inference-timeout", 45*time.Second, "per-image inference timeout")
	flags.String("static-outputs", "", "JSON array of inference outputs returned by the static backend")
	flags.String("task", string(models.TaskDetection), "detection or segmentation")
	flags.Int("confidence", analyzer.DefaultConfidencePercent, "confidence threshold percent (25-100)")
	flags.String("detection-model", "", "detection weights path passed to the backend")
	flags.String("segmentation-model", "", "segmentation weights path passed to the backend")
	flags.Int("concurrency", 4, "maximum concurrent backend calls")
	flags.Int64("max-size", 20*1024*1024, "maximum image size in bytes")
	flags.Bool("non-zero", false, "omit categories that received no pixels")

	return cmd
}

func runDetect(ctx context.Context, v *viper.Viper, paths []string) ([]models.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cat, err := loadCatalog(v)
	if err != nil {
		return nil, err
	}
	task, err := models.ParseTask(v.GetString("task"))
	if err != nil {
		return nil, err
	}
	confidence, err := validation.ScaleConfidence(v.GetInt("confidence"))
	if err != nil {
		return nil, err
	}

	cfg := &config.Config{
		InferenceURL:      v.GetString("inference-url"),
		InferenceTimeout:  v.GetDuration("inference-timeout"),
		DetectionModel:    v.GetString("detection-model"),
		SegmentationModel: v.GetString("segmentation-model"),
	}
	modelPath := cfg.ModelPath(string(task))
	if err := inference.LoadModel(task, modelPath); err != nil {
		return nil, err
	}

	backend, err := newBackend(v, cfg, task)
	if err != nil {
		return nil, err
	}

	limit := v.GetInt("concurrency")
	if limit < 1 {
		limit = 1
	}

	results := make([]models.ImageResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			req := inference.PredictRequest{
				Task:       task,
				Confidence: confidence,
				ModelPath:  modelPath,
				Filename:   filepath.Base(path),
			}
			outputs, err := predictFile(gctx, backend, path, req, v.GetInt64("max-size"), cfg.InferenceTimeout)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = models.ImageResult{ImageID: req.Filename, Outputs: outputs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return analyzer.GenerateSummary(results, cat)
}

func newBackend(v *viper.Viper, cfg *config.Config, task models.Task) (inference.Backend, error) {
	backend, err := factory.NewBackendFactory(cfg).CreateBackend(factory.BackendType(v.GetString("backend")))
	if err != nil {
		return nil, err
	}

	path := v.GetString("static-outputs")
	static, ok := backend.(*inference.StaticBackend)
	if !ok || path == "" {
		return backend, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static outputs: %w", err)
	}
	var outputs []models.InferenceOutput
	if err := json.Unmarshal(data, &outputs); err != nil {
		return nil, fmt.Errorf("parse static outputs %s: %w", path, err)
	}
	static.SetOutputs(task, outputs)
	return static, nil
}

func predictFile(ctx context.Context, backend inference.Backend, path string, req inference.PredictRequest, maxSize int64, timeout time.Duration) ([]models.InferenceOutput, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateUpload(req.Filename, info.Size(), maxSize); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	outputs, err := backend.Predict(ctx, data, req)
	if err != nil {
		return nil, err
	}
	logger.WithField("image_id", req.Filename).
		WithField("duration", time.Since(start)).
		Debug("Inference completed")

	return analyzer.FilterByConfidence(outputs, req.Confidence), nil
}
