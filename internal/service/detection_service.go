package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/internal/inference"
	"github.com/anime-shed/waste-inspector-go/internal/logger"
	"github.com/anime-shed/waste-inspector-go/internal/observer"
	"github.com/anime-shed/waste-inspector-go/internal/render"
	"github.com/anime-shed/waste-inspector-go/internal/repository"
	"github.com/anime-shed/waste-inspector-go/internal/storage"
	"github.com/anime-shed/waste-inspector-go/internal/strategy"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
	"github.com/anime-shed/waste-inspector-go/pkg/validation"
)

// DetectRequest is one press of the Detect button
type DetectRequest struct {
	Source   string // validation.SourceUpload, SourceURL or SourceAzure
	Filename string
	Data     []byte
	URL      string

	Task           models.Task
	ConfidencePct  int // 0 selects the configured default
	DisplayRanking bool
}

// DetectionService defines the detect and summary operations
type DetectionService interface {
	Detect(ctx context.Context, req DetectRequest) (*models.DetectionReport, error)
	Summarize(ctx context.Context, results []models.ImageResult, nonZero bool) ([]models.Summary, error)
	GetReport(ctx context.Context, id string) (*models.DetectionReport, error)
	ListReports(ctx context.Context, imageID string) ([]*models.DetectionReport, error)
	Catalog() *catalog.Catalog
	Health(ctx context.Context) error
}

// Settings are the tunables the service reads from configuration
type Settings struct {
	ModelPaths           map[models.Task]string
	DefaultConfidencePct int
	InferenceTimeout     time.Duration
	DisplayRanking       bool
	Display              analyzer.DisplayOptions
}

// Dependencies groups the collaborators of the detection service.
// Renderer, Artifacts, Reports and Events are optional.
type Dependencies struct {
	Catalog    *catalog.Catalog
	Images     repository.ImageRepository
	Backend    inference.Backend
	Strategies *strategy.Registry
	Renderer   *render.Renderer
	Artifacts  storage.ArtifactStore
	Reports    repository.ReportRepository
	Events     observer.Subject
}

type detectionService struct {
	deps     Dependencies
	settings Settings
	now      func() time.Time
}

// NewDetectionService creates a new detection service
func NewDetectionService(deps Dependencies, settings Settings) DetectionService {
	if settings.DefaultConfidencePct == 0 {
		settings.DefaultConfidencePct = analyzer.DefaultConfidencePercent
	}
	if deps.Strategies == nil {
		deps.Strategies = strategy.NewRegistry(analyzer.NewDetectionAnalyzer(deps.Catalog))
	}
	return &detectionService{deps: deps, settings: settings, now: time.Now}
}

// stageError remembers where a detect action failed
type stageError struct {
	stage string
	err   error
}

func (s *detectionService) Detect(ctx context.Context, req DetectRequest) (*models.DetectionReport, error) {
	start := s.now()
	if req.Task == "" {
		req.Task = models.TaskDetection
	}
	s.publish(ctx, observer.DetectionEvent{EventType: observer.DetectionStarted, Task: string(req.Task), ImageID: req.Filename})

	report, serr := s.detect(ctx, req, start)
	if serr != nil {
		errType := "internal"
		if appErr, ok := apperrors.As(serr.err); ok {
			errType = string(appErr.Type)
		}
		s.publish(ctx, observer.DetectionEvent{
			EventType:    observer.DetectionFailed,
			Task:         string(req.Task),
			ImageID:      req.Filename,
			Duration:     s.now().Sub(start),
			Stage:        serr.stage,
			ErrorType:    errType,
			ErrorMessage: serr.err.Error(),
		})
		return nil, serr.err
	}

	s.publish(ctx, observer.DetectionEvent{
		EventType:  observer.DetectionCompleted,
		Task:       string(req.Task),
		ImageID:    report.ImageID,
		Duration:   s.now().Sub(start),
		Success:    true,
		Categories: instanceCounts(report.AreaReport),
		Metadata:   map[string]interface{}{"report_id": report.ID},
	})
	return report, nil
}

func (s *detectionService) detect(ctx context.Context, req DetectRequest, start time.Time) (*models.DetectionReport, *stageError) {
	pct := req.ConfidencePct
	if pct == 0 {
		pct = s.settings.DefaultConfidencePct
	}
	confidence, err := validation.ScaleConfidence(pct)
	if err != nil {
		return nil, &stageError{"validate", err}
	}
	if req.Task != models.TaskDetection && req.Task != models.TaskSegmentation {
		return nil, &stageError{"validate", apperrors.NewValidationError(fmt.Sprintf("unknown task %q", req.Task), nil)}
	}

	src, err := s.loadImage(ctx, req)
	if err != nil {
		return nil, &stageError{"image", err}
	}
	s.publish(ctx, observer.DetectionEvent{
		EventType: observer.ImageLoaded,
		Task:      string(req.Task),
		ImageID:   src.Name,
		Success:   true,
		Metadata:  map[string]interface{}{"width": src.Width, "height": src.Height},
	})

	modelPath := s.settings.ModelPaths[req.Task]
	if err := inference.LoadModel(req.Task, modelPath); err != nil {
		return nil, &stageError{"model", err}
	}

	inferCtx := ctx
	if s.settings.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, s.settings.InferenceTimeout)
		defer cancel()
	}
	inferStart := s.now()
	outputs, err := s.deps.Backend.Predict(inferCtx, src.Data, inference.PredictRequest{
		Task:       req.Task,
		Confidence: confidence,
		ModelPath:  modelPath,
		Filename:   src.Name,
	})
	if err != nil {
		return nil, &stageError{"inference", err}
	}
	s.publish(ctx, observer.DetectionEvent{
		EventType: observer.InferenceCompleted,
		Task:      string(req.Task),
		ImageID:   src.Name,
		Duration:  s.now().Sub(inferStart),
		Success:   true,
	})
	outputs = analyzer.FilterByConfidence(outputs, confidence)

	strat, err := s.deps.Strategies.ForTask(req.Task)
	if err != nil {
		return nil, &stageError{"analyze", apperrors.NewInternalError("no strategy", err)}
	}
	options := analyzer.OptionsForTask(req.Task).WithConfidence(confidence)
	if req.DisplayRanking || s.settings.DisplayRanking {
		options = options.WithDisplayRanking(s.settings.Display)
	}
	result, err := strat.Analyze(outputs, options)
	if err != nil {
		return nil, &stageError{"analyze", err}
	}

	report := &models.DetectionReport{
		ID:             uuid.NewString(),
		ImageID:        src.Name,
		Task:           req.Task,
		Confidence:     confidence,
		CreatedAt:      start.UTC(),
		ImageWidth:     src.Width,
		ImageHeight:    src.Height,
		Detections:     flattenBoxes(outputs),
		AreaReport:     result.Areas,
		PixelReport:    result.Pixels,
		DisplayRanking: result.Display,
	}
	if result.Pixels != nil {
		nz := result.Pixels.NonZero()
		report.NonZero = &nz
	}

	if s.deps.Renderer != nil && s.deps.Artifacts != nil {
		url, err := s.storeAnnotated(ctx, report.ID, src, outputs)
		if err != nil {
			// the statistics are still valid without the picture
			logger.WithError(err).WithField("report_id", report.ID).Warn("Failed to store annotated image")
			report.Errors = append(report.Errors, "annotated image unavailable: "+err.Error())
		} else {
			report.AnnotatedImageURL = url
		}
	}

	report.ProcessingTimeSec = s.now().Sub(start).Seconds()

	if s.deps.Reports != nil {
		if err := s.deps.Reports.Save(ctx, report); err != nil {
			logger.WithError(err).WithField("report_id", report.ID).Warn("Failed to save report")
			report.Errors = append(report.Errors, "report not saved: "+err.Error())
		}
	}

	return report, nil
}

func (s *detectionService) loadImage(ctx context.Context, req DetectRequest) (*repository.SourceImage, error) {
	source := req.Source
	if source == "" {
		if req.URL != "" {
			source = validation.SourceURL
		} else {
			source = validation.SourceUpload
		}
	}

	if source == validation.SourceUpload {
		if err := validation.ValidateUpload(req.Filename, int64(len(req.Data)), 0); err != nil {
			return nil, err
		}
		return s.deps.Images.LoadUpload(req.Filename, req.Data)
	}
	return s.deps.Images.FetchImage(ctx, source, req.URL)
}

func (s *detectionService) storeAnnotated(ctx context.Context, id string, src *repository.SourceImage, outputs []models.InferenceOutput) (string, error) {
	data, err := s.deps.Renderer.AnnotatePNG(src.Image, outputs)
	if err != nil {
		return "", err
	}
	return s.deps.Artifacts.Put(ctx, id+".png", render.ContentTypePNG, data)
}

// Summarize builds one summary per image. With nonZero set, categories that
// received no pixels are left out of each summary.
func (s *detectionService) Summarize(ctx context.Context, results []models.ImageResult, nonZero bool) ([]models.Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summaries, err := analyzer.GenerateSummary(results, s.deps.Catalog)
	if err != nil {
		return nil, err
	}
	if nonZero {
		for i := range summaries {
			summaries[i] = analyzer.NonZeroSummary(summaries[i])
		}
	}
	return summaries, nil
}

func (s *detectionService) GetReport(ctx context.Context, id string) (*models.DetectionReport, error) {
	if s.deps.Reports == nil {
		return nil, apperrors.NewNotFoundError("report history is disabled", nil)
	}
	return s.deps.Reports.Get(ctx, id)
}

func (s *detectionService) ListReports(ctx context.Context, imageID string) ([]*models.DetectionReport, error) {
	if s.deps.Reports == nil {
		return []*models.DetectionReport{}, nil
	}
	return s.deps.Reports.List(ctx, imageID)
}

func (s *detectionService) Catalog() *catalog.Catalog {
	return s.deps.Catalog
}

func (s *detectionService) Health(ctx context.Context) error {
	return s.deps.Backend.Health(ctx)
}

func (s *detectionService) publish(ctx context.Context, event observer.DetectionEvent) {
	if s.deps.Events != nil {
		s.deps.Events.NotifyObservers(ctx, event)
	}
}

func flattenBoxes(outputs []models.InferenceOutput) []models.Box {
	boxes := make([]models.Box, 0)
	for _, out := range outputs {
		boxes = append(boxes, out.Boxes...)
	}
	return boxes
}

func instanceCounts(areas []models.AreaEntry) map[string]int {
	counts := make(map[string]int)
	for _, a := range areas {
		counts[a.Category]++
	}
	return counts
}
