package container

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	"github.com/anime-shed/waste-inspector-go/internal/catalog"
	"github.com/anime-shed/waste-inspector-go/internal/config"
	"github.com/anime-shed/waste-inspector-go/internal/factory"
	"github.com/anime-shed/waste-inspector-go/internal/inference"
	"github.com/anime-shed/waste-inspector-go/internal/logger"
	"github.com/anime-shed/waste-inspector-go/internal/observer"
	"github.com/anime-shed/waste-inspector-go/internal/render"
	"github.com/anime-shed/waste-inspector-go/internal/repository"
	"github.com/anime-shed/waste-inspector-go/internal/service"
	"github.com/anime-shed/waste-inspector-go/internal/storage"
	"github.com/anime-shed/waste-inspector-go/internal/strategy"
	"github.com/anime-shed/waste-inspector-go/internal/transport"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
	"github.com/anime-shed/waste-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config           *config.Config
	catalog          *catalog.Catalog
	backend          inference.Backend
	artifacts        storage.ArtifactStore
	reports          repository.ReportRepository
	events           *observer.EventPublisher
	detectionService service.DetectionService
	handler          http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	cat := catalog.Default()
	if cfg.CatalogFile != "" {
		var err error
		if cat, err = catalog.LoadFile(cfg.CatalogFile); err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
	}
	if _, err := cat.Index(cfg.DisplayAnchorCategory); err != nil {
		logger.WithError(err).WithField("anchor", cfg.DisplayAnchorCategory).
			Warn("Display anchor category is not in the catalog; ranking falls back to the scaled largest category")
	}

	components := factory.NewComponentFactory(cfg)

	backend, err := components.BackendFactory.CreateBackend(factory.BackendType(cfg.InferenceBackend))
	if err != nil {
		return nil, err
	}

	artifacts, err := components.StorageFactory.CreateArtifactStore(ctx, factory.StorageType(cfg.ArtifactStore))
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}
	blobs, err := components.StorageFactory.CreateBlobStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to create blob storage: %w", err)
	}
	images := repository.NewImageRepository(
		components.StorageFactory.CreateImageFetcher(),
		blobs,
		validation.NewSourceValidator(),
	)

	reports, err := repository.NewBadgerReportRepository(cfg.ReportDBDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open report repository: %w", err)
	}

	metricsObserver := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metricsObserver)

	detectionService := service.NewDetectionService(service.Dependencies{
		Catalog:    cat,
		Images:     images,
		Backend:    backend,
		Strategies: strategy.NewRegistry(analyzer.NewDetectionAnalyzer(cat)),
		Renderer:   render.NewRenderer(cat, cfg.RenderMaxWidth),
		Artifacts:  artifacts,
		Reports:    reports,
		Events:     events,
	}, service.Settings{
		ModelPaths: map[models.Task]string{
			models.TaskDetection:    cfg.DetectionModel,
			models.TaskSegmentation: cfg.SegmentationModel,
		},
		DefaultConfidencePct: cfg.DefaultConfidence,
		InferenceTimeout:     cfg.InferenceTimeout,
		DisplayRanking:       cfg.DisplayRanking,
		Display: analyzer.DisplayOptions{
			AnchorCategory: cfg.DisplayAnchorCategory,
			AnchorScale:    cfg.DisplayAnchorScale,
		},
	})

	handler := transport.NewHandler(detectionService, transport.Options{
		MaxRequestBodySize:   cfg.MaxRequestBodySize,
		RequestTimeout:       cfg.RequestTimeout,
		DefaultConfidencePct: cfg.DefaultConfidence,
		Artifacts:            artifacts,
		Stats:                metricsObserver.GetMetrics,
	})

	return &Container{
		config:           cfg,
		catalog:          cat,
		backend:          backend,
		artifacts:        artifacts,
		reports:          reports,
		events:           events,
		detectionService: detectionService,
		handler:          handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// DetectionService returns the detection service
func (c *Container) DetectionService() service.DetectionService {
	return c.detectionService
}

// Backend returns the inference backend
func (c *Container) Backend() inference.Backend {
	return c.backend
}

// Close flushes pending events and closes the report store
func (c *Container) Close() error {
	c.events.Wait()
	return c.reports.Close()
}
