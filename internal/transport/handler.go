package transport

import (
	"context"
	_ "embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/waste-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/internal/logger"
	"github.com/anime-shed/waste-inspector-go/internal/service"
	"github.com/anime-shed/waste-inspector-go/internal/storage"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
	"github.com/anime-shed/waste-inspector-go/pkg/validation"
)

//go:embed ui/index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

const multipartMemory = 32 << 20

// Options configures the HTTP surface
type Options struct {
	MaxRequestBodySize   int64
	RequestTimeout       time.Duration
	DefaultConfidencePct int
	// Artifacts serves /artifacts/:name; nil disables the route
	Artifacts storage.ArtifactStore
	// Stats adds counters to the health response
	Stats func() map[string]interface{}
}

type handler struct {
	svc  service.DetectionService
	opts Options
}

// NewHandler builds the gin router
func NewHandler(svc service.DetectionService, opts Options) http.Handler {
	if opts.DefaultConfidencePct == 0 {
		opts.DefaultConfidencePct = analyzer.DefaultConfidencePercent
	}
	h := &handler{svc: svc, opts: opts}

	r := gin.Default()

	r.Use(
		requestMetrics(),
		requestSizeLimiter(opts.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/", h.index)
	r.GET("/health", h.healthCheck)
	r.GET("/catalog", h.catalog)
	r.POST("/detect", h.detectUpload)
	r.POST("/detect/url", h.detectURL)
	r.POST("/summaries", h.summaries)
	r.GET("/reports", h.listReports)
	r.GET("/reports/:id", h.getReport)
	if opts.Artifacts != nil {
		r.GET("/artifacts/:name", h.artifact)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (h *handler) index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	err := indexTemplate.Execute(c.Writer, map[string]int{
		"MinConfidence":     analyzer.MinConfidencePercent,
		"MaxConfidence":     analyzer.MaxConfidencePercent,
		"DefaultConfidence": h.opts.DefaultConfidencePct,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to render index page")
	}
}

func (h *handler) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	body := gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := h.svc.Health(ctx); err != nil {
		body["status"] = "degraded"
		body["inference"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if h.opts.Stats != nil {
		body["stats"] = h.opts.Stats()
	}
	c.JSON(status, body)
}

func (h *handler) catalog(c *gin.Context) {
	names := h.svc.Catalog().Names()
	c.JSON(http.StatusOK, models.CatalogResponse{Categories: names, Count: len(names)})
}

// detectUpload handles the UI form: multipart with file or url plus settings
func (h *handler) detectUpload(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respondError(c, "invalid form", requestBodyError(err))
		return
	}
	source, err := validation.ParseSource(c.DefaultPostForm("source", validation.SourceUpload))
	if err != nil {
		respondError(c, "invalid source", err)
		return
	}
	task, err := models.ParseTask(c.PostForm("task"))
	if err != nil {
		respondError(c, "invalid task", apperrors.NewValidationError(err.Error(), nil))
		return
	}
	pct, err := parseConfidence(c.PostForm("confidence"))
	if err != nil {
		respondError(c, "invalid confidence", err)
		return
	}

	req := service.DetectRequest{
		Source:         source,
		Task:           task,
		ConfidencePct:  pct,
		DisplayRanking: c.PostForm("display_ranking") == "true",
	}

	if source == validation.SourceUpload {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			respondError(c, "image file is required", requestBodyError(err))
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			respondError(c, "cannot read upload", apperrors.NewValidationError("cannot open upload", err))
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			respondError(c, "cannot read upload", requestBodyError(err))
			return
		}
		req.Filename = fileHeader.Filename
		req.Data = data
	} else {
		req.URL = c.PostForm("url")
	}

	h.runDetect(ctx, c, req)
}

func (h *handler) detectURL(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.opts.RequestTimeout)
	defer cancel()

	var body models.URLDetectionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, "invalid request format", requestBodyError(err))
		return
	}
	source, err := validation.ParseSource(body.Source)
	if err != nil || source == validation.SourceUpload {
		respondError(c, "invalid source", apperrors.NewValidationError("source must be url or azure", err))
		return
	}
	task, err := models.ParseTask(body.Task)
	if err != nil {
		respondError(c, "invalid task", apperrors.NewValidationError(err.Error(), nil))
		return
	}
	req := service.DetectRequest{
		Source:         source,
		URL:            body.URL,
		Task:           task,
		DisplayRanking: body.DisplayRanking,
	}
	if body.ConfidencePct != nil {
		if _, err := validation.ScaleConfidence(*body.ConfidencePct); err != nil {
			respondError(c, "invalid confidence", err)
			return
		}
		req.ConfidencePct = *body.ConfidencePct
	}

	h.runDetect(ctx, c, req)
}

func (h *handler) runDetect(ctx context.Context, c *gin.Context, req service.DetectRequest) {
	startTime := time.Now()
	logger.WithFields(logrus.Fields{
		"source": req.Source,
		"task":   req.Task,
		"file":   req.Filename,
		"url":    req.URL,
		"ip":     c.ClientIP(),
	}).Info("Processing detection request")

	report, err := h.svc.Detect(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !apperrors.IsType(err, apperrors.ErrorTypeTimeout) {
			err = apperrors.NewTimeoutError("detection timed out", err)
		}
		respondError(c, "detection failed", err)
		return
	}

	logger.WithFields(logrus.Fields{
		"report_id":          report.ID,
		"image_id":           report.ImageID,
		"task":               report.Task,
		"detections":         len(report.Detections),
		"processing_time_ms": time.Since(startTime).Milliseconds(),
	}).Info("Detection completed successfully")

	c.JSON(http.StatusOK, report)
}

func (h *handler) summaries(c *gin.Context) {
	var body models.SummaryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, "invalid request format", requestBodyError(err))
		return
	}
	summaries, err := h.svc.Summarize(c.Request.Context(), body.Images, body.NonZero)
	if err != nil {
		respondError(c, "summary failed", err)
		return
	}
	c.JSON(http.StatusOK, models.SummaryResponse{Summaries: summaries})
}

func (h *handler) listReports(c *gin.Context) {
	reports, err := h.svc.ListReports(c.Request.Context(), c.Query("image_id"))
	if err != nil {
		respondError(c, "cannot list reports", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports, "count": len(reports)})
}

func (h *handler) getReport(c *gin.Context) {
	report, err := h.svc.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "cannot load report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *handler) artifact(c *gin.Context) {
	data, err := h.opts.Artifacts.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		respondError(c, "cannot load artifact", err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// parseConfidence reads the slider value; empty means the configured default
func parseConfidence(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	pct, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("confidence must be an integer percent", err)
	}
	if _, err := validation.ScaleConfidence(pct); err != nil {
		return 0, err
	}
	return pct, nil
}

// requestBodyError maps body read failures to 413 or 400
func requestBodyError(err error) error {
	var maxErr *http.MaxBytesError
	// multipart parsing does not always wrap the limit error
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return &apperrors.AppError{
			Type:       apperrors.ErrorTypeValidation,
			Message:    "request body too large",
			StatusCode: http.StatusRequestEntityTooLarge,
			Cause:      err,
		}
	}
	return apperrors.NewValidationError("invalid request body", err)
}
