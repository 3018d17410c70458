package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
	"github.com/anime-shed/waste-inspector-go/pkg/models"
)

// HTTPBackend forwards images to an external model server
type HTTPBackend struct {
	inferenceURL string
	client       *http.Client
}

// NewHTTPBackend creates a client for the model server at inferenceURL.
// Calls are bounded by timeout and never retried.
func NewHTTPBackend(inferenceURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		inferenceURL: inferenceURL,
		client:       &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Results []models.InferenceOutput `json:"results"`
}

// Predict posts the image as multipart form data and decodes the results
func (b *HTTPBackend) Predict(ctx context.Context, image []byte, req PredictRequest) ([]models.InferenceOutput, error) {
	if len(image) == 0 {
		return nil, apperrors.NewValidationError("no image data provided", nil)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	filename := req.Filename
	if filename == "" {
		filename = "image.jpg"
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	fields := map[string]string{
		"conf": strconv.FormatFloat(req.Confidence, 'f', 2, 64),
		"task": string(req.Task),
	}
	if req.ModelPath != "" {
		fields["model"] = req.ModelPath
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := b.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("inference timed out", err)
		}
		return nil, apperrors.NewNetworkError("inference request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("inference failed with status: %d", resp.StatusCode), nil).
			WithDetails("%s", strings.TrimSpace(string(snippet)))
	}

	var result predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.NewProcessingError("decode inference response", err)
	}
	if result.Results == nil {
		result.Results = []models.InferenceOutput{}
	}
	return result.Results, nil
}

// Health calls the model server's /health endpoint
func (b *HTTPBackend) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(b.inferenceURL), nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("inference backend unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewNetworkError(fmt.Sprintf("inference backend unhealthy: %d", resp.StatusCode), nil)
	}
	return nil
}

// healthURL swaps a trailing /predict for /health
func healthURL(inferenceURL string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(inferenceURL, "/"), "/predict")
	return base + "/health"
}
