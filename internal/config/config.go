package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	ImageFetchTimeout  time.Duration
	InferenceTimeout   time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Inference backend
	InferenceBackend  string // "http" or "static"
	InferenceURL      string
	DetectionModel    string
	SegmentationModel string
	DefaultConfidence int // slider percent, 25..100
	CatalogFile       string

	// Output artifacts
	ArtifactStore    string // "local", "azure" or "s3"
	ArtifactDir      string
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3UseSSL         bool
	RenderMaxWidth   int
	ReportDBDir      string

	// Display heuristic
	DisplayRanking        bool
	DisplayAnchorCategory string
	DisplayAnchorScale    float64
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ModelPath returns the configured weights path for a task name
func (c *Config) ModelPath(task string) string {
	if task == "segmentation" {
		return c.SegmentationModel
	}
	return c.DetectionModel
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		ImageFetchTimeout:  parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", 15*time.Second),
		InferenceTimeout:   parseDurationOrDefault("INFERENCE_TIMEOUT", 45*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),

		InferenceBackend:  strings.ToLower(getEnvOrDefault("INFERENCE_BACKEND", "http")),
		InferenceURL:      getEnvOrDefault("INFERENCE_URL", "http://localhost:5000/predict"),
		DetectionModel:    os.Getenv("DETECTION_MODEL"),
		SegmentationModel: os.Getenv("SEGMENTATION_MODEL"),
		DefaultConfidence: int(parseIntOrDefault("DEFAULT_CONFIDENCE", 40)),
		CatalogFile:       os.Getenv("CATALOG_FILE"),

		ArtifactStore:    strings.ToLower(getEnvOrDefault("ARTIFACT_STORE", "local")),
		ArtifactDir:      getEnvOrDefault("ARTIFACT_DIR", "./artifacts"),
		AzureAccountName: os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:  os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:   getEnvOrDefault("AZURE_CONTAINER", "detections"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		S3AccessKey:      os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("S3_SECRET_KEY"),
		S3Bucket:         getEnvOrDefault("S3_BUCKET", "detections"),
		S3UseSSL:         parseBoolOrDefault("S3_USE_SSL", true),
		RenderMaxWidth:   int(parseIntOrDefault("RENDER_MAX_WIDTH", 1280)),
		ReportDBDir:      os.Getenv("REPORT_DB_DIR"),

		DisplayRanking:        parseBoolOrDefault("DISPLAY_RANKING", false),
		DisplayAnchorCategory: getEnvOrDefault("DISPLAY_ANCHOR_CATEGORY", "Garbage"),
		DisplayAnchorScale:    parseFloatOrDefault("DISPLAY_ANCHOR_SCALE", 1.2),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.InferenceTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, inference=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.InferenceTimeout)
	}
	if c.DefaultConfidence < 25 || c.DefaultConfidence > 100 {
		return fmt.Errorf("DEFAULT_CONFIDENCE must be within 25..100 (got %d)", c.DefaultConfidence)
	}
	switch c.InferenceBackend {
	case "http":
		if strings.TrimSpace(c.InferenceURL) == "" {
			return fmt.Errorf("INFERENCE_URL is required for the http backend")
		}
	case "static":
	default:
		return fmt.Errorf("unsupported INFERENCE_BACKEND: %q", c.InferenceBackend)
	}
	switch c.ArtifactStore {
	case "local":
		if strings.TrimSpace(c.ArtifactDir) == "" {
			return fmt.Errorf("ARTIFACT_DIR is required for the local artifact store")
		}
	case "azure":
		if c.AzureAccountName == "" || c.AzureAccountKey == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY are required for the azure artifact store")
		}
	case "s3":
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 artifact store")
		}
	default:
		return fmt.Errorf("unsupported ARTIFACT_STORE: %q", c.ArtifactStore)
	}
	if c.DisplayAnchorScale <= 0 {
		return fmt.Errorf("DISPLAY_ANCHOR_SCALE must be > 0 (got %g)", c.DisplayAnchorScale)
	}
	if c.RenderMaxWidth < 0 {
		return fmt.Errorf("RENDER_MAX_WIDTH must be >= 0 (got %d)", c.RenderMaxWidth)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
