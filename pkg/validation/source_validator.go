package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

// Image sources offered by the UI source selector
const (
	SourceUpload = "upload"
	SourceURL    = "url"
	SourceAzure  = "azure"
)

// SourceValidator checks remote image locations before anything is fetched
type SourceValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewSourceValidator accepts any http(s) host
func NewSourceValidator() *SourceValidator {
	return &SourceValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{},
	}
}

// NewSourceValidatorWithHosts restricts plain URL sources to the given hosts
func NewSourceValidatorWithHosts(hosts []string) *SourceValidator {
	v := NewSourceValidator()
	v.allowedHosts = hosts
	return v
}

// ParseSource normalizes the source selector value; empty means plain URL
func ParseSource(source string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "", SourceURL, "image url":
		return SourceURL, nil
	case SourceAzure, "blob":
		return SourceAzure, nil
	case SourceUpload, "image":
		return SourceUpload, nil
	default:
		return "", apperrors.NewValidationError("unknown image source", nil).WithDetails("source=%s", source)
	}
}

// Validate checks imageURL for the given source kind
func (v *SourceValidator) Validate(source, imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return apperrors.NewValidationError("image URL cannot be empty", nil)
	}

	parsed, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}
	if parsed.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	switch source {
	case SourceAzure:
		if parsed.Scheme != "https" {
			return apperrors.NewValidationError("blob URLs must use https", nil)
		}
		if !strings.HasSuffix(parsed.Hostname(), ".blob.core.windows.net") {
			return apperrors.NewValidationError("not an Azure blob host", nil).WithDetails("host=%s", parsed.Host)
		}
		if strings.Trim(parsed.Path, "/") == "" || parsed.Query().Get("blob") == "" {
			return apperrors.NewValidationError("blob URL needs a container path and a blob query parameter", nil)
		}
		return nil
	case SourceURL:
		if !contains(v.allowedSchemes, parsed.Scheme) {
			return apperrors.NewValidationError("URL scheme not allowed", nil).WithDetails("scheme=%s", parsed.Scheme)
		}
		if len(v.allowedHosts) > 0 && !contains(v.allowedHosts, parsed.Host) {
			return apperrors.NewValidationError("URL host not allowed", nil).WithDetails("host=%s", parsed.Host)
		}
		return nil
	default:
		return apperrors.NewValidationError("source does not take a URL", nil).WithDetails("source=%s", source)
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
