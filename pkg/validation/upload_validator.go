package validation

import (
	"fmt"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateUpload checks the uploaded file name and size before decoding.
// The bytes themselves are checked by the decoder.
func ValidateUpload(filename string, size, maxSize int64) error {
	if size <= 0 {
		return apperrors.NewValidationError("uploaded file is empty", nil)
	}
	if maxSize > 0 && size > maxSize {
		return apperrors.NewValidationError("uploaded file too large", nil).
			WithDetails("size=%d max=%d", size, maxSize)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return apperrors.NewValidationError("only jpg, jpeg and png uploads are accepted", nil).
			WithDetails("file=%s", filename)
	}
	return nil
}

// ScaleConfidence converts a slider percent (25..100) to a model threshold
func ScaleConfidence(percent int) (float64, error) {
	if percent < 25 || percent > 100 {
		return 0, apperrors.NewValidationError(
			fmt.Sprintf("confidence must be between 25 and 100, got %d", percent), nil)
	}
	return float64(percent) / 100, nil
}
