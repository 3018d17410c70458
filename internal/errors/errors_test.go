package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"network", NewNetworkError("down", nil), ErrorTypeNetwork, http.StatusBadGateway},
		{"processing", NewProcessingError("oops", nil), ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"model load", NewModelLoadError("weights/best.pt", nil), ErrorTypeModelLoad, http.StatusServiceUnavailable},
		{"image decode", NewImageDecodeError("not an image", nil), ErrorTypeImageDecode, http.StatusBadRequest},
		{"category index", NewCategoryIndexError(40, 37), ErrorTypeCategoryIndex, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantStatus, GetStatusCode(tt.err))
		})
	}
}

func TestModelLoadError_CarriesPath(t *testing.T) {
	err := NewModelLoadError("/models/seg.pt", fmt.Errorf("no such file"))

	assert.Contains(t, err.Error(), "/models/seg.pt")
	assert.Contains(t, err.Error(), "no such file")
}

func TestIsType_WrappedError(t *testing.T) {
	base := NewCategoryIndexError(-1, 37)
	wrapped := fmt.Errorf("pixel counts: %w", base)

	assert.True(t, IsType(wrapped, ErrorTypeCategoryIndex))
	assert.False(t, IsType(wrapped, ErrorTypeValidation))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(wrapped))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, base, appErr)
}

func TestGetStatusCode_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(fmt.Errorf("plain")))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeInternal))
}

func TestWithDetails_DoesNotMutateOriginal(t *testing.T) {
	orig := NewValidationError("bad confidence", nil)
	detailed := orig.WithDetails("value=%d", 12)

	assert.Empty(t, orig.Details)
	assert.Equal(t, "value=12", detailed.Details)
	assert.Contains(t, detailed.Error(), "value=12")
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewNetworkError("fetch failed", cause)

	assert.Equal(t, cause, err.Unwrap())
}
