package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

// ArtifactStore keeps rendered detection images
type ArtifactStore interface {
	// Put stores data under name and returns the URL it can be read from
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Get returns the stored bytes for name
	Get(ctx context.Context, name string) ([]byte, error)
}

// ValidateArtifactName rejects names that could escape the store root
func ValidateArtifactName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return apperrors.NewValidationError("invalid artifact name", nil).WithDetails("name=%s", name)
	}
	return nil
}

// LocalArtifactStore writes artifacts into a directory served by the API
type LocalArtifactStore struct {
	dir     string
	baseURL string
}

// NewLocalArtifactStore creates dir if needed. baseURL prefixes returned
// URLs, e.g. "/artifacts".
func NewLocalArtifactStore(dir, baseURL string) (*LocalArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalArtifactStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalArtifactStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ValidateArtifactName(name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", apperrors.NewInternalError("create artifact", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", apperrors.NewInternalError("write artifact", err)
	}
	if err := tmp.Close(); err != nil {
		return "", apperrors.NewInternalError("close artifact", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", apperrors.NewInternalError("publish artifact", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *LocalArtifactStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateArtifactName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewNotFoundError("artifact not found", err)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("read artifact", err)
	}
	return data, nil
}
