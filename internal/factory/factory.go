package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anime-shed/waste-inspector-go/internal/config"
	"github.com/anime-shed/waste-inspector-go/internal/inference"
	"github.com/anime-shed/waste-inspector-go/internal/storage"
)

// BackendType represents the inference backends
type BackendType string

const (
	// HTTPBackend forwards images to a model server
	HTTPBackend BackendType = "http"
	// StaticBackend returns canned outputs
	StaticBackend BackendType = "static"
)

// StorageType represents the artifact store backends
type StorageType string

const (
	// LocalStorage writes artifacts to a directory
	LocalStorage StorageType = "local"
	// AzureStorage writes artifacts to an Azure blob container
	AzureStorage StorageType = "azure"
	// S3Storage writes artifacts to an S3-compatible bucket
	S3Storage StorageType = "s3"
)

// ArtifactBaseURL is the route local artifacts are served from
const ArtifactBaseURL = "/artifacts"

// BackendFactory creates inference backends
type BackendFactory interface {
	CreateBackend(backendType BackendType) (inference.Backend, error)
}

// StorageFactory creates image sources and artifact stores
type StorageFactory interface {
	CreateArtifactStore(ctx context.Context, storageType StorageType) (storage.ArtifactStore, error)
	CreateImageFetcher() storage.ImageFetcher
	// CreateBlobStorage returns nil without error when no Azure account is configured
	CreateBlobStorage() (storage.BlobStorage, error)
}

type backendFactory struct {
	cfg *config.Config
}

// NewBackendFactory creates a new backend factory
func NewBackendFactory(cfg *config.Config) BackendFactory {
	return &backendFactory{cfg: cfg}
}

// CreateBackend creates a backend based on the specified type
func (f *backendFactory) CreateBackend(backendType BackendType) (inference.Backend, error) {
	switch BackendType(strings.ToLower(string(backendType))) {
	case HTTPBackend:
		return inference.NewHTTPBackend(f.cfg.InferenceURL, f.cfg.InferenceTimeout), nil
	case StaticBackend:
		return inference.NewStaticBackend(), nil
	default:
		return nil, fmt.Errorf("unsupported inference backend: %s", backendType)
	}
}

type storageFactory struct {
	cfg   *config.Config
	azure *storage.AzureStorage
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateArtifactStore creates an artifact store based on the specified type
func (f *storageFactory) CreateArtifactStore(ctx context.Context, storageType StorageType) (storage.ArtifactStore, error) {
	switch StorageType(strings.ToLower(string(storageType))) {
	case LocalStorage:
		return storage.NewLocalArtifactStore(f.cfg.ArtifactDir, ArtifactBaseURL)
	case AzureStorage:
		return f.azureStorage()
	case S3Storage:
		store, err := storage.NewS3ArtifactStore(f.cfg.S3Endpoint, f.cfg.S3AccessKey, f.cfg.S3SecretKey, f.cfg.S3Bucket, f.cfg.S3UseSSL)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported artifact store: %s", storageType)
	}
}

// CreateImageFetcher creates the HTTP source image fetcher
func (f *storageFactory) CreateImageFetcher() storage.ImageFetcher {
	return storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxRequestBodySize)
}

func (f *storageFactory) CreateBlobStorage() (storage.BlobStorage, error) {
	if f.cfg.AzureAccountName == "" || f.cfg.AzureAccountKey == "" {
		return nil, nil
	}
	return f.azureStorage()
}

// azureStorage shares one client between the blob source and the artifact store
func (f *storageFactory) azureStorage() (*storage.AzureStorage, error) {
	if f.azure != nil {
		return f.azure, nil
	}
	s, err := storage.NewAzureStorage(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.AzureContainer)
	if err != nil {
		return nil, err
	}
	f.azure = s
	return s, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	BackendFactory BackendFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		BackendFactory: NewBackendFactory(cfg),
		StorageFactory: NewStorageFactory(cfg),
	}
}
