package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

// BlobStorage downloads source images addressed by blob URL
type BlobStorage interface {
	FetchImage(ctx context.Context, blobURL string) ([]byte, error)
}

// AzureStorage reads source images from and writes artifacts to one account
type AzureStorage struct {
	client    *azblob.Client
	container string
}

// NewAzureStorage connects with a shared key. container receives artifacts.
func NewAzureStorage(accountName, accountKey, container string) (*AzureStorage, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureStorage{client: client, container: container}, nil
}

// FetchImage downloads a blob addressed as https://acct.blob.core.windows.net/<container>?blob=<name>
func (s *AzureStorage) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	containerName, blobName, err := parseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}
	return s.download(ctx, containerName, blobName)
}

// Put uploads an artifact into the configured container
func (s *AzureStorage) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ValidateArtifactName(name); err != nil {
		return "", err
	}
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return "", apperrors.NewNetworkError("upload artifact", err)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.client.URL(), "/"), s.container, url.PathEscape(name)), nil
}

// Get downloads an artifact from the configured container
func (s *AzureStorage) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateArtifactName(name); err != nil {
		return nil, err
	}
	return s.download(ctx, s.container, name)
}

func (s *AzureStorage) download(ctx context.Context, containerName, blobName string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
			return nil, apperrors.NewNotFoundError("blob not found", err)
		}
		return nil, apperrors.NewNetworkError("blob download failed", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, apperrors.NewNetworkError("read blob", err)
	}
	return buf.Bytes(), nil
}

func parseBlobURL(blobURL string) (string, string, error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}
	containerName := strings.Trim(parsed.Path, "/")
	blobName := parsed.Query().Get("blob")
	if containerName == "" || blobName == "" {
		return "", "", apperrors.NewValidationError("blob URL needs a container path and a blob query parameter", nil)
	}
	return containerName, blobName, nil
}
