package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	apperrors "github.com/anime-shed/waste-inspector-go/internal/errors"
)

// S3ArtifactStore keeps artifacts in an S3-compatible bucket
type S3ArtifactStore struct {
	client *minio.Client
	bucket string
}

// NewS3ArtifactStore connects to endpoint with static credentials
func NewS3ArtifactStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3ArtifactStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &S3ArtifactStore{client: client, bucket: bucket}, nil
}

// EnsureBucket creates the bucket when it does not exist
func (s *S3ArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return apperrors.NewNetworkError("check bucket", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return apperrors.NewNetworkError("create bucket", err)
	}
	return nil
}

func (s *S3ArtifactStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ValidateArtifactName(name); err != nil {
		return "", err
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if _, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return "", apperrors.NewNetworkError("upload artifact", err)
	}
	endpoint := s.client.EndpointURL()
	return fmt.Sprintf("%s/%s/%s", endpoint.String(), s.bucket, name), nil
}

func (s *S3ArtifactStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateArtifactName(name); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.NewNetworkError("get artifact", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, apperrors.NewNotFoundError("artifact not found", err)
		}
		return nil, apperrors.NewNetworkError("read artifact", err)
	}
	return data, nil
}
