// Package storage wraps the object store holding product image bytes.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"furnishop/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignExpiry bounds how long a delegated upload URL stays valid.
const PresignExpiry = time.Hour

// UploadedImage is the blob store's answer to a successful upload: the bare
// object key and the retrievable public URL.
type UploadedImage struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// PresignedUpload carries everything a client needs to upload directly.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	URL       string `json:"url"`
}

// BlobStore is the object-storage capability consumed by the image service.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (UploadedImage, error)
	Delete(ctx context.Context, key string) error
	PresignPut(ctx context.Context, key string) (string, error)
	PublicURL(key string) string
	// HostSuffix identifies this store's URLs, used to recognize legacy
	// records whose key field holds a full URL.
	HostSuffix() string
	Configured() bool
	Bucket() string
	Region() string
}

// S3Store implements BlobStore against any S3-compatible endpoint.
type S3Store struct {
	client *minio.Client
	cfg    config.S3Config
}

// NewS3Store builds a client for the configured bucket. An empty endpoint
// means AWS proper.
func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("s3.%s.amazonaws.com", cfg.Region)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: &http.Transport{ResponseHeaderTimeout: 30 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &S3Store{client: client, cfg: cfg}, nil
}

// Put uploads bytes under key and returns the key/URL pair.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (UploadedImage, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return UploadedImage{}, fmt.Errorf("failed to upload object: %w", err)
	}

	return UploadedImage{Key: key, URL: s.PublicURL(key)}, nil
}

// Delete removes the object under key.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// PresignPut returns a temporary URL the client can PUT the object to.
func (s *S3Store) PresignPut(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.cfg.Bucket, key, PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}

	return u.String(), nil
}

// PublicURL resolves the retrievable address for an object key. Bucket
// policy is expected to allow public reads.
func (s *S3Store) PublicURL(key string) string {
	if s.cfg.Endpoint != "" {
		scheme := "https"
		if !s.cfg.UseSSL {
			scheme = "http"
		}
		return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *S3Store) HostSuffix() string {
	if s.cfg.Endpoint != "" {
		return s.cfg.Endpoint
	}
	return "amazonaws.com"
}

// Configured reports whether credentials and a bucket are present.
func (s *S3Store) Configured() bool {
	return s.cfg.AccessKey != "" && s.cfg.SecretKey != "" && s.cfg.Bucket != ""
}

func (s *S3Store) Bucket() string { return s.cfg.Bucket }
func (s *S3Store) Region() string { return s.cfg.Region }
