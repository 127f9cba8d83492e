package storage

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PictureStore persists uploaded profile pictures and returns a public URL.
type PictureStore interface {
	SavePicture(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
}

// MinioPictureStore implements PictureStore on a MinIO (or S3-compatible)
// bucket.
type MinioPictureStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// MinioConfig carries the connection settings for NewMinioPictureStore.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

// NewMinioPictureStore connects to MinIO and ensures the bucket exists.
func NewMinioPictureStore(ctx context.Context, cfg MinioConfig) (*MinioPictureStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioPictureStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// SavePicture uploads the object and returns its public URL.
func (s *MinioPictureStore) SavePicture(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return s.publicURL + "/" + s.bucket + "/" + objectName, nil
}
