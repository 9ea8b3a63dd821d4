// Package archive keeps raw uploaded document text in object storage so
// the original submission survives database edits.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store archives raw uploads in a MinIO (or S3-compatible) bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to object storage and ensures the bucket exists. The
// caller treats a nil store as disabled.
func New(cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object storage: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// PutDocument stores the raw text of a document under its ID.
func (s *Store) PutDocument(ctx context.Context, documentID, text string) error {
	reader := strings.NewReader(text)
	_, err := s.client.PutObject(ctx, s.bucket, objectName(documentID), reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("archive document %s: %w", documentID, err)
	}
	return nil
}

// RemoveDocument deletes the archived text for a document.
func (s *Store) RemoveDocument(ctx context.Context, documentID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName(documentID), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove archived document %s: %w", documentID, err)
	}
	return nil
}

func objectName(documentID string) string {
	return "documents/" + documentID + ".txt"
}
