// Package gcs stores artifacts in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/vbonduro/kissthem/internal/artifactstore"
)

const uploadTimeout = 50 * time.Second

type Store struct {
	client *storage.Client
	bucket string
}

// New creates a Store writing to bucket. Without options the client uses
// Application Default Credentials.
func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Store, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Store{client: client, bucket: bucket}, nil
}

func (s *Store) Put(ctx context.Context, path, contentType string, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	wc := s.client.Bucket(s.bucket).Object(path).NewWriter(ctx)
	wc.ContentType = contentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("failed to write object %s: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", path, err)
	}

	slog.Debug("artifact uploaded", "bucket", s.bucket, "path", path, "bytes", len(data))
	return ObjectURL(s.bucket, path), nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.client.Bucket(s.bucket).Object(path).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", artifactstore.ErrNotFound, path)
		}
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ObjectURL is the public URL of an object in a publicly readable bucket.
func ObjectURL(bucket, path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, (&url.URL{Path: path}).EscapedPath())
}
