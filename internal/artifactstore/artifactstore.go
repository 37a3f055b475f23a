package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var ErrNotFound = errors.New("artifact not found")

// Store holds image payloads at deterministic path keys.
type Store interface {
	// Put writes data at path and returns a URL the artifact can be fetched from.
	Put(ctx context.Context, path, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, path string) error
}

// Reader is implemented by stores that can serve artifacts back themselves.
type Reader interface {
	Open(ctx context.Context, path string) (io.ReadCloser, string, error)
}

// OriginalPath is the key of the uploaded original image.
func OriginalPath(userID, originalID string) string {
	return fmt.Sprintf("users/%s/originals/%s.jpg", userID, originalID)
}

// GeneratedPath is the key of the model-generated image.
func GeneratedPath(userID, generatedID string) string {
	return fmt.Sprintf("users/%s/generated/%s.jpg", userID, generatedID)
}
