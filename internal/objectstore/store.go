package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists opaque blobs and returns a URL clients can fetch them from.
type Store interface {
	Store(ctx context.Context, data []byte, contentType string) (string, error)
}

// FileStore writes blobs under a local directory served as static files.
type FileStore struct {
	Dir     string
	BaseURL string
}

func (f *FileStore) Store(_ context.Context, data []byte, contentType string) (string, error) {
	name := uuid.NewString() + extFor(contentType)
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", fmt.Errorf("object dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(f.Dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return strings.TrimSuffix(f.BaseURL, "/") + "/" + name, nil
}

func extFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
