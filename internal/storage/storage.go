package storage

import (
	"context"
	"io"
	"strings"
)

// ObjectStore persists uploaded artifacts and reports where clients can
// fetch them.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

func joinURL(base string, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
