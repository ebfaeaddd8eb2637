package documents

import (
	"context"
	"io"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// Storage keeps the raw uploaded bytes. Put returns the location recorded
// as File.RawPath.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type FileRepo interface {
	// CreateMany records all files in one transaction.
	CreateMany(ctx context.Context, files []domain.File) ([]domain.File, error)
	List(ctx context.Context) ([]domain.File, error)
}

// FormsSource lists the registrar's downloadable forms.
type FormsSource interface {
	Fetch(ctx context.Context) ([]domain.FormLink, error)
}
