package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/casebuddy/casebuddy-api/pkg/config"
)

// ErrObjectNotFound is returned when a stored object does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// DocumentStore persists uploaded documents and generated files.
type DocumentStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// NewDocumentStore selects the backend configured in DOCUMENTS_STORAGE.
func NewDocumentStore(ctx context.Context, cfg config.DocumentsConfig) (DocumentStore, error) {
	switch strings.ToLower(cfg.Storage) {
	case "", BackendLocal:
		return NewLocalStorage(cfg.StorageDir)
	case BackendS3:
		if cfg.S3Bucket == "" {
			return nil, errors.New("DOCUMENTS_S3_BUCKET is required for s3 storage")
		}
		return NewS3Storage(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown document storage backend %q", cfg.Storage)
	}
}

// ObjectKey builds the storage key for a document: <owner>/<id>/<sanitised name>.
func ObjectKey(ownerID, documentID, filename string) string {
	name := filepath.Base(filename)
	name = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, name)
	if name == "." || name == "" {
		name = "upload"
	}
	return fmt.Sprintf("%s/%s/%s", ownerID, documentID, name)
}

// ContentType guesses the MIME type of a stored object from its extension.
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
