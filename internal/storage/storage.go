package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"

	cfg "github.com/templui/ecoscan/internal/config"
)

var ErrNotFound = errors.New("object not found")

// Storage is the archive for quarantined activity blobs and exports.
type Storage interface {
	// Save stores the object at the given path, replacing any previous one
	Save(ctx context.Context, path string, r io.Reader) error

	// Open returns the object at path or ErrNotFound
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path
	Delete(ctx context.Context, path string) error
}

// New picks the archive backend from app config: an S3-compatible bucket
// when S3_BUCKET is set, the local ARCHIVE_PATH directory otherwise.
func New(c *cfg.Config) (Storage, error) {
	if !c.UsesS3() {
		slog.Info("initializing local archive storage", "path", c.ArchivePath)
		return NewLocalStorage(c.ArchivePath)
	}

	slog.Info("initializing S3 archive storage",
		"bucket", c.S3Bucket,
		"prefix", c.S3Prefix,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewS3Storage(S3Config{
		Region:    c.S3Region,
		Bucket:    c.S3Bucket,
		Prefix:    c.S3Prefix,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Endpoint:  c.S3Endpoint,
	})
}
