// Package storage keeps receipt images behind a small object store
// interface so the API and the worker can share one bucket.
package storage

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/yosuketsuboi/kakeibo-app/pkg/config"
)

type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// FromConfig builds the store selected by the storage driver setting.
func FromConfig(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
		}, logger)
	case "local":
		return NewLocalStore(cfg.LocalDir, cfg.LocalURL, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
