package service

import (
	"context"
	"fmt"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/adapters/eventlog/flatfile"
	"github.com/okian/levelup/internal/adapters/eventlog/sqlite"
)

// StoreConfig selects and configures the event log.
type StoreConfig struct {
	Driver string
	// Path is the csv directory or the sqlite file.
	Path string

	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// OpenStore builds the event log named by cfg.Driver.
func OpenStore(ctx context.Context, cfg StoreConfig) (eventlog.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return eventlog.NewMemoryStore(), nil
	case "csv":
		backend, err := flatfile.NewDirBackend(cfg.Path)
		if err != nil {
			return nil, err
		}
		return flatfile.NewStore(backend), nil
	case "s3":
		client, err := flatfile.NewS3Client(ctx, flatfile.S3Options{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		backend, err := flatfile.NewS3Backend(client, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
		return flatfile.NewStore(backend), nil
	case "sqlite":
		return sqlite.Open(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
