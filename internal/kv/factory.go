package kv

import (
	"context"
	"fmt"

	"mskboard/internal/infra/kv/fs"
	"mskboard/internal/infra/kv/memory"
	"mskboard/internal/infra/kv/postgres"
	"mskboard/internal/infra/kv/s3"
	"mskboard/internal/infra/kv/sqlite"
)

// Config selects and parameterizes a slot backend. Only the fields for the
// chosen driver are consulted.
type Config struct {
	Driver          Driver
	Path            string // fs root directory or sqlite file
	DSN             string // postgres connection string
	Bucket          string
	Region          string
	Endpoint        string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// Open builds the backend described by cfg. An empty driver means memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case "", DriverMemory:
		store = NewMemory()
	case DriverFilesystem:
		store, err = wrap(fs.New(cfg.Path))
	case DriverSQLite:
		store, err = wrap(sqlite.Open(ctx, cfg.Path))
	case DriverPostgres:
		store, err = wrap(postgres.Open(ctx, cfg.DSN))
	case DriverS3:
		store, err = wrap(s3.New(ctx, s3.Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			Prefix:          cfg.Prefix,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			PathStyle:       cfg.PathStyle,
		}))
	default:
		return nil, fmt.Errorf("unknown kv driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s kv store: %w", cfg.Driver, err)
	}
	return store, nil
}

// NewMemory returns an empty in-process slot.
func NewMemory() Store { return memory.New() }

// wrap converts a concrete constructor result into the interface without
// leaking a typed nil on failure.
func wrap[T Store](s T, err error) (Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
