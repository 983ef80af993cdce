// Package core defines the key-value slot abstraction backing the durable
// snapshot and the session record.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete slot backend implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory; they vanish on exit.
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverSQLite stores values in an embedded sqlite database file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores values in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
	// DriverS3 stores one object per key in an S3-compatible bucket.
	DriverS3 Driver = "s3"
)

// Drivers lists every supported driver.
func Drivers() []Driver {
	return []Driver{DriverMemory, DriverFilesystem, DriverSQLite, DriverPostgres, DriverS3}
}

// Store is a get/set/remove slot addressed by string keys. Set overwrites;
// Remove of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Driver() Driver
	Close() error
}

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")
