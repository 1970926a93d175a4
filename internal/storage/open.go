package storage

import (
	"context"
	"fmt"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSurreal  = "surreal"
)

// Options selects and configures a backend.
type Options struct {
	Driver  string
	Path    string // file driver
	DSN     string // postgres driver
	Surreal SurrealConfig
}

// Open builds the backend named by opts.Driver. An empty driver means file.
func Open(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile, "":
		path := opts.Path
		if path == "" {
			path = "fora-state.json"
		}
		return NewFile(path)
	case DriverPostgres:
		return NewPostgres(ctx, opts.DSN)
	case DriverSurreal:
		return NewSurreal(ctx, opts.Surreal)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
