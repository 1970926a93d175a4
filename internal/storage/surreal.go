package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealConfig holds the connection settings for a SurrealDB instance.
type SurrealConfig struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}

var ErrSurrealQuery = errors.New("surrealdb query failed")

type kvRecord struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Surreal stores each value as a record of the kv table, keyed by its storage key.
type Surreal struct {
	db *surrealdb.DB
}

var _ Storage = (*Surreal)(nil)

// NewSurreal connects, signs in and selects the namespace and database.
func NewSurreal(ctx context.Context, cfg SurrealConfig) (*Surreal, error) {
	endpoint := fmt.Sprintf("ws://%s:%s", cfg.Host, cfg.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: cfg.User,
		Password: cfg.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("surrealdb signin failed: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = db.Close(ctx)
		return nil, fmt.Errorf("surrealdb use failed: %w", err)
	}
	return &Surreal{db: db}, nil
}

func (s *Surreal) Get(ctx context.Context, key string) (string, error) {
	results, err := surrealdb.Query[[]kvRecord](ctx, s.db,
		`SELECT key, value FROM type::thing('kv', $key)`,
		map[string]any{"key": key})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSurrealQuery, err)
	}
	if results == nil || len(*results) == 0 {
		return "", ErrNotFound
	}

	first := (*results)[0]
	if first.Status != "OK" {
		if first.Error != nil {
			return "", fmt.Errorf("%w: %s", ErrSurrealQuery, first.Error.Message)
		}
		return "", ErrSurrealQuery
	}
	if len(first.Result) == 0 {
		return "", ErrNotFound
	}
	return first.Result[0].Value, nil
}

func (s *Surreal) Set(ctx context.Context, key, value string) error {
	return s.exec(ctx,
		`UPSERT type::thing('kv', $key) CONTENT { key: $key, value: $value }`,
		map[string]any{"key": key, "value": value})
}

func (s *Surreal) Delete(ctx context.Context, key string) error {
	return s.exec(ctx, `DELETE type::thing('kv', $key)`, map[string]any{"key": key})
}

func (s *Surreal) Close() error {
	return s.db.Close(context.Background())
}

func (s *Surreal) exec(ctx context.Context, query string, vars map[string]any) error {
	results, err := surrealdb.Query[any](ctx, s.db, query, vars)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSurrealQuery, err)
	}
	if results == nil {
		return nil
	}
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return fmt.Errorf("%w: %s", ErrSurrealQuery, r.Error.Message)
			}
			return ErrSurrealQuery
		}
	}
	return nil
}
