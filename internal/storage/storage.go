// Package storage provides the key-value storage service the app state is
// persisted to. Values are opaque strings; callers serialize them as JSON.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Keys used by the app.
const (
	KeyUser      = "fora_user"
	KeyDarkMode  = "fora_dark_mode"
	KeyEvents    = "fora_events"
	KeySyncState = "fora_sync_state"
)

var (
	// ErrNotFound is returned by Get when the key has never been written or was deleted.
	ErrNotFound = errors.New("key not found")

	// ErrMalformed is returned by GetJSON when the stored value cannot be decoded.
	ErrMalformed = errors.New("malformed stored value")

	// ErrUnknownDriver is returned by Open for unsupported drivers.
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Storage is a string key-value store.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON reads key and decodes it into v.
// Missing keys yield ErrNotFound and undecodable values ErrMalformed.
func GetJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	return nil
}

// SetJSON encodes v and writes it under key.
func SetJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
