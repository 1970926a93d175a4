package storage

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Postgres stores values in the kv table.
type Postgres struct {
	db *sqlx.DB
}

var _ Storage = (*Postgres)(nil)

// NewPostgres connects to dsn, waits for the database and applies the migrations.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.PingContext(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var val string
	err := p.db.GetContext(ctx, &val, `SELECT value FROM kv WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "selecting %s", key)
	}
	return val, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO kv (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, q, key, value); err != nil {
		return errors.Wrapf(err, "upserting %s", key)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return errors.Wrapf(err, "deleting %s", key)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
