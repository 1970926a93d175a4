package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"fora/internal/config"
	"fora/internal/storage"
	"fora/internal/store"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fora",
		Usage: "Plan tasks, classes and free time, and sync them with your calendars.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Path to a config file (yaml, json or toml)."},
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "Path to a .env file. A missing file is ignored."},
			&cli.StringFlag{Name: "log-level", Usage: "Override the log level (debug, info, warn, error)."},
			&cli.StringFlag{Name: "storage", Usage: "Override the storage driver (memory, file, postgres, surreal)."},
			&cli.StringFlag{Name: "storage-path", Usage: "Override the state file of the file driver."},
		},
		Commands: []*cli.Command{
			serveCommand(),
			addCommand(),
			toggleCommand(),
			listCommand(),
			dashboardCommand(),
			monthCommand(),
			freeTimeCommand(),
			exportCommand(),
			authCommand(),
			syncCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// env is what every command runs against.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	loc     *time.Location
	storage storage.Storage
	store   *store.Store
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"), c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("storage") {
		cfg.Storage.Driver = c.String("storage")
	}
	if c.IsSet("storage-path") {
		cfg.Storage.Path = c.String("storage-path")
	}
	return cfg, nil
}

// setup loads the config, opens storage and hydrates the event store.
// Callers must call close.
func setup(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	st, err := storage.Open(c.Context, cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	logger.Debug("Opened storage.", "driver", cfg.Storage.Driver)

	var opts []store.Option
	if !cfg.SeedSampleEvents {
		opts = append(opts, store.WithSeed(nil))
	}
	events := store.New(st, logger, opts...)
	if err := events.Hydrate(c.Context); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	return &env{cfg: cfg, logger: logger, loc: loc, storage: st, store: events}, nil
}

func (e *env) close() {
	if err := e.storage.Close(); err != nil {
		e.logger.Warn("Failed to close storage.", "error", err)
	}
}

// now is the current time in the configured zone.
func (e *env) now() time.Time {
	return time.Now().In(e.loc)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
