// Package config loads settings from defaults, an optional config file,
// a .env file and FORA_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fora/internal/ics"
	"fora/internal/storage"
)

const EnvPrefix = "FORA"

type Config struct {
	LogLevel         string        `mapstructure:"log_level"`
	Timezone         string        `mapstructure:"timezone"`
	SeedSampleEvents bool          `mapstructure:"seed_sample_events"`
	Storage          StorageConfig `mapstructure:"storage"`
	Server           ServerConfig  `mapstructure:"server"`
	Google           GoogleConfig  `mapstructure:"google"`
	ICloud           ICloudConfig  `mapstructure:"icloud"`
	ICal             ICalConfig    `mapstructure:"ical"`
	Sync             SyncConfig    `mapstructure:"sync"`
}

type StorageConfig struct {
	Driver  string        `mapstructure:"driver"`
	Path    string        `mapstructure:"path"`
	DSN     string        `mapstructure:"dsn"`
	Surreal SurrealConfig `mapstructure:"surreal"`
}

type SurrealConfig struct {
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GoogleConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	CalendarIDs  []string `mapstructure:"calendar_ids"`
	Classroom    bool     `mapstructure:"classroom"`
	TokenDir     string   `mapstructure:"token_dir"`
}

type ICloudConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Calendar string `mapstructure:"calendar"`
}

// Enabled reports whether CalDAV publishing is configured.
func (c ICloudConfig) Enabled() bool {
	return c.Username != "" && c.Calendar != ""
}

type ICalConfig struct {
	Feeds []string `mapstructure:"feeds"`
}

type SyncConfig struct {
	Days     int           `mapstructure:"days"`
	Interval time.Duration `mapstructure:"interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("timezone", "Local")
	v.SetDefault("seed_sample_events", true)

	v.SetDefault("storage.driver", storage.DriverFile)
	v.SetDefault("storage.path", "fora-state.json")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.surreal.host", "localhost")
	v.SetDefault("storage.surreal.port", "8000")
	v.SetDefault("storage.surreal.user", "root")
	v.SetDefault("storage.surreal.password", "")
	v.SetDefault("storage.surreal.namespace", "fora")
	v.SetDefault("storage.surreal.database", "fora")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.calendar_ids", []string{})
	v.SetDefault("google.classroom", false)
	v.SetDefault("google.token_dir", ".")

	v.SetDefault("icloud.endpoint", "https://caldav.icloud.com/")
	v.SetDefault("icloud.username", "")
	v.SetDefault("icloud.password", "")
	v.SetDefault("icloud.calendar", "")

	v.SetDefault("ical.feeds", []string{})

	v.SetDefault("sync.days", 7)
	v.SetDefault("sync.interval", 5*time.Minute)
}

// Load reads the configuration. dotEnv and file are optional paths; a missing
// .env file is ignored, a missing config file is an error.
func Load(dotEnv, file string) (Config, error) {
	if dotEnv != "" {
		if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", dotEnv, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Google.CalendarIDs = splitList(cfg.Google.CalendarIDs)
	cfg.ICal.Feeds = splitList(cfg.ICal.Feeds)
	return cfg, nil
}

// splitList accepts both list values and comma separated strings.
func splitList(in []string) []string {
	out := []string{}
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Location resolves the configured time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// StorageOptions maps the storage settings to storage.Open options.
func (c Config) StorageOptions() storage.Options {
	s := c.Storage
	return storage.Options{
		Driver: s.Driver,
		Path:   s.Path,
		DSN:    s.DSN,
		Surreal: storage.SurrealConfig{
			Host:      s.Surreal.Host,
			Port:      s.Surreal.Port,
			User:      s.Surreal.User,
			Password:  s.Surreal.Password,
			Namespace: s.Surreal.Namespace,
			Database:  s.Surreal.Database,
		},
	}
}

// Feeds parses the configured iCal feeds.
func (c Config) Feeds() ([]ics.Feed, error) {
	return ics.ParseFeeds(c.ICal.Feeds)
}
