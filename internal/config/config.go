package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

// Config is the complete runtime configuration. It is built once from viper
// and handed to each component's constructor.
type Config struct {
	OpenLibrary OpenLibraryConfig
	Pipeline    PipelineConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Export      ExportConfig
	Import      ImportConfig
	Server      ServerConfig
	Datasette   DatasetteConfig
	LogLevel    slog.Level
}

// OpenLibraryConfig holds the remote catalog endpoints and client limits.
type OpenLibraryConfig struct {
	SearchURL         string
	WorksURL          string
	CoversURL         string
	SiteURL           string
	Timeout           time.Duration
	RequestsPerSecond int
}

// PipelineConfig controls the fetch loop.
type PipelineConfig struct {
	BaseDelay     time.Duration
	Jitter        time.Duration
	LimitPerQuery int
}

// DatabaseConfig points at the catalog SQLite file.
type DatabaseConfig struct {
	Path string
}

// CacheConfig controls the OpenLibrary response cache.
type CacheConfig struct {
	Enabled bool
	DBFile  string
	TTL     time.Duration
}

// ExportConfig holds the default export destination.
type ExportConfig struct {
	Path string
}

// ImportConfig holds the default backfill file.
type ImportConfig struct {
	Path string
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Addr string
}

// DatasetteConfig holds the optional remote publish target. An empty URL
// disables publishing.
type DatasetteConfig struct {
	URL   string
	Token string
}

// SetDefaults registers every default value with viper.
func SetDefaults() {
	viper.SetDefault("openlibrary.searchurl", "https://openlibrary.org/search.json")
	viper.SetDefault("openlibrary.worksurl", "https://openlibrary.org/works")
	viper.SetDefault("openlibrary.coversurl", "https://covers.openlibrary.org")
	viper.SetDefault("openlibrary.siteurl", "https://openlibrary.org")
	viper.SetDefault("openlibrary.timeout", "10s")
	viper.SetDefault("openlibrary.requestspersecond", 1)

	viper.SetDefault("pipeline.basedelay", "1s")
	viper.SetDefault("pipeline.jitter", "1s")
	viper.SetDefault("pipeline.limitperquery", 2)

	viper.SetDefault("database.path", "./books.db")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h")

	viper.SetDefault("export.path", "./parsed_books.json")
	viper.SetDefault("import.path", "./books_data.json")

	viper.SetDefault("server.addr", ":8081")
	viper.SetDefault("datasette.url", "")
	viper.SetDefault("datasette.token", "")
	viper.SetDefault("log.level", "info")
}

// Load builds a Config from the current viper state and validates it.
func Load() (*Config, error) {
	SetDefaults()

	level, err := ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		OpenLibrary: OpenLibraryConfig{
			SearchURL:         viper.GetString("openlibrary.searchurl"),
			WorksURL:          strings.TrimSuffix(viper.GetString("openlibrary.worksurl"), "/"),
			CoversURL:         strings.TrimSuffix(viper.GetString("openlibrary.coversurl"), "/"),
			SiteURL:           strings.TrimSuffix(viper.GetString("openlibrary.siteurl"), "/"),
			Timeout:           viper.GetDuration("openlibrary.timeout"),
			RequestsPerSecond: viper.GetInt("openlibrary.requestspersecond"),
		},
		Pipeline: PipelineConfig{
			BaseDelay:     viper.GetDuration("pipeline.basedelay"),
			Jitter:        viper.GetDuration("pipeline.jitter"),
			LimitPerQuery: viper.GetInt("pipeline.limitperquery"),
		},
		Database: DatabaseConfig{Path: viper.GetString("database.path")},
		Cache: CacheConfig{
			Enabled: viper.GetBool("cache.enabled"),
			DBFile:  viper.GetString("cache.dbfile"),
			TTL:     viper.GetDuration("cache.ttl"),
		},
		Export: ExportConfig{Path: viper.GetString("export.path")},
		Import: ImportConfig{Path: viper.GetString("import.path")},
		Server: ServerConfig{Addr: viper.GetString("server.addr")},
		Datasette: DatasetteConfig{
			URL:   viper.GetString("datasette.url"),
			Token: viper.GetString("datasette.token"),
		},
		LogLevel: level,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration without consulting viper.
func Default() *Config {
	return &Config{
		OpenLibrary: OpenLibraryConfig{
			SearchURL:         "https://openlibrary.org/search.json",
			WorksURL:          "https://openlibrary.org/works",
			CoversURL:         "https://covers.openlibrary.org",
			SiteURL:           "https://openlibrary.org",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
		},
		Pipeline: PipelineConfig{
			BaseDelay:     time.Second,
			Jitter:        time.Second,
			LimitPerQuery: 2,
		},
		Database: DatabaseConfig{Path: "./books.db"},
		Cache: CacheConfig{
			Enabled: true,
			DBFile:  "./cache.db",
			TTL:     720 * time.Hour,
		},
		Export:    ExportConfig{Path: "./parsed_books.json"},
		Import:    ImportConfig{Path: "./books_data.json"},
		Server:    ServerConfig{Addr: ":8081"},
		Datasette: DatasetteConfig{},
		LogLevel:  slog.LevelInfo,
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.OpenLibrary.Validate(); err != nil {
		return fmt.Errorf("openlibrary: %w", err)
	}
	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := validation.ValidateStruct(&c.Database,
		validation.Field(&c.Database.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Cache.Enabled {
		if err := validation.ValidateStruct(&c.Cache,
			validation.Field(&c.Cache.DBFile, validation.Required),
			validation.Field(&c.Cache.TTL, validation.Min(time.Duration(0))),
		); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	if err := validation.ValidateStruct(&c.Datasette,
		validation.Field(&c.Datasette.URL, is.URL),
	); err != nil {
		return fmt.Errorf("datasette: %w", err)
	}
	return nil
}

// Validate checks the OpenLibrary endpoints and limits.
func (c *OpenLibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SearchURL, validation.Required, is.URL),
		validation.Field(&c.WorksURL, validation.Required, is.URL),
		validation.Field(&c.CoversURL, validation.Required, is.URL),
		validation.Field(&c.SiteURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.RequestsPerSecond, validation.Required, validation.Min(1)),
	)
}

// Validate checks the pacing values and result limit.
func (c *PipelineConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.Jitter, validation.Min(time.Duration(0))),
		validation.Field(&c.LimitPerQuery, validation.Required, validation.Min(1)),
	)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}
