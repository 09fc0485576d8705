package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/bookshelf/internal/cache"
	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the bookshelf application
type CLI struct {
	// Global flags
	Config   string `help:"Path to a YAML config file (defaults to ./config.yaml when present)" type:"path"`
	LogLevel string `help:"Log level: debug, info, warn, error"`
	DB       string `help:"Path to the catalog SQLite database"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)"`
	NoCache     bool   `help:"Disable the OpenLibrary response cache"`

	Parse  ParseCmd  `cmd:"" help:"Search OpenLibrary and store new books in the catalog"`
	List   ListCmd   `cmd:"" help:"List catalog books"`
	Show   ShowCmd   `cmd:"" help:"Show a single book"`
	Genres GenresCmd `cmd:"" help:"List distinct genres"`
	Update UpdateCmd `cmd:"" help:"Change fields of a stored book"`
	Delete DeleteCmd `cmd:"" help:"Delete a stored book"`
	Export ExportCmd `cmd:"" help:"Export the catalog as JSON"`
	Import ImportCmd `cmd:"" help:"Backfill the catalog from a JSON file"`
	Serve  ServeCmd  `cmd:"" help:"Serve the catalog HTTP API"`
	Cache  CacheCmd  `cmd:"" help:"Manage the response cache"`
}

// CacheCmd groups the cache subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Clear cached responses for a source"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("bookshelf"),
		kong.Description("Fetch book metadata from OpenLibrary into a local SQLite catalog."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

// Execute runs the Kong-based CLI
func Execute() {
	var cli CLI

	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx, &cli, os.Stdout); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run loads configuration, installs the logger and dispatches the selected
// command with ctx, the config and out bound for its Run method.
func run(ctx context.Context, kctx *kong.Context, cli *CLI, out io.Writer) error {
	if err := initConfig(cli.Config); err != nil {
		return err
	}
	updateGlobalConfig(cli)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogging(cfg.LogLevel)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.BindTo(out, (*io.Writer)(nil))
	return kctx.Run(cfg)
}

func initConfig(path string) error {
	config.SetDefaults()

	// Enable environment variable support, e.g. BOOKSHELF_DATABASE_PATH
	viper.SetEnvPrefix("BOOKSHELF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

func updateGlobalConfig(cli *CLI) {
	// Flags only override config when given
	if cli.LogLevel != "" {
		viper.Set("log.level", cli.LogLevel)
	}
	if cli.DB != "" {
		viper.Set("database.path", cli.DB)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
	if cli.NoCache {
		viper.Set("cache.enabled", false)
	}
}

func initLogging(level slog.Level) {
	// Logs go to stderr so JSON and YAML output on stdout stays parseable
	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
