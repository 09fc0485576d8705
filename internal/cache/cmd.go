package cache

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/lepinkainen/bookshelf/internal/config"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: openlibrary, search, works" required:""`
}

// Run clears every table owned by the requested source.
func (i *InvalidateCacheCmd) Run(cfg *config.Config) error {
	tables, ok := SourceTables[i.Source]
	if !ok {
		valid := make([]string, 0, len(SourceTables))
		for name := range SourceTables {
			valid = append(valid, name)
		}
		slices.Sort(valid)
		return fmt.Errorf("invalid cache source '%s'; valid sources are: %s", i.Source, strings.Join(valid, ", "))
	}

	slog.Info("Invalidating cache", "source", i.Source, "database", cfg.Cache.DBFile)

	cacheDB, err := NewCacheDB(cfg.Cache.DBFile, cfg.Cache.TTL)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer func() { _ = cacheDB.Close() }()

	var total int64
	for _, table := range tables {
		rowsDeleted, err := cacheDB.InvalidateSource(table)
		if err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
		total += rowsDeleted
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", total)
	return nil
}
