package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/lepinkainen/bookshelf/internal/cache"
	"github.com/lepinkainen/bookshelf/internal/catalog"
	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/bookshelf/internal/openlibrary"
	"github.com/lepinkainen/bookshelf/internal/pipeline"
	"github.com/lepinkainen/bookshelf/internal/ratelimit"
)

// services holds the long-lived components a command needs. cache is nil
// when caching is disabled.
type services struct {
	store  *catalog.Store
	cache  *cache.CacheDB
	client *openlibrary.Client
}

func openStore(ctx context.Context, cfg *config.Config) (*catalog.Store, error) {
	store, err := catalog.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return store, nil
}

// openServices opens the catalog, the optional response cache and an
// OpenLibrary client that uses it.
func openServices(ctx context.Context, cfg *config.Config) (*services, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := &services{store: store}
	var opts []openlibrary.Option

	if cfg.Cache.Enabled {
		cacheDB, err := cache.NewCacheDB(cfg.Cache.DBFile, cfg.Cache.TTL)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("failed to open cache: %w", err), store.Close())
		}
		svc.cache = cacheDB
		opts = append(opts, openlibrary.WithCache(cacheDB))
	}

	svc.client = openlibrary.NewClient(cfg.OpenLibrary, opts...)
	return svc, nil
}

func (s *services) pipeline(cfg *config.Config, opts ...pipeline.Option) *pipeline.Pipeline {
	opts = append([]pipeline.Option{
		pipeline.WithPacer(ratelimit.NewPacer(cfg.Pipeline.BaseDelay, cfg.Pipeline.Jitter)),
	}, opts...)
	return pipeline.New(s.client, s.client, s.store, opts...)
}

func (s *services) Close() error {
	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}
