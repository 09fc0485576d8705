package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/lepinkainen/bookshelf/internal/api"
	"github.com/lepinkainen/bookshelf/internal/config"
)

// serveAPI is swapped out in tests
var serveAPI = api.ListenAndServe

// ServeCmd runs the HTTP API until interrupted
type ServeCmd struct {
	Addr string `help:"Listen address (defaults to server.addr)"`
}

func (s *ServeCmd) Run(ctx context.Context, cfg *config.Config, _ io.Writer) error {
	addr := s.Addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	handler := api.NewHandler(svc.store, svc.pipeline(cfg), cfg.Pipeline.LimitPerQuery)
	slog.Info("Starting API server", "addr", addr, "database", svc.store.Path())
	return serveAPI(ctx, addr, api.NewRouter(handler))
}
