package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/lepinkainen/bookshelf/internal/config"
	bserrors "github.com/lepinkainen/bookshelf/internal/errors"
	"github.com/lepinkainen/bookshelf/internal/pipeline"
	"github.com/lepinkainen/bookshelf/internal/tui"
)

// selectCandidates is swapped out in tests
var selectCandidates pipeline.Selector = tui.SelectCandidates

// ParseCmd runs the fetch pipeline
type ParseCmd struct {
	Queries     []string `arg:"" optional:"" help:"Search queries (defaults to a built-in list of classics)"`
	QueriesFile string   `short:"f" help:"File with one query per line; blank lines and # comments are ignored"`
	Limit       int      `short:"n" help:"Candidates to take per query (defaults to pipeline.limitperquery)"`
	Interactive bool     `short:"i" help:"Pick candidates for each query in an interactive list"`
	Export      bool     `help:"Write the JSON export when the run ends"`
}

// Run searches every query and stores the merged records.
func (p *ParseCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	queries, err := p.resolveQueries()
	if err != nil {
		return err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = cfg.Pipeline.LimitPerQuery
	}

	svc, err := openServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	var opts []pipeline.Option
	if p.Interactive {
		opts = append(opts, pipeline.WithSelector(selectCandidates))
	}

	books, runErr := svc.pipeline(cfg, opts...).Run(ctx, queries, limit)
	switch {
	case runErr == nil:
	case bserrors.IsStopProcessingError(runErr):
		runErr = nil
	case errors.Is(runErr, context.Canceled):
		slog.Warn("Run interrupted", "inserted", len(books))
		runErr = nil
	default:
		return runErr
	}

	total, err := svc.store.Count(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "Inserted %d new books from %d queries (%d in catalog)\n", len(books), len(queries), total); err != nil {
		return err
	}

	if p.Export {
		if _, err := svc.store.ExportFile(context.WithoutCancel(ctx), cfg.Export.Path); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "Exported catalog to %s\n", cfg.Export.Path); err != nil {
			return err
		}
	}
	return runErr
}

func (p *ParseCmd) resolveQueries() ([]string, error) {
	queries := make([]string, 0, len(p.Queries))
	for _, q := range p.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}

	if p.QueriesFile != "" {
		fromFile, err := readQueriesFile(p.QueriesFile)
		if err != nil {
			return nil, err
		}
		queries = append(queries, fromFile...)
	}

	if len(queries) == 0 {
		return slices.Clone(pipeline.DefaultQueries), nil
	}
	return queries, nil
}

func readQueriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open queries file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		queries = append(queries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries file: %w", err)
	}
	return queries, nil
}
