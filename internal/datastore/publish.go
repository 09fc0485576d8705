package datastore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/bookshelf/internal/catalog"
)

// MaxBatchRows is the largest number of rows sent in one insert request.
const MaxBatchRows = 100

// PublishBooks sends exported books to the books table in batches.
func PublishBooks(ctx context.Context, p Publisher, books []catalog.ExportedBook) error {
	if err := p.Connect(); err != nil {
		return fmt.Errorf("failed to connect to datasette: %w", err)
	}

	rows := BookRows(books)
	for start := 0; start < len(rows); start += MaxBatchRows {
		end := min(start+MaxBatchRows, len(rows))
		if err := p.BatchInsert(ctx, BooksTable, rows[start:end]); err != nil {
			return fmt.Errorf("failed to publish rows %d-%d: %w", start, end-1, err)
		}
		slog.Debug("Published batch", "table", BooksTable, "rows", end-start)
	}

	slog.Info("Published books to datasette", "rows", len(rows))
	return nil
}
