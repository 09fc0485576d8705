// Package datastore publishes catalog rows to a remote Datasette instance.
package datastore

import "context"

// DatabaseName is the Datasette database rows are inserted into.
const DatabaseName = "bookshelf"

// BooksTable is the remote table for exported books.
const BooksTable = "books"

// Publisher accepts batches of rows for a named table.
type Publisher interface {
	// Connect validates the connection settings
	Connect() error

	// BatchInsert inserts multiple records into the specified table
	BatchInsert(ctx context.Context, table string, records []map[string]any) error
}
