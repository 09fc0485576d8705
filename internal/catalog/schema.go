package catalog

const booksSchema = `
CREATE TABLE IF NOT EXISTS books (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	title         TEXT NOT NULL,
	author        TEXT NOT NULL,
	publish_year  INTEGER,
	genre         TEXT,
	summary       TEXT,
	created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	source_url    TEXT,
	cover_url     TEXT,
	parsed_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	source        TEXT DEFAULT 'unknown'
)`

// The year is coalesced to an empty string so that books without a year
// still collide with each other; plain NULLs are always distinct in a unique
// index.
const booksUniqueIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS ux_book_unique
ON books (title, author, COALESCE(publish_year, ''))`

var allSchemas = []string{booksSchema, booksUniqueIndex}

const bookColumns = `id, title, author, publish_year, genre, summary, cover_url,
	source, source_url, parsed_at, created_at, updated_at`
