package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// OpenLibrarySearchCacheSchema defines the schema for search.json responses keyed by query and limit
const OpenLibrarySearchCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_search_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_search_expires_at ON openlibrary_search_cache(expires_at);
`

// OpenLibraryWorkCacheSchema defines the schema for works/<id>.json responses keyed by work id
const OpenLibraryWorkCacheSchema = `
CREATE TABLE IF NOT EXISTS openlibrary_work_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_openlibrary_work_expires_at ON openlibrary_work_cache(expires_at);
`

const (
	// SearchTable caches search results.
	SearchTable = "openlibrary_search_cache"
	// WorkTable caches work detail records.
	WorkTable = "openlibrary_work_cache"
)

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	OpenLibrarySearchCacheSchema,
	OpenLibraryWorkCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	SearchTable: true,
	WorkTable:   true,
}

// SourceTables maps a user-facing source name to the tables it owns.
var SourceTables = map[string][]string{
	"openlibrary": {SearchTable, WorkTable},
	"search":      {SearchTable},
	"works":       {WorkTable},
}
