package testutil

import (
	"testing"

	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/spf13/viper"
)

// ResetViper clears viper state now and again when the test completes.
func ResetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// TestConfig returns a configuration whose files all live inside env, with
// pacing disabled and the response cache turned off.
func TestConfig(t *testing.T, env *TestEnv) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = env.Path("books.db")
	cfg.Cache.Enabled = false
	cfg.Cache.DBFile = env.Path("cache.db")
	cfg.Export.Path = env.Path("parsed_books.json")
	cfg.Import.Path = env.Path("books_data.json")
	cfg.Pipeline.BaseDelay = 0
	cfg.Pipeline.Jitter = 0
	cfg.OpenLibrary.RequestsPerSecond = 1000
	return cfg
}

// WithOpenLibraryServer points every OpenLibrary endpoint of cfg at baseURL,
// typically an httptest server.
func WithOpenLibraryServer(cfg *config.Config, baseURL string) *config.Config {
	cfg.OpenLibrary.SearchURL = baseURL + "/search.json"
	cfg.OpenLibrary.WorksURL = baseURL + "/works"
	cfg.OpenLibrary.SiteURL = baseURL
	return cfg
}
