package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	p := env.Path("sub", "file.json")
	assert.True(t, strings.HasPrefix(p, env.RootDir()))
	assert.Equal(t, filepath.Join(env.RootDir(), "sub", "file.json"), p)
	assert.Equal(t, env.RootDir(), env.Path())
}

func TestTestEnv_WriteReadFile(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("nested/dir/data.json", "[]")
	env.RequireFileExists("nested/dir/data.json")
	assert.Equal(t, "[]", env.ReadFileString("nested/dir/data.json"))
	assert.False(t, env.FileExists("missing.json"))
}

func TestTestEnv_Chdir(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("work/marker", "x")

	env.Chdir("work")
	assert.True(t, env.FileExists("work/marker"))
}

func TestGoldenHelper_AssertGoldenJSON(t *testing.T) {
	env := NewTestEnv(t)
	env.WriteFileString("golden/out.json", "[{\"id\": 1}]\n")

	gh := NewGoldenHelper(t, env.Path("golden"))
	gh.AssertGoldenJSON("out.json", []byte(`[{"id":1}]`))
	gh.AssertGolden("out.json", []byte("[{\"id\": 1}]\n"))
}

func TestTestConfig(t *testing.T) {
	env := NewTestEnv(t)
	cfg := TestConfig(t, env)

	assert.Equal(t, env.Path("books.db"), cfg.Database.Path)
	assert.False(t, cfg.Cache.Enabled)
	assert.Zero(t, cfg.Pipeline.BaseDelay)
	require.NoError(t, cfg.Validate())

	WithOpenLibraryServer(cfg, "http://127.0.0.1:1234")
	assert.Equal(t, "http://127.0.0.1:1234/works", cfg.OpenLibrary.WorksURL)
	assert.Equal(t, "http://127.0.0.1:1234/search.json", cfg.OpenLibrary.SearchURL)
}

func TestResetViper(t *testing.T) {
	viper.Set("database.path", "/somewhere")
	t.Run("reset", func(t *testing.T) {
		ResetViper(t)
		assert.Empty(t, viper.GetString("database.path"))
	})
	assert.Empty(t, viper.GetString("database.path"))
}
