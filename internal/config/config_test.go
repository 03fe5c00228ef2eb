package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeYAML(t, `
scraper:
  command: python3
staging:
  path: ./jobs.db
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 600000, cfg.Scraper.TimeoutMs)
	assert.Equal(t, 60, cfg.Staging.WindowMinutes)
	assert.Equal(t, 500, cfg.Store.MaxBatchSize)
	assert.Equal(t, Weights{Keyword: 40, Seniority: 20, Location: 20, Recency: 20}, cfg.Matching.Weights)
	assert.Equal(t, 85, cfg.Matching.InstantAlertScore)
}

func TestLoad_UserWeightsKept(t *testing.T) {
	path := writeYAML(t, `
scraper:
  command: python3
staging:
  path: ./jobs.db
matching:
  weights:
    keyword: 70
    seniority: 10
    location: 10
    recency: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Weights{Keyword: 70, Seniority: 10, Location: 10, Recency: 10}, cfg.Matching.Weights)
}

func TestNormalizeAndValidate_DefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	cfg.Scraper.Command = "python3"
	cfg.Staging.Path = "./jobs.db"

	_, vr := NormalizeAndValidate(cfg)
	assert.True(t, vr.OK(), "errors: %v", vr.Errors)
}

func TestNormalizeAndValidate_Errors(t *testing.T) {
	base := func() Config {
		cfg := Defaults()
		cfg.Scraper.Command = "python3"
		cfg.Staging.Path = "./jobs.db"
		return cfg
	}

	t.Run("missing scraper command", func(t *testing.T) {
		cfg := base()
		cfg.Scraper.Command = " "
		_, vr := NormalizeAndValidate(cfg)
		assert.False(t, vr.OK())
	})

	t.Run("weights must sum to 100", func(t *testing.T) {
		cfg := base()
		cfg.Matching.Weights = Weights{Keyword: 50, Seniority: 30, Location: 10, Recency: 20}
		_, vr := NormalizeAndValidate(cfg)
		assert.False(t, vr.OK())
	})

	t.Run("batch size over firestore limit", func(t *testing.T) {
		cfg := base()
		cfg.Store.MaxBatchSize = 501
		_, vr := NormalizeAndValidate(cfg)
		assert.False(t, vr.OK())
	})

	t.Run("firestore needs project id", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = "firestore"
		_, vr := NormalizeAndValidate(cfg)
		assert.False(t, vr.OK())
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.Store.Backend = "dynamo"
		_, vr := NormalizeAndValidate(cfg)
		assert.False(t, vr.OK())
	})
}

func TestSaveAtomic_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")

	cfg := Defaults()
	cfg.Scraper.Command = "python3"
	cfg.Staging.Path = "./jobs.db"
	cfg.Staging.WindowMinutes = 90

	require.NoError(t, SaveAtomic(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90, loaded.Staging.WindowMinutes)

	// second save keeps a .bak of the first
	cfg.Staging.WindowMinutes = 120
	require.NoError(t, SaveAtomic(path, cfg))
	_, err = os.Stat(path + ".bak")
	assert.NoError(t, err)
}

func TestSaveAtomic_RejectsInvalid(t *testing.T) {
	cfg := Defaults() // no scraper.command, no staging.path
	err := SaveAtomic(filepath.Join(t.TempDir(), "config.yml"), cfg)
	require.Error(t, err)
}

func TestEnsureUserConfig_CopiesDefaultOnce(t *testing.T) {
	dataDir := t.TempDir()
	defaultPath := filepath.Join(t.TempDir(), "default.yml")
	require.NoError(t, os.WriteFile(defaultPath, []byte("app:\n  port: 1234\n"), 0o644))

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)

	cfg, err := Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.App.Port)

	// user edits survive a second bootstrap
	require.NoError(t, os.WriteFile(userPath, []byte("app:\n  port: 9999\n"), 0o644))
	again, err := EnsureUserConfig(dataDir, defaultPath)
	require.NoError(t, err)
	assert.Equal(t, userPath, again)
	cfg, err = Load(userPath)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.App.Port)
}
