package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.Analysis.MaxFiles)
	assert.True(t, cfg.Analysis.Evidence)
	assert.Equal(t, 0.70, cfg.Thresholds.SimilarityUtility)
	assert.Equal(t, 0.85, cfg.Thresholds.SimilarityComponent)
	assert.Contains(t, cfg.Exclude.Dirs, "node_modules")
	assert.Contains(t, cfg.Exclude.Patterns, ".d.ts")
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 7, cfg.Cache.TTLDays)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghostcode.toml")
	doc := `[analysis]
max_files = 50
evidence = false

[thresholds]
similarity_utility = 0.6

[output]
format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Analysis.MaxFiles)
	assert.False(t, cfg.Analysis.Evidence)
	assert.Equal(t, 0.6, cfg.Thresholds.SimilarityUtility)
	assert.Equal(t, "json", cfg.Output.Format)
	// Untouched keys keep defaults.
	assert.Equal(t, 0.85, cfg.Thresholds.SimilarityComponent)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ghostcode.yaml")
	doc := `cache:
  enabled: false
rules:
  path: custom-rules.yaml
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, "custom-rules.yaml", cfg.Rules.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := LoadOrDefault()
	assert.Equal(t, DefaultConfig(), cfg)
}
