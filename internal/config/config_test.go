package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, 1, cfg.Version)

	assert.Equal(t, "semantic", cfg.Chunking.Strategy)
	assert.Equal(t, 3000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 500, cfg.Chunking.Overlap)
	assert.True(t, cfg.Chunking.PreserveSentences)

	assert.Equal(t, 60, cfg.Search.RRFConstant)
	assert.Equal(t, 0.0, cfg.Search.Threshold)
	assert.Equal(t, 20, cfg.Search.MaxResults)

	assert.Equal(t, "hash", cfg.Embeddings.Provider)
	assert.Equal(t, 0, cfg.Embeddings.Dimension)

	assert.Equal(t, runtime.NumCPU(), cfg.Performance.IndexWorkers)
	assert.Equal(t, 64, cfg.Performance.SQLiteCacheMB)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"zero rrf constant rejected", func(c *Config) { c.Search.RRFConstant = 0 }, true},
		{"negative rrf constant rejected", func(c *Config) { c.Search.RRFConstant = -1 }, true},
		{"negative threshold rejected", func(c *Config) { c.Search.Threshold = -0.1 }, true},
		{"negative max results rejected", func(c *Config) { c.Search.MaxResults = -1 }, true},
		{"zero chunk size rejected", func(c *Config) { c.Chunking.ChunkSize = 0 }, true},
		{"overlap equal to chunk size rejected", func(c *Config) {
			c.Chunking.ChunkSize = 100
			c.Chunking.Overlap = 100
		}, true},
		{"overlap larger than chunk size rejected", func(c *Config) {
			c.Chunking.ChunkSize = 100
			c.Chunking.Overlap = 150
		}, true},
		{"negative overlap rejected", func(c *Config) { c.Chunking.Overlap = -1 }, true},
		{"unknown strategy rejected", func(c *Config) { c.Chunking.Strategy = "magic" }, true},
		{"unknown provider rejected", func(c *Config) { c.Embeddings.Provider = "openai" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Chunking.ChunkSize, cfg.Chunking.ChunkSize)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	yamlContent := "chunking:\n  chunk_size: 2048\n  overlap: 100\nsearch:\n  rrf_constant: 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yaml"), []byte(yamlContent), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2048, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.Overlap)
	assert.Equal(t, 30, cfg.Search.RRFConstant)
}

func TestLoad_YmlFallback(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	yamlContent := "chunking:\n  chunk_size: 900\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yml"), []byte(yamlContent), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Chunking.ChunkSize)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("RLM_CHUNK_SIZE", "777")
	t.Setenv("RLM_RRF_CONSTANT", "10")

	yamlContent := "chunking:\n  chunk_size: 2048\nsearch:\n  rrf_constant: 30\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yaml"), []byte(yamlContent), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 777, cfg.Chunking.ChunkSize)
	assert.Equal(t, 10, cfg.Search.RRFConstant)
}

func TestLoad_InvalidConfigReturnsError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	yamlContent := "chunking:\n  chunk_size: -5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yaml"), []byte(yamlContent), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestApplyEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	cfg := NewConfig()
	t.Setenv("RLM_CHUNK_SIZE", "not-a-number")
	t.Setenv("RLM_RRF_CONSTANT", "-5")

	cfg.applyEnvOverrides()
	assert.Equal(t, 3000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 60, cfg.Search.RRFConstant)
}

func TestWriteYAML_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := NewConfig()
	cfg.Chunking.ChunkSize = 321
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 321, loaded.Chunking.ChunkSize)
}

func TestFindProjectRoot_FindsGitDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0755))
	sub := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestFindProjectRoot_FindsRlmrcFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yaml"), []byte("version: 1\n"), 0644))
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestFindProjectRoot_FallsBackToStartDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "x", "y")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, root)
}

func TestGetUserConfigPath_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgtest")
	assert.Equal(t, "/tmp/xdgtest/rlm/config.yaml", GetUserConfigPath())
}

func TestUserConfigExists_FalseWhenAbsent(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "xdg"))
	assert.False(t, UserConfigExists())
}
