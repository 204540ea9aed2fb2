package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeWith_ZeroValuesDoNotOverride(t *testing.T) {
	cfg := NewConfig()
	original := *cfg

	other := &Config{} // all zero values
	cfg.mergeWith(other)

	assert.Equal(t, original.Chunking, cfg.Chunking)
	assert.Equal(t, original.Search, cfg.Search)
	assert.Equal(t, original.Embeddings, cfg.Embeddings)
	assert.Equal(t, original.Performance, cfg.Performance)
}

func TestMergeWith_PartialOverrideLeavesRestUntouched(t *testing.T) {
	cfg := NewConfig()
	other := &Config{Search: SearchConfig{RRFConstant: 15}}
	cfg.mergeWith(other)

	assert.Equal(t, 15, cfg.Search.RRFConstant)
	assert.Equal(t, 3000, cfg.Chunking.ChunkSize) // untouched
}

func TestLoad_UserConfigLayeredUnderProjectConfig(t *testing.T) {
	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "rlm"), 0755))
	userYAML := "chunking:\n  chunk_size: 4000\nsearch:\n  rrf_constant: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "rlm", "config.yaml"), []byte(userYAML), 0644))

	projectDir := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))
	projectYAML := "chunking:\n  chunk_size: 900\n" // leaves rrf_constant from user config
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, ".rlmrc.yaml"), []byte(projectYAML), 0644))

	cfg, err := Load(projectDir)
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Chunking.ChunkSize) // project wins over user
	assert.Equal(t, 5, cfg.Search.RRFConstant)   // user config survives where project is silent
}

func TestLoadYAML_MalformedFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunking: [this is not a map"), 0644))

	cfg := NewConfig()
	err := cfg.loadYAML(path)
	assert.Error(t, err)
}

func TestLoadYAML_MissingFileReturnsError(t *testing.T) {
	cfg := NewConfig()
	err := cfg.loadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnvOverrides_ThresholdBoundary(t *testing.T) {
	cfg := NewConfig()
	t.Setenv("RLM_THRESHOLD", "0")
	cfg.applyEnvOverrides()
	assert.Equal(t, 0.0, cfg.Search.Threshold)

	t.Setenv("RLM_THRESHOLD", "-1")
	cfg.applyEnvOverrides()
	assert.Equal(t, 0.0, cfg.Search.Threshold) // negative ignored, previous value kept
}

func TestApplyEnvOverrides_EmbeddingsProvider(t *testing.T) {
	cfg := NewConfig()
	t.Setenv("RLM_EMBEDDINGS_PROVIDER", "hash")
	cfg.applyEnvOverrides()
	assert.Equal(t, "hash", cfg.Embeddings.Provider)
}

func TestValidate_OverlapExactlyOneLessThanChunkSizeIsValid(t *testing.T) {
	cfg := NewConfig()
	cfg.Chunking.ChunkSize = 100
	cfg.Chunking.Overlap = 99
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yaml"), []byte("chunking:\n  chunk_size: 111\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".rlmrc.yml"), []byte("chunking:\n  chunk_size: 222\n"), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.loadFromFile(dir))
	assert.Equal(t, 111, cfg.Chunking.ChunkSize)
}
