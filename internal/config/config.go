package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete rlm configuration: chunker defaults,
// hybrid search parameters, embedder selection, and performance tuning.
// It is layered defaults -> user config -> project config -> env vars,
// with CLI flags (set separately, in cmd/rlm/cmd) taking final
// precedence over all of it.
type Config struct {
	Version     int               `yaml:"version" json:"version"`
	Chunking    ChunkingConfig    `yaml:"chunking" json:"chunking"`
	Search      SearchConfig      `yaml:"search" json:"search"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Performance PerformanceConfig `yaml:"performance" json:"performance"`
}

// ChunkingConfig configures the default chunker behavior (spec.md §4.2).
type ChunkingConfig struct {
	// Strategy selects the default chunker: "fixed", "semantic", "code",
	// or "parallel".
	Strategy string `yaml:"strategy" json:"strategy"`
	// ChunkSize is the target chunk size in bytes.
	ChunkSize int `yaml:"chunk_size" json:"chunk_size"`
	// Overlap is the byte overlap between adjacent chunks. Must be
	// smaller than ChunkSize.
	Overlap int `yaml:"overlap" json:"overlap"`
	// PreserveSentences avoids splitting mid-sentence when the semantic
	// strategy looks for a boundary.
	PreserveSentences bool `yaml:"preserve_sentences" json:"preserve_sentences"`
}

// SearchConfig configures hybrid search fusion parameters (spec.md §4.6).
type SearchConfig struct {
	// RRFConstant is the RRF fusion smoothing parameter k.
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
	// Threshold is the minimum per-source semantic score a result must
	// clear to survive fusion (spec.md §4.6.3).
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// MaxResults is the default result cap applied when a caller does
	// not specify top-k explicitly.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder implementation. Currently only
	// "hash" (the deterministic local embedder) is supported; the field
	// exists so a real provider can be swapped in without a config
	// schema change.
	Provider string `yaml:"provider" json:"provider"`
	// Dimension is the embedding vector width recorded in the config.
	// Only `rlm config show` reads it; the CLI's embedder always uses
	// embed.DefaultDimension.
	Dimension int `yaml:"dimension" json:"dimension"`
}

// PerformanceConfig configures performance tuning options.
type PerformanceConfig struct {
	// IndexWorkers records the parallelism for the parallel chunking
	// strategy (spec.md §4.2.4, §5). Defaults to runtime.NumCPU(). Only
	// `rlm config show` reads it; the CLI's chunkers leave
	// chunk.Config.Workers at 0, which also means runtime.NumCPU().
	IndexWorkers int `yaml:"index_workers" json:"index_workers"`
	// SQLiteCacheMB records a SQLite page cache size in MB. Only
	// `rlm config show` reads it; store.Open sets no cache-size pragma.
	SQLiteCacheMB int `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Chunking: ChunkingConfig{
			Strategy:          "semantic",
			ChunkSize:         3000,
			Overlap:           500,
			PreserveSentences: true,
		},
		Search: SearchConfig{
			RRFConstant: 60,
			Threshold:   0.0,
			MaxResults:  20,
		},
		Embeddings: EmbeddingsConfig{
			Provider:  "hash",
			Dimension: 0,
		},
		Performance: PerformanceConfig{
			IndexWorkers:  runtime.NumCPU(),
			SQLiteCacheMB: 64,
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration
// file. It follows the XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/rlm/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/rlm/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rlm", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "rlm", "config.yaml")
	}
	return filepath.Join(home, ".config", "rlm", "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if it exists.
// Returns nil config and nil error if the file doesn't exist (that's OK).
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration starting from dir, applying configuration in
// order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/rlm/config.yaml)
//  3. Project config (.rlmrc.yaml in dir or an ancestor)
//  4. Environment variables (RLM_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from .rlmrc.yaml or
// .rlmrc.yml, walking up from dir to the project root first.
func (c *Config) loadFromFile(dir string) error {
	root, err := FindProjectRoot(dir)
	if err != nil {
		root = dir
	}

	yamlPath := filepath.Join(root, ".rlmrc.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(root, ".rlmrc.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}

	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	if other.Chunking.Strategy != "" {
		c.Chunking.Strategy = other.Chunking.Strategy
	}
	if other.Chunking.ChunkSize != 0 {
		c.Chunking.ChunkSize = other.Chunking.ChunkSize
	}
	if other.Chunking.Overlap != 0 {
		c.Chunking.Overlap = other.Chunking.Overlap
	}

	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.Threshold != 0 {
		c.Search.Threshold = other.Search.Threshold
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Dimension != 0 {
		c.Embeddings.Dimension = other.Embeddings.Dimension
	}

	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.SQLiteCacheMB != 0 {
		c.Performance.SQLiteCacheMB = other.Performance.SQLiteCacheMB
	}
}

// applyEnvOverrides applies RLM_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RLM_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chunking.ChunkSize = n
		}
	}
	if v := os.Getenv("RLM_OVERLAP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Chunking.Overlap = n
		}
	}
	if v := os.Getenv("RLM_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("RLM_THRESHOLD"); v != "" {
		if t, err := parseFloat64(v); err == nil && t >= 0 {
			c.Search.Threshold = t
		}
	}
	if v := os.Getenv("RLM_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// FindProjectRoot finds the project root directory. It looks for a
// .git directory or .rlmrc.yaml/.yml file by walking up the directory
// tree, falling back to startDir if neither is found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".rlmrc.yaml")) ||
			fileExists(filepath.Join(currentDir, ".rlmrc.yml")) {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("search.rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.Threshold < 0 {
		return fmt.Errorf("search.threshold must be non-negative, got %f", c.Search.Threshold)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must be non-negative, got %d", c.Search.MaxResults)
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must be non-negative and smaller than chunk_size, got %d", c.Chunking.Overlap)
	}

	validStrategies := map[string]bool{"fixed": true, "semantic": true, "code": true, "parallel": true}
	if c.Chunking.Strategy != "" && !validStrategies[strings.ToLower(c.Chunking.Strategy)] {
		return fmt.Errorf("chunking.strategy must be 'fixed', 'semantic', 'code', or 'parallel', got %s", c.Chunking.Strategy)
	}

	validProviders := map[string]bool{"hash": true}
	if c.Embeddings.Provider != "" && !validProviders[strings.ToLower(c.Embeddings.Provider)] {
		return fmt.Errorf("embeddings.provider must be 'hash', got %s", c.Embeddings.Provider)
	}

	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
