package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the knowledge-base service.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Cache      CacheConfig      `yaml:"cache"`
	Import     ImportConfig     `yaml:"import"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig holds knowledge-base storage configuration.
type StorageConfig struct {
	Path string `yaml:"path"` // bolt database file; empty means ./.labkb/kb.db
}

// ChunkingConfig holds document chunking configuration.
type ChunkingConfig struct {
	MaxSize int `yaml:"max_size"` // max chunk length in characters
	Overlap int `yaml:"overlap"`  // window step shrink for hard splits
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float64 `yaml:"min_similarity"` // vector hits below this are dropped
	TitleWeight   float64 `yaml:"title_weight"`   // keyword-hit score for a title match
	ContentWeight float64 `yaml:"content_weight"` // keyword-hit score for a content match
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Provider  string `yaml:"provider"`    // "openai", "deepseek", "jina", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // environment variable for the API key
	BaseURL   string `yaml:"base_url"`    // override for self-hosted endpoints
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// ProviderConfig describes one chat-completion endpoint.
type ProviderConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	DefaultProvider string                    `yaml:"default_provider"`
	Providers       map[string]ProviderConfig `yaml:"providers"`
	MaxRetries      int                       `yaml:"max_retries"`
	ConnectTimeout  time.Duration             `yaml:"connect_timeout"`
	ReadTimeout     time.Duration             `yaml:"read_timeout"`
	RequestsPerMin  int                       `yaml:"requests_per_min"` // 0 disables rate limiting
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// ImportConfig holds bulk import configuration.
type ImportConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration. The retrieval threshold
// and cache size defaults are inherited from the original service; both are
// tunable here rather than hardcoded.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path: "",
		},
		Chunking: ChunkingConfig{
			MaxSize: 512,
			Overlap: 50,
		},
		Retrieve: RetrieveConfig{
			TopK:          5,
			MinSimilarity: 0.3,
			TitleWeight:   0.55,
			ContentWeight: 0.35,
		},
		Embedding: EmbeddingConfig{
			Enabled:   true,
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Generation: GenerationConfig{
			DefaultProvider: "deepseek",
			Providers: map[string]ProviderConfig{
				"deepseek": {
					BaseURL:   "https://api.deepseek.com/v1",
					Model:     "deepseek-chat",
					APIKeyEnv: "DEEPSEEK_API_KEY",
				},
				"openai": {
					BaseURL:   "https://api.openai.com/v1",
					Model:     "gpt-4o-mini",
					APIKeyEnv: "OPENAI_API_KEY",
				},
				"ollama": {
					BaseURL:   "http://localhost:11434/v1",
					Model:     "llama3",
					APIKeyEnv: "",
				},
			},
			MaxRetries:     3,
			ConnectTimeout: 10 * time.Second,
			ReadTimeout:    90 * time.Second,
			RequestsPerMin: 0,
		},
		Cache: CacheConfig{
			MaxEntries: 100,
		},
		Import: ImportConfig{
			Includes: []string{"**/*.md", "**/*.txt"},
			Excludes: []string{"**/node_modules/**", "**/.git/**", "**/.labkb/**"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for labkb.yaml,
// then .labkb/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "labkb.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".labkb", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// StorePath returns the knowledge-base database path for a working
// directory, honoring an explicit storage.path override.
func (c *Config) StorePath(dir string) string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	return filepath.Join(dir, ".labkb", "kb.db")
}

// EnsureDataDir ensures the .labkb directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".labkb"), 0755)
}
