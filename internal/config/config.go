package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the Policy Radar API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Query     QueryConfig     `yaml:"query"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	RAG       RAGConfig       `yaml:"rag"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for mutating endpoints.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds corpus persistence settings.
// Driver selects the snapshot repository: file, redis or sqlite.
// SeedSamples installs a small demo corpus when persistence is empty, so a
// fresh deployment serves data before the first ingestion run.
type StoreConfig struct {
	Driver      string            `yaml:"driver"`
	SeedSamples bool              `yaml:"seed_samples"`
	File        FileStoreConfig   `yaml:"file"`
	Redis       RedisStoreConfig  `yaml:"redis"`
	SQLite      SQLiteStoreConfig `yaml:"sqlite"`
}

// FileStoreConfig holds JSONL file persistence settings.
type FileStoreConfig struct {
	Path string `yaml:"path"`
}

// RedisStoreConfig holds Redis persistence settings.
type RedisStoreConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
}

// SQLiteStoreConfig holds SQLite persistence settings.
type SQLiteStoreConfig struct {
	Path string `yaml:"path"`
}

// QueryConfig holds document listing settings.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
	RecentDays   int `yaml:"recent_days"` // window for the stats recent count
}

// IngestionConfig holds document source settings.
type IngestionConfig struct {
	EuractivRSSURL       string `yaml:"euractiv_rss_url"`
	EPNewsRSSURL         string `yaml:"ep_news_rss_url"`
	EurLexSPARQLEndpoint string `yaml:"eur_lex_sparql_endpoint"`
	TimeoutSec           int    `yaml:"timeout_sec"`
	FetchFullText        bool   `yaml:"fetch_full_text"`
	DefaultDays          int    `yaml:"default_days"`
	DefaultLimit         int    `yaml:"default_limit"`
}

// RAGConfig holds answer-generation settings for an OpenAI-compatible API.
// An empty api_key disables generation; the RAG endpoint then answers with
// an extractive summary of the retrieved documents.
type RAGConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	TopK    int    `yaml:"top_k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "file"
	}
	if c.Store.File.Path == "" {
		c.Store.File.Path = "data/items.jsonl"
	}
	if c.Store.Redis.KeyPrefix == "" {
		c.Store.Redis.KeyPrefix = "policyradar:"
	}
	if c.Store.SQLite.Path == "" {
		c.Store.SQLite.Path = "data/policyradar.db"
	}
	if c.Query.DefaultLimit <= 0 {
		c.Query.DefaultLimit = 50
	}
	if c.Query.MaxLimit <= 0 {
		c.Query.MaxLimit = 500
	}
	if c.Query.RecentDays <= 0 {
		c.Query.RecentDays = 7
	}
	if c.Ingestion.EuractivRSSURL == "" {
		c.Ingestion.EuractivRSSURL = "https://www.euractiv.com/feed/"
	}
	if c.Ingestion.EPNewsRSSURL == "" {
		c.Ingestion.EPNewsRSSURL = "https://www.europarl.europa.eu/rss/doc/press-releases/en.xml"
	}
	if c.Ingestion.EurLexSPARQLEndpoint == "" {
		c.Ingestion.EurLexSPARQLEndpoint = "https://publications.europa.eu/webapi/rdf/sparql"
	}
	if c.Ingestion.TimeoutSec <= 0 {
		c.Ingestion.TimeoutSec = 30
	}
	if c.Ingestion.DefaultDays <= 0 {
		c.Ingestion.DefaultDays = 30
	}
	if c.Ingestion.DefaultLimit <= 0 {
		c.Ingestion.DefaultLimit = 50
	}
	if c.RAG.Model == "" {
		c.RAG.Model = "gpt-4o-mini"
	}
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Store.Driver {
	case "file", "redis", "sqlite":
		// ok
	default:
		return fmt.Errorf("store.driver must be \"file\", \"redis\" or \"sqlite\", got %q", c.Store.Driver)
	}
	if c.Store.Driver == "redis" && len(c.Store.Redis.Addrs) == 0 {
		return fmt.Errorf("store.redis.addrs is required for the redis driver")
	}
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf(
			"query.default_limit (%d) must not exceed query.max_limit (%d)",
			c.Query.DefaultLimit, c.Query.MaxLimit,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
