package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Backend selects which warehouse executes validated SQL.
type Backend string

const (
	BackendMock      Backend = "mock"
	BackendSnowflake Backend = "snowflake"
)

// Config represents the application configuration. Values come from an
// optional JSON config file, overridden by COINSIGHT_-prefixed environment
// variables, overridden by command-line flags.
type Config struct {
	OpenAI    OpenAIConfig    `json:"openai"    envPrefix:"COINSIGHT_"`
	Index     IndexConfig     `json:"index"     envPrefix:"COINSIGHT_"`
	Warehouse WarehouseConfig `json:"warehouse" envPrefix:"COINSIGHT_"`
	Snowflake SnowflakeConfig `json:"snowflake" envPrefix:"SNOWFLAKE_"`
	HTTP      HTTPConfig      `json:"http"      envPrefix:"COINSIGHT_"`
	Logging   LoggingConfig   `json:"logging"   envPrefix:"COINSIGHT_"`
}

// OpenAIConfig covers both LLM calls (SQL generation, answer formatting)
// and the embedding service used by the schema index.
type OpenAIConfig struct {
	APIKey         string  `json:"-"               env:"OPENAI_API_KEY"`
	BaseURL        string  `json:"base_url"        env:"OPENAI_BASE_URL"   envDefault:"https://api.openai.com/v1"`
	ChatModel      string  `json:"chat_model"      env:"CHAT_MODEL"        envDefault:"gpt-4o"`
	EmbeddingModel string  `json:"embedding_model" env:"EMBEDDING_MODEL"   envDefault:"text-embedding-3-small"`
	Timeout        string  `json:"timeout"         env:"OPENAI_TIMEOUT"    envDefault:"60s"`
	AnswerTemp     float64 `json:"answer_temp"     env:"ANSWER_TEMPERATURE" envDefault:"0.2"`
}

// IndexConfig controls the persisted schema vector index.
type IndexConfig struct {
	Path       string `json:"path"        env:"INDEX_PATH"       envDefault:"~/.cache/coinsight/schema_index.duckdb"`
	Collection string `json:"collection"  env:"INDEX_COLLECTION" envDefault:"crypto_schema"`
	SchemaFile string `json:"schema_file" env:"SCHEMA_FILE"      envDefault:"./schemas/crypto_schema.json"`
	TopN       int    `json:"top_n"       env:"RETRIEVE_TOP_N"   envDefault:"2"`
}

// WarehouseConfig selects and bounds the query backend.
type WarehouseConfig struct {
	Backend    Backend `json:"backend"      env:"BACKEND"      envDefault:"mock"`
	MockDBPath string  `json:"mock_db_path" env:"MOCK_DB_PATH" envDefault:"~/.cache/coinsight/demo_data.duckdb"`
	MaxRows    int     `json:"max_rows"     env:"MAX_ROWS"     envDefault:"200"`
}

// SnowflakeConfig is only read when Backend is "snowflake".
type SnowflakeConfig struct {
	Account   string `json:"account"   env:"ACCOUNT"`
	User      string `json:"user"      env:"USER"`
	Password  string `json:"-"         env:"PASSWORD"`
	Role      string `json:"role"      env:"ROLE"      envDefault:"ANALYST"`
	Warehouse string `json:"warehouse" env:"WAREHOUSE" envDefault:"CRYPTO_WH"`
	Database  string `json:"database"  env:"DATABASE"  envDefault:"CRYPTO"`
	Schema    string `json:"schema"    env:"SCHEMA"    envDefault:"ANALYTICS"`
}

type HTTPConfig struct {
	Address      string `json:"address"       env:"HTTP_ADDRESS"       envDefault:":8000"`
	ReadTimeout  string `json:"read_timeout"  env:"HTTP_READ_TIMEOUT"  envDefault:"10s"`
	WriteTimeout string `json:"write_timeout" env:"HTTP_WRITE_TIMEOUT" envDefault:"120s"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"LOG_LEVEL"  envDefault:"info"` // debug, info, warn, error
	JSON  bool   `json:"json"  env:"LOG_JSON"   envDefault:"false"`
}

// Load reads configuration from the optional config file and the
// environment, then validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	configPath := configFilePath()
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Warehouse.Backend {
	case BackendMock, BackendSnowflake:
	default:
		return fmt.Errorf("invalid backend %q (must be mock or snowflake)", c.Warehouse.Backend)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	if c.Warehouse.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive: %d", c.Warehouse.MaxRows)
	}

	if c.Index.TopN <= 0 {
		return fmt.Errorf("retrieval top-n must be positive: %d", c.Index.TopN)
	}

	for name, value := range map[string]string{
		"openai timeout":     c.OpenAI.Timeout,
		"http read timeout":  c.HTTP.ReadTimeout,
		"http write timeout": c.HTTP.WriteTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %s", name, value)
		}
	}

	return nil
}

// OpenAITimeout returns the parsed LLM/embedding HTTP timeout. Validated at
// load time, so a parse failure here falls back to a sane default.
func (c *Config) OpenAITimeout() time.Duration {
	d, err := time.ParseDuration(c.OpenAI.Timeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}

// SnowflakeDSN assembles a gosnowflake connection string.
func (c *Config) SnowflakeDSN() string {
	return fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
		c.Snowflake.User, c.Snowflake.Password, c.Snowflake.Account,
		c.Snowflake.Database, c.Snowflake.Schema,
		c.Snowflake.Warehouse, c.Snowflake.Role)
}

func (c *Config) expandPaths() {
	c.Index.Path = expandPath(c.Index.Path)
	c.Warehouse.MockDBPath = expandPath(c.Warehouse.MockDBPath)
}

// EnsureDirectories creates parent directories for local on-disk state.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{filepath.Dir(c.Index.Path), filepath.Dir(c.Warehouse.MockDBPath)} {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

func configFilePath() string {
	if path := os.Getenv("COINSIGHT_CONFIG"); path != "" {
		return expandPath(path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "coinsight", "config.json")
}

// expandPath expands ~ to the home directory in file paths.
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}
