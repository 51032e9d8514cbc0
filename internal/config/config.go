/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package config loads and validates the assistant's YAML configuration.
// Database passwords may be supplied through environment variables so
// credentials never have to live in the config file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"etlvalid/internal/errs"
)

// Environment variables consulted when the corresponding config field is empty.
const (
	EnvSourcePassword = "ETLVALID_SOURCE_DB_PASSWORD"
	EnvTargetPassword = "ETLVALID_TARGET_DB_PASSWORD"
)

// Config is the complete assistant configuration.
type Config struct {
	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Source database (required)
	Source DatabaseConfig `yaml:"source"`

	// Target database (optional; enables comparison queries)
	Target *DatabaseConfig `yaml:"target"`

	// Embedding provider configuration
	Embedding EmbeddingConfig `yaml:"embedding"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Vector index configuration
	Index IndexConfig `yaml:"index"`

	// Scripts output configuration
	Scripts ScriptsConfig `yaml:"scripts"`

	// TransformationPath points at an optional SQL file holding the ETL
	// transformation logic to be indexed and rendered into prompts.
	TransformationPath string `yaml:"transformation_path"`

	// HTTP server configuration (serve subcommand)
	HTTP HTTPConfig `yaml:"http"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: warn)
	Format string `yaml:"format"` // json or console (default: json)
}

// DatabaseConfig identifies one database endpoint. It is owned by the
// session for its lifetime and is never persisted. The json tags serve
// the HTTP configure API, which accepts the same shape.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" json:"driver"` // mysql or postgres (default: mysql)
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`

	// ConnectTimeout bounds connection establishment (default: 10s).
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	// QueryTimeout is the per-statement deadline (default: 30s).
	QueryTimeout time.Duration `yaml:"query_timeout" json:"query_timeout"`
}

// EmbeddingConfig holds embedding generation settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"`       // "ollama" or "openai" (default: ollama)
	Model        string `yaml:"model"`          // default: nomic-embed-text
	OllamaURL    string `yaml:"ollama_url"`     // default: http://localhost:11434
	OpenAIAPIKey string `yaml:"openai_api_key"` // required when provider is openai
}

// LLMConfig holds LLM invocation settings.
type LLMConfig struct {
	OllamaURL string `yaml:"ollama_url"` // default: http://localhost:11434
	// DefaultModel overrides the router's model choice when set.
	DefaultModel string `yaml:"default_model"`
	// Timeout bounds a single generation call (default: 5m).
	Timeout time.Duration `yaml:"timeout"`
}

// IndexConfig holds vector index settings.
type IndexConfig struct {
	// Path is the directory that persists the index (default: ./vector_db).
	Path string `yaml:"path"`
	// ChunkSize is the maximum chunk length in characters (default: 1000).
	ChunkSize int `yaml:"chunk_size"`
	// ChunkOverlap is the number of trailing lines repeated at the start
	// of the next chunk (default: 1).
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// ScriptsConfig holds generated-script persistence settings.
type ScriptsConfig struct {
	// Dir is where extracted SQL scripts are written (default: ./results).
	Dir string `yaml:"dir"`
}

// HTTPConfig holds the optional HTTP API settings.
type HTTPConfig struct {
	Address string `yaml:"address"` // default: :8080
}

// Load reads, defaults, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, fmt.Sprintf("read config %s", path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.Wrap(errs.KindConfig, "parse config", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with production defaults and resolves
// password environment variables.
func (c *Config) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	applyDatabaseDefaults(&c.Source, EnvSourcePassword)
	if c.Target != nil {
		applyDatabaseDefaults(c.Target, EnvTargetPassword)
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.Embedding.OllamaURL == "" {
		c.Embedding.OllamaURL = "http://localhost:11434"
	}

	if c.LLM.OllamaURL == "" {
		c.LLM.OllamaURL = "http://localhost:11434"
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 5 * time.Minute
	}

	if c.Index.Path == "" {
		c.Index.Path = "vector_db"
	}
	if c.Index.ChunkSize == 0 {
		c.Index.ChunkSize = 1000
	}
	if c.Index.ChunkOverlap == 0 {
		c.Index.ChunkOverlap = 1
	}

	if c.Scripts.Dir == "" {
		c.Scripts.Dir = "results"
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
}

func applyDatabaseDefaults(db *DatabaseConfig, passwordEnv string) {
	if db.Driver == "" {
		db.Driver = "mysql"
	}
	if db.Host == "" {
		db.Host = "localhost"
	}
	if db.Port == 0 {
		switch db.Driver {
		case "postgres":
			db.Port = 5432
		default:
			db.Port = 3306
		}
	}
	if db.Password == "" {
		db.Password = os.Getenv(passwordEnv)
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = 10 * time.Second
	}
	if db.QueryTimeout == 0 {
		db.QueryTimeout = 30 * time.Second
	}
}

// ApplyDefaults fills unset endpoint fields with production defaults.
// Endpoint configs that arrive outside a config file, such as the HTTP
// configure API, must pass through here before they are used to dial.
func (d *DatabaseConfig) ApplyDefaults() {
	applyDatabaseDefaults(d, "")
}

// Validate checks endpoint fields that cannot be defaulted. The name
// prefixes error messages.
func (d *DatabaseConfig) Validate(name string) error {
	return validateDatabase(name, d)
}

// Validate checks fields that cannot be defaulted. Errors carry
// errs.KindConfig so callers can report them as user-correctable.
func (c *Config) Validate() error {
	if err := validateDatabase("source", &c.Source); err != nil {
		return err
	}
	if c.Target != nil {
		if err := validateDatabase("target", c.Target); err != nil {
			return err
		}
	}
	if c.Embedding.Provider == "openai" && c.Embedding.OpenAIAPIKey == "" {
		return errs.New(errs.KindConfig, "embedding.openai_api_key is required when provider is openai")
	}
	if c.Index.ChunkSize < 100 {
		return errs.New(errs.KindConfig, "index.chunk_size must be at least 100 characters")
	}
	return nil
}

func validateDatabase(name string, db *DatabaseConfig) error {
	if db.Driver != "mysql" && db.Driver != "postgres" {
		return errs.New(errs.KindConfig, fmt.Sprintf("%s.driver must be mysql or postgres, got %q", name, db.Driver))
	}
	if db.User == "" {
		return errs.New(errs.KindConfig, fmt.Sprintf("%s.user is required", name))
	}
	if db.Database == "" {
		return errs.New(errs.KindConfig, fmt.Sprintf("%s.database is required", name))
	}
	return nil
}
