package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "RECIPECHAT_CONFIG"

const (
	DefaultServerAddress = ":8000"
	DefaultEndpoint      = "http://localhost:8000/chat"
	DefaultRecipesPath   = "train.json"
	DefaultProvider      = "ollama"
	DefaultSQLitePath    = "recipes.db"
)

// Config represents runtime configuration for both the chat client and the recipe server.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config"`
	Client      ClientConfig              `json:"client"`
	LLM         LLMConfig                 `json:"llm"`
	Providers   map[string]ProviderConfig `json:"providers"`
	Databases   map[string]DatabaseConfig `json:"databases"`
	Redis       RedisConfig               `json:"redis"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type BasicConfig struct {
	ServerAddress  string `json:"server_address"`
	RecipesPath    string `json:"recipes_path"`
	RecipeSource   string `json:"recipe_source"` // "file" or a key of Databases
	MinWorkers     int    `json:"min_workers"`
	Workers        int    `json:"workers"`
	WorkerIdle     int    `json:"worker_idle"` // seconds before a surplus worker retires
	QueueSize      int    `json:"queue_size"`
	CacheTTL       int    `json:"cache_ttl"`       // minutes
	RequestTimeout int    `json:"request_timeout"` // seconds, per LLM call
}

// ClientConfig configures the terminal chat view.
type ClientConfig struct {
	Endpoint string `json:"endpoint"`
	Timeout  int    `json:"timeout"` // seconds, 0 waits forever
	LogFile  string `json:"log_file"`
}

type LLMConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	Params   string `json:"params"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	// KeyPrefix namespaces cache keys so several deployments can share one database.
	KeyPrefix string `json:"key_prefix"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the provided path. An empty path falls back to
// $RECIPECHAT_CONFIG and then config.json; a missing fallback file yields Default().
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.applyDefaults()

	if !filepath.IsAbs(cfg.BasicConfig.RecipesPath) {
		cfg.BasicConfig.RecipesPath = filepath.Join(filepath.Dir(absPath), cfg.BasicConfig.RecipesPath)
	}
	if cfg.Client.LogFile != "" && !filepath.IsAbs(cfg.Client.LogFile) {
		cfg.Client.LogFile = filepath.Join(filepath.Dir(absPath), cfg.Client.LogFile)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.BasicConfig.Workers < 0 || c.BasicConfig.MinWorkers < 0 || c.BasicConfig.QueueSize < 0 {
		return fmt.Errorf("workers and queue_size cannot be negative")
	}
	if c.BasicConfig.MinWorkers > c.BasicConfig.Workers {
		return fmt.Errorf("min_workers (%d) exceeds workers (%d)", c.BasicConfig.MinWorkers, c.BasicConfig.Workers)
	}
	if c.Client.Timeout < 0 {
		return fmt.Errorf("client timeout cannot be negative")
	}
	if src := c.BasicConfig.RecipeSource; src != "file" {
		if _, ok := c.Databases[src]; !ok {
			return fmt.Errorf("recipe_source %q has no database config", src)
		}
	}
	if _, ok := c.Providers[c.LLM.Provider]; !ok {
		return fmt.Errorf("provider %s not configured", c.LLM.Provider)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.BasicConfig.ServerAddress == "" {
		c.BasicConfig.ServerAddress = DefaultServerAddress
	}
	if c.BasicConfig.RecipesPath == "" {
		c.BasicConfig.RecipesPath = DefaultRecipesPath
	}
	if c.BasicConfig.RecipeSource == "" {
		c.BasicConfig.RecipeSource = "file"
	}
	if c.BasicConfig.Workers == 0 {
		c.BasicConfig.Workers = 4
	}
	if c.BasicConfig.MinWorkers == 0 {
		c.BasicConfig.MinWorkers = 1
	}
	if c.BasicConfig.WorkerIdle == 0 {
		c.BasicConfig.WorkerIdle = 30
	}
	if c.BasicConfig.QueueSize == 0 {
		c.BasicConfig.QueueSize = 64
	}
	if c.BasicConfig.CacheTTL == 0 {
		c.BasicConfig.CacheTTL = 60
	}
	if c.BasicConfig.RequestTimeout == 0 {
		c.BasicConfig.RequestTimeout = 120
	}
	if c.Client.Endpoint == "" {
		c.Client.Endpoint = DefaultEndpoint
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultProvider
	}
	if c.Databases == nil {
		c.Databases = make(map[string]DatabaseConfig)
	}
	if _, ok := c.Databases["sqlite3"]; !ok {
		c.Databases["sqlite3"] = DatabaseConfig{DSN: DefaultSQLitePath}
	}
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	// Ollama speaks the OpenAI chat API on its default port.
	if _, ok := c.Providers[DefaultProvider]; !ok {
		c.Providers[DefaultProvider] = ProviderConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "mistral",
			APIKey:  "ollama",
		}
	}
}

// CacheTTL returns the reply cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.BasicConfig.CacheTTL) * time.Minute
}

// RequestTimeout bounds a single LLM call on the server.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.BasicConfig.RequestTimeout) * time.Second
}

// WorkerIdle is how long an idle worker above min_workers survives.
func (c *Config) WorkerIdle() time.Duration {
	return time.Duration(c.BasicConfig.WorkerIdle) * time.Second
}

// ClientTimeout bounds a chat request; zero disables the limit.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.Client.Timeout) * time.Second
}
