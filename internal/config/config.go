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

// Config holds the chatbot API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Vertex     VertexConfig     `yaml:"vertex"`
	Answer     AnswerConfig     `yaml:"answer"`
	Generation GenerationConfig `yaml:"generation"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AuthConfig holds API authentication settings. Empty api_keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// VertexConfig holds the Vertex AI Search project settings.
type VertexConfig struct {
	Project              string `yaml:"project"`
	Location             string `yaml:"location"`   // search location (default: global)
	Collection           string `yaml:"collection"` // default: default_collection
	DataStoreID          string `yaml:"data_store_id"`
	AutoResolveDataStore bool   `yaml:"auto_resolve_data_store"`
}

// AnswerConfig holds answer pipeline settings.
type AnswerConfig struct {
	Mode                string `yaml:"mode"` // extractive, generative (default: generative)
	DefaultUserPseudoID string `yaml:"default_user_pseudo_id"`
}

// GenerationConfig holds generation provider settings.
type GenerationConfig struct {
	Provider        string  `yaml:"provider"` // gemini, openai (default: gemini)
	Model           string  `yaml:"model"`
	Location        string  `yaml:"location"` // model region, separate from search location
	Temperature     float32 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
	APIKey          string  `yaml:"api_key"`  // openai provider only
	BaseURL         string  `yaml:"base_url"` // openai provider only
}

// CacheConfig holds answer cache settings. Empty addrs disables the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation can take a while on long contexts.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Vertex.Location == "" {
		c.Vertex.Location = "global"
	}
	if c.Vertex.Collection == "" {
		c.Vertex.Collection = "default_collection"
	}
	if c.Answer.Mode == "" {
		c.Answer.Mode = "generative"
	}
	if c.Answer.DefaultUserPseudoID == "" {
		c.Answer.DefaultUserPseudoID = "anon"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "gemini"
	}
	if c.Generation.Location == "" {
		// Gemini models are served regionally, not from the global endpoint.
		c.Generation.Location = "us-central1"
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.1
	}
	if c.Generation.MaxOutputTokens <= 0 {
		c.Generation.MaxOutputTokens = 2048
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Vertex.Project == "" {
		return fmt.Errorf("vertex.project is required")
	}
	if c.Vertex.DataStoreID == "" {
		return fmt.Errorf("vertex.data_store_id is required")
	}
	switch c.Answer.Mode {
	case "extractive", "generative":
		// ok
	default:
		return fmt.Errorf("answer.mode must be \"extractive\" or \"generative\", got %q", c.Answer.Mode)
	}
	switch c.Generation.Provider {
	case "gemini", "openai":
		// ok
	default:
		return fmt.Errorf("generation.provider must be \"gemini\" or \"openai\", got %q", c.Generation.Provider)
	}
	if c.Answer.Mode == "generative" && c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required in generative mode")
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
