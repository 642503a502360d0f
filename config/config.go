package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the market intelligence service
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Server   ServerConfig   `mapstructure:"server"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Search   SearchConfig   `mapstructure:"search"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string        `mapstructure:"address"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (s ServerConfig) Normalize() ServerConfig {
	s.Address = strings.TrimSpace(s.Address)
	if s.Address == "" {
		s.Address = ":8001"
	}
	if s.Address[0] != ':' && !strings.Contains(s.Address, ":") {
		s.Address = ":" + s.Address
	}
	if s.Timeout <= 0 {
		s.Timeout = 5 * time.Minute
	}
	return s
}

// LLMConfig selects and tunes the generation backend
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // ollama, openai, none
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	TopP        float64       `mapstructure:"top_p"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RPM         int           `mapstructure:"rpm"`   // 0 disables rate limiting
	Burst       int           `mapstructure:"burst"`
}

func (l LLMConfig) Validate() error {
	switch l.Provider {
	case "none":
		return nil
	case "ollama":
		if strings.TrimSpace(l.BaseURL) == "" {
			return fmt.Errorf("llm.base_url required for ollama")
		}
	case "openai":
		if strings.TrimSpace(l.APIKey) == "" {
			return fmt.Errorf("llm.api_key required for openai")
		}
	default:
		return fmt.Errorf("llm.provider must be one of ollama, openai, none (got %q)", l.Provider)
	}
	if strings.TrimSpace(l.Model) == "" {
		return fmt.Errorf("llm.model required")
	}
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0,2]")
	}
	if l.TopP <= 0 || l.TopP > 1 {
		return fmt.Errorf("llm.top_p must be within (0,1]")
	}
	if l.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be > 0")
	}
	if l.RPM < 0 || l.Burst < 0 {
		return fmt.Errorf("llm.rpm and llm.burst cannot be negative")
	}
	return nil
}

// SearchConfig selects the web search backend for search_web
type SearchConfig struct {
	Provider   string        `mapstructure:"provider"` // none, searxng, tavily
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxResults int           `mapstructure:"max_results"`
}

func (s SearchConfig) Validate() error {
	switch s.Provider {
	case "", "none":
		return nil
	case "searxng":
		if strings.TrimSpace(s.BaseURL) == "" {
			return fmt.Errorf("search.base_url required for searxng")
		}
	case "tavily":
		if strings.TrimSpace(s.APIKey) == "" {
			return fmt.Errorf("search.api_key required for tavily")
		}
	default:
		return fmt.Errorf("unknown search.provider %q", s.Provider)
	}
	return nil
}

// FetchConfig tunes fetch_url
type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// ToolsConfig decides whether the pipeline dispatches in-process or to a remote tool server
type ToolsConfig struct {
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// StorageConfig contains report storage settings
type StorageConfig struct {
	Backend    string        `mapstructure:"backend"` // memory, redis
	TTL        time.Duration `mapstructure:"ttl"`
	MaxReports int           `mapstructure:"max_reports"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "memory":
	case "redis":
		if err := s.Redis.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.backend must be memory or redis (got %q)", s.Backend)
	}
	if s.TTL < 0 {
		return fmt.Errorf("storage.ttl cannot be negative")
	}
	if s.MaxReports < 0 {
		return fmt.Errorf("storage.max_reports cannot be negative")
	}
	return nil
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// PipelineConfig tunes the analysis pipeline
type PipelineConfig struct {
	QueryCount     int    `mapstructure:"query_count"`
	MinImpactItems int    `mapstructure:"min_impact_items"`
	SampleText     string `mapstructure:"sample_text"`
}

func (p PipelineConfig) Validate() error {
	if p.QueryCount <= 0 {
		return fmt.Errorf("pipeline.query_count must be > 0")
	}
	if p.MinImpactItems <= 0 {
		return fmt.Errorf("pipeline.min_impact_items must be > 0")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_file", "")
	v.SetDefault("server.address", ":8001")
	v.SetDefault("server.timeout", "5m")
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.base_url", "http://localhost:11434")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "tinyllama")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 250)
	v.SetDefault("llm.top_p", 0.9)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.rpm", 0)
	v.SetDefault("llm.burst", 1)
	v.SetDefault("search.provider", "none")
	v.SetDefault("search.base_url", "")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.timeout", "15s")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("fetch.timeout", "15s")
	v.SetDefault("fetch.max_chars", 20000)
	v.SetDefault("tools.remote_url", "")
	v.SetDefault("tools.timeout", "10s")
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.ttl", "24h")
	v.SetDefault("storage.max_reports", 1000)
	v.SetDefault("storage.redis.host", "localhost")
	v.SetDefault("storage.redis.port", "6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.timeout", "5s")
	v.SetDefault("pipeline.query_count", 3)
	v.SetDefault("pipeline.min_impact_items", 10)
	v.SetDefault("pipeline.sample_text", "")
}

// LoadConfig reads config.yaml (or the file at path) on top of defaults and MARKETINTEL_* env vars.
// A missing config file is fine when path is empty; every key has a default.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exe)
			v.AddConfigPath(exeDir)
			v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("MARKETINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = cfg.Server.Normalize()

	for _, validate := range []func() error{
		cfg.LLM.Validate,
		cfg.Search.Validate,
		cfg.Storage.Validate,
		cfg.Pipeline.Validate,
	} {
		if err := validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
