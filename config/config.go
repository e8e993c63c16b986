package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the binary reads at startup.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Server ServerConfig `mapstructure:"server" yaml:"server"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
}

// LLMConfig selects and authenticates the text-generation service.
type LLMConfig struct {
	Provider          string  `mapstructure:"provider" yaml:"provider"`
	Model             string  `mapstructure:"model" yaml:"model"`
	APIKey            string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL           string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr" yaml:"addr"`
	MaxUploadMB int64         `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	SessionTTL  time.Duration `mapstructure:"session_ttl" yaml:"session_ttl"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

type RenderConfig struct {
	// StrictEncoding rejects characters the PDF font cannot draw instead
	// of replacing them with '?'.
	StrictEncoding bool `mapstructure:"strict_encoding" yaml:"strict_encoding"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

const envPrefix = "BOOK_CREATOR"

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-3.5-turbo-1106")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.session_ttl", 2*time.Hour)
	v.SetDefault("output.dir", "output")
	v.SetDefault("render.strict_encoding", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance wired for this program: defaults, the
// BOOK_CREATOR_ env prefix and the config file search path. cfgFile
// overrides the search when set.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("book-creator")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "book-creator"))
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (if present) and the config file (if any) into a Config.
// The API key falls back to OPENAI_API_KEY.
func Load(v *viper.Viper) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg, cfg.Validate()
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return errors.New("llm.requests_per_minute must not be negative")
	}
	if c.Server.MaxUploadMB <= 0 {
		return errors.New("server.max_upload_mb must be positive")
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}
