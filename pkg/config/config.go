package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the agent service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnalyzerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
}

// MonitorConfig controls execution polling: Timeout bounds one watch session,
// PollUnit is the base wait unit the state-dependent delays multiply.
type MonitorConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	PollUnit time.Duration `mapstructure:"poll_unit"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from config.yaml (if present) and the
// DEFI_AGENT_* environment variables. A missing config file is not an
// error; defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("DEFI_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origin", "http://localhost:3000")
	v.SetDefault("backend.url", "http://localhost:3001")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("analyzer.enabled", false)
	v.SetDefault("analyzer.url", "https://api.openai.com")
	v.SetDefault("analyzer.model", "gpt-4o-mini")
	v.SetDefault("analyzer.api_key", "")
	v.SetDefault("monitor.timeout", 5*time.Minute)
	v.SetDefault("monitor.poll_unit", time.Second)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}
