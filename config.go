package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultPort = 3002

type Config struct {
	Port      int     `mapstructure:"port"`
	DataFile  string  `mapstructure:"data_file"`
	LogFile   string  `mapstructure:"log_file"`
	LogLevel  string  `mapstructure:"log_level"`
	LogFormat string  `mapstructure:"log_format"`
	RateLimit float64 `mapstructure:"rate_limit"` // requests per second per client, 0 disables
	Verbose   bool    `mapstructure:"verbose"`

	// SanitizeTitles strips HTML from titles on create and update.
	SanitizeTitles bool `mapstructure:"sanitize_titles"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("data_file", defaultTodosFile)
	v.SetDefault("log_file", defaultLogFile)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("rate_limit", 0)
	v.SetDefault("sanitize_titles", false)
	v.SetDefault("verbose", false)
}

// loadConfig resolves the configuration from, lowest priority first:
// defaults, the config file, the environment (including a .env file) and
// whatever flags were bound to v.
func loadConfig(v *viper.Viper, configFile, envFile string) (Config, error) {
	var cfg Config

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// PORT without prefix is what most hosting platforms set.
	if err := v.BindEnv("port", "TODO_PORT", "PORT"); err != nil {
		return cfg, fmt.Errorf("bind port env: %w", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/todo-server")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit)
	}
	if c.DataFile == "" {
		return errors.New("data file path is empty")
	}
	if c.LogFile == "" {
		return errors.New("log file path is empty")
	}
	return nil
}
