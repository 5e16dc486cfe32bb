package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseDriver string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTTTL         time.Duration `mapstructure:"JWT_TTL"`
	HTTPAddr       string        `mapstructure:"HTTP_ADDR"`
	PageSize       int           `mapstructure:"PAGE_SIZE"`
	MediaDir       string        `mapstructure:"MEDIA_DIR"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogFormat      string        `mapstructure:"LOG_FORMAT"`
	GinMode        string        `mapstructure:"GIN_MODE"`
}

var AppConfig *Config

// defaults doubles as the list of keys viper binds from the environment;
// Unmarshal only sees env variables for keys it already knows about.
var defaults = map[string]any{
	"DATABASE_DRIVER": "postgres",
	"DATABASE_URL":    "",
	"JWT_SECRET":      "",
	"JWT_TTL":         7 * 24 * time.Hour,
	"HTTP_ADDR":       ":8080",
	"PAGE_SIZE":       6,
	"MEDIA_DIR":       "media",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",
	"GIN_MODE":        "release",
}

// Load reads configuration from a .env file in the working directory and
// from environment variables, which take precedence.
func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads the configuration into AppConfig.
func LoadConfig() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.PageSize < 1 {
		c.PageSize = 6
	}
	return nil
}
