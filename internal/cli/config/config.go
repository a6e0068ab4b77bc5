package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the descriptor configuration
type Config struct {
	Units  map[string]UnitConfig `mapstructure:"units" validate:"dive"`
	Server ServerConfig          `mapstructure:"server"`
}

// UnitConfig overrides the store of a persistence unit
type UnitConfig struct {
	Driver       string `mapstructure:"driver" validate:"omitempty,oneof=sqlite3 sqlite pgx postgres postgresql"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	CreateSchema bool   `mapstructure:"create_schema"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port      int             `mapstructure:"port" validate:"min=1,max=65535"`
	Host      string          `mapstructure:"host"`
	APIPrefix string          `mapstructure:"api_prefix"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig configures request throttling. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int     `mapstructure:"burst" validate:"gte=0"`
}

// Load loads the configuration from descriptor.yml or descriptor.yaml in
// the working directory. A .env file there is loaded into the environment
// first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.api_prefix", "")
	v.SetDefault("server.rate_limit.requests_per_second", 0)
	v.SetDefault("server.rate_limit.burst", 1)

	v.SetConfigName("descriptor")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DESCRIPTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if url := GetDatabaseURL(); url != "" {
		for name, unit := range config.Units {
			unit.DSN = url
			config.Units[name] = unit
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetDatabaseURL returns the DATABASE_URL override, or ""
func GetDatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// Unit returns the overrides of a unit; the zero value when there are none
func (c *Config) Unit(name string) UnitConfig {
	return c.Units[name]
}

// Address returns the listen address of the HTTP server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Validate API prefix format
	if cfg.Server.APIPrefix != "" {
		if !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must start with '/', got: %s", cfg.Server.APIPrefix)
		}
		if strings.HasSuffix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must not end with '/', got: %s", cfg.Server.APIPrefix)
		}
	}
	return nil
}
