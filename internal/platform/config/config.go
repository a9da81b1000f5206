package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config del servicio. YAML opcional; las env vars siempre pisan.
// Secretos (passwords, api keys) solo por env.
type Config struct {
	Port string `yaml:"port" env:"PORT" env-default:"8080"`
	Env  string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	Log            LogConfig            `yaml:"log"`
	Database       DatabaseConfig       `yaml:"database"`
	Redis          RedisConfig          `yaml:"redis"`
	Auth           AuthConfig           `yaml:"auth"`
	HelperRegistry HelperRegistryConfig `yaml:"helper_registry"`
	Placement      PlacementConfig      `yaml:"placement"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	App    string `yaml:"app" env:"APP_NAME" env-default:"pet-placement"`
}

// DatabaseConfig: DSN vacío => store in-memory (modo dev).
type DatabaseConfig struct {
	DSN          string `yaml:"-" env:"DB_DSN"`
	AutoMigrate  bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	MaxOpenConns int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"10"`
}

// RedisConfig: Addr vacío => notifier solo-log.
type RedisConfig struct {
	Addr          string `yaml:"addr" env:"REDIS_ADDR" env-default:""`
	Password      string `yaml:"-" env:"REDIS_PASSWORD"`
	DB            int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	ChannelPrefix string `yaml:"channel_prefix" env:"REDIS_CHANNEL_PREFIX" env-default:"placement"`
}

// AuthConfig: BaseURL vacío => modo dev (X-Debug-User-ID).
type AuthConfig struct {
	OdinBaseURL string `yaml:"odin_base_url" env:"ODIN_BASE_URL" env-default:""`
	OdinAPIKey  string `yaml:"-" env:"ODIN_API_KEY"`
}

// HelperRegistryConfig: BaseURL vacío => perfiles locales (mismo store).
type HelperRegistryConfig struct {
	BaseURL string        `yaml:"base_url" env:"HELPER_REGISTRY_URL" env-default:""`
	APIKey  string        `yaml:"-" env:"HELPER_REGISTRY_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"HELPER_REGISTRY_TIMEOUT" env-default:"5s"`
}

type PlacementConfig struct {
	PermanentExpiryDays int `yaml:"permanent_expiry_days" env:"PERMANENT_EXPIRY_DAYS" env-default:"60"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// Load lee path (si existe) y aplica env vars encima.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) PermanentExpiry() time.Duration {
	return time.Duration(c.Placement.PermanentExpiryDays) * 24 * time.Hour
}

func (c *Config) validate() error {
	if c.Placement.PermanentExpiryDays <= 0 {
		return errors.New("permanent_expiry_days must be positive")
	}
	if c.Auth.OdinBaseURL != "" && c.Auth.OdinAPIKey == "" {
		return errors.New("ODIN_API_KEY is required when ODIN_BASE_URL is set")
	}
	return nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
