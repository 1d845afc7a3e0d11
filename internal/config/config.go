package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Links     LinksConfig
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port    string
	Env     string
	BaseURL string
}

// LinksConfig единый источник значений по умолчанию для ссылок
type LinksConfig struct {
	DefaultVisitLimit int
	DefaultTTL        time.Duration
	MaxTTL            time.Duration
	SweepInterval     time.Duration
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Enabled журнал в Postgres включается заданием DB_HOST
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	Channel  string
}

// Enabled публикация событий в Redis включается заданием REDIS_HOST
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type AuthConfig struct {
	APIKeys map[string]string // API key -> name/description
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// Load читает конфигурацию из .env (если файл есть) и переменных окружения
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile как Load, но с явным путём к файлу конфигурации
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil && !isMissingFile(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = v.GetString("APP_BASE_URL")
	if !strings.HasSuffix(cfg.App.BaseURL, "/") {
		cfg.App.BaseURL += "/"
	}

	cfg.Links.DefaultVisitLimit = v.GetInt("LINK_VISIT_LIMIT")
	cfg.Links.DefaultTTL = v.GetDuration("LINK_TTL")
	cfg.Links.MaxTTL = v.GetDuration("LINK_MAX_TTL")
	cfg.Links.SweepInterval = v.GetDuration("SWEEP_INTERVAL")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.Channel = v.GetString("REDIS_CHANNEL")

	// Format: key1:name1,key2:name2
	cfg.Auth.APIKeys = parseAPIKeys(v.GetString("API_KEYS"))

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080/")
	v.SetDefault("LINK_VISIT_LIMIT", 5)
	v.SetDefault("LINK_TTL", 24*time.Hour)
	v.SetDefault("LINK_MAX_TTL", 30*24*time.Hour)
	v.SetDefault("SWEEP_INTERVAL", time.Hour)
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_CHANNEL", "links:events")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

func (c *Config) validate() error {
	if c.Links.DefaultVisitLimit <= 0 {
		return fmt.Errorf("LINK_VISIT_LIMIT must be positive, got %d", c.Links.DefaultVisitLimit)
	}
	if c.Links.DefaultTTL <= 0 {
		return fmt.Errorf("LINK_TTL must be positive, got %s", c.Links.DefaultTTL)
	}
	if c.Links.MaxTTL < c.Links.DefaultTTL {
		return fmt.Errorf("LINK_MAX_TTL (%s) is below LINK_TTL (%s)", c.Links.MaxTTL, c.Links.DefaultTTL)
	}
	if c.Links.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.Links.SweepInterval)
	}
	return nil
}

func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// parseAPIKeys parses comma-separated API keys in format "key1:name1,key2:name2"
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	if raw == "" {
		return keys
	}

	pairs := strings.Split(raw, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 {
			keys[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}

	return keys
}
