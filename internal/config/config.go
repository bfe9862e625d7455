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
	DB        DBConfig
	Redis     RedisConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Clicks    ClicksConfig
	Geo       GeoConfig
	Analytics AnalyticsConfig
}

type AppConfig struct {
	Port        string
	Env         string
	BaseURL     string
	FallbackURL string // куда отправлять посетителя при неизвестной/архивной ссылке
	AutoMigrate bool
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN строка подключения для pgx
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

// MigrateURL строка подключения для драйвера golang-migrate pgx/v5
func (c DBConfig) MigrateURL() string {
	return strings.Replace(c.DSN(), "postgres://", "pgx5://", 1)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenTTL     time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

// GoogleEnabled вход через Google доступен только при заданных ключах
func (c AuthConfig) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

type RateLimitConfig struct {
	RequestsPerSecond     float64
	BurstSize             int
	AuthRequestsPerSecond float64
	AuthBurstSize         int
}

type ClicksConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

type GeoConfig struct {
	IPInfoToken string
	Timeout     time.Duration
	CacheTTL    time.Duration
}

type AnalyticsConfig struct {
	Timezone string
}

// Location часовой пояс для границ недели в аналитике
func (c AnalyticsConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("FALLBACK_URL", "")
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "shortener")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CACHE_TTL", 24*time.Hour)

	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_ACCESS_TTL", 24*time.Hour)

	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("AUTH_RATE_LIMIT_RPS", 1)
	v.SetDefault("AUTH_RATE_LIMIT_BURST", 5)

	v.SetDefault("CLICK_WORKERS", 3)
	v.SetDefault("CLICK_BUFFER", 1000)
	v.SetDefault("CLICK_MAX_RETRIES", 3)

	v.SetDefault("GEO_TIMEOUT", 300*time.Millisecond)
	v.SetDefault("GEO_CACHE_TTL", 24*time.Hour)

	v.SetDefault("ANALYTICS_TZ", "Local")
}

// Load читает .env (если он есть) и переменные окружения
func Load() (*Config, error) {
	return LoadFrom(".env")
}

func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Без .env работаем на переменных окружения
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	cfg.App.Port = v.GetString("APP_PORT")
	cfg.App.Env = v.GetString("APP_ENV")
	cfg.App.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")
	cfg.App.FallbackURL = v.GetString("FALLBACK_URL")
	cfg.App.AutoMigrate = v.GetBool("DB_AUTO_MIGRATE")

	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetString("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.Name = v.GetString("DB_NAME")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.CacheTTL = v.GetDuration("REDIS_CACHE_TTL")

	cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	cfg.Auth.AccessTokenTTL = v.GetDuration("JWT_ACCESS_TTL")
	cfg.Auth.GoogleClientID = v.GetString("GOOGLE_CLIENT_ID")
	cfg.Auth.GoogleClientSecret = v.GetString("GOOGLE_CLIENT_SECRET")
	cfg.Auth.GoogleRedirectURL = v.GetString("GOOGLE_REDIRECT_URL")

	cfg.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.BurstSize = v.GetInt("RATE_LIMIT_BURST")
	cfg.RateLimit.AuthRequestsPerSecond = v.GetFloat64("AUTH_RATE_LIMIT_RPS")
	cfg.RateLimit.AuthBurstSize = v.GetInt("AUTH_RATE_LIMIT_BURST")

	cfg.Clicks.Workers = v.GetInt("CLICK_WORKERS")
	cfg.Clicks.BufferSize = v.GetInt("CLICK_BUFFER")
	cfg.Clicks.MaxRetries = v.GetInt("CLICK_MAX_RETRIES")

	cfg.Geo.IPInfoToken = v.GetString("IPINFO_TOKEN")
	cfg.Geo.Timeout = v.GetDuration("GEO_TIMEOUT")
	cfg.Geo.CacheTTL = v.GetDuration("GEO_CACHE_TTL")

	cfg.Analytics.Timezone = v.GetString("ANALYTICS_TZ")

	if cfg.Auth.GoogleRedirectURL == "" {
		cfg.Auth.GoogleRedirectURL = cfg.App.BaseURL + "/api/v1/auth/google/callback"
	}

	return &cfg, nil
}
