package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	SessionSecret       string
	DatabaseURL         string // empty: ledger lives in an in-process SQLite database
	RedisURL            string // empty: no sessions and no event publishing
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	EventsChannel       string
	EventsStream        string
	EventsStreamMaxLen  int64
	EventsTimeout       time.Duration
	EventsBuffer        int
	MetricsEnabled      bool
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("EVENTS_CHANNEL", "ledger:events")
	v.SetDefault("EVENTS_STREAM", "ledger:events:log")
	v.SetDefault("EVENTS_STREAM_MAXLEN", 100000)
	v.SetDefault("EVENTS_TIMEOUT_MS", 500)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("EVENTS_BUFFER", 1024)

	cfg := &Config{
		Env:                 strings.ToLower(v.GetString("APP_ENV")),
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		EventsChannel:       v.GetString("EVENTS_CHANNEL"),
		EventsStream:        v.GetString("EVENTS_STREAM"),
		EventsStreamMaxLen:  v.GetInt64("EVENTS_STREAM_MAXLEN"),
		EventsTimeout:       time.Duration(v.GetInt("EVENTS_TIMEOUT_MS")) * time.Millisecond,
		EventsBuffer:        v.GetInt("EVENTS_BUFFER"),
		MetricsEnabled:      v.GetBool("METRICS_ENABLED"),
	}
	if cfg.IsProduction() && cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is required in production")
	}
	return cfg, nil
}
