// Package config loads Riftwatch configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/riftwatch/riftwatch/internal/domain"
)

// Load builds the runtime configuration: defaults, then a .env file if one
// exists, then process environment overrides. The provider API key is the
// only required setting.
func Load() (*domain.Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := domain.DefaultConfig()

	cfg.Riot.APIKey = os.Getenv("RIOT_API_KEY")
	if cfg.Riot.APIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}

	setString(&cfg.Riot.AccountHost, "RIFTWATCH_ACCOUNT_HOST")
	setString(&cfg.Riot.DefaultRegion, "RIFTWATCH_REGION")

	setString(&cfg.Server.Host, "RIFTWATCH_HOST")
	setInt(&cfg.Server.Port, "RIFTWATCH_PORT")

	setString(&cfg.Repository.Driver, "RIFTWATCH_DB_DRIVER")
	setString(&cfg.Repository.SQLitePath, "RIFTWATCH_SQLITE_PATH")
	setString(&cfg.Repository.PostgresHost, "RIFTWATCH_PG_HOST")
	setInt(&cfg.Repository.PostgresPort, "RIFTWATCH_PG_PORT")
	setString(&cfg.Repository.PostgresUser, "RIFTWATCH_PG_USER")
	setString(&cfg.Repository.PostgresPassword, "RIFTWATCH_PG_PASSWORD")
	setString(&cfg.Repository.PostgresDB, "RIFTWATCH_PG_DB")
	setString(&cfg.Repository.PostgresSSLMode, "RIFTWATCH_PG_SSLMODE")

	setString(&cfg.Cache.Type, "RIFTWATCH_CACHE")
	setInt(&cfg.Cache.LocalMaxSize, "RIFTWATCH_CACHE_MAX_SIZE")
	setBool(&cfg.Cache.EnableTwoPhase, "RIFTWATCH_CACHE_TWO_PHASE")
	setString(&cfg.Cache.RedisAddr, "RIFTWATCH_REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "RIFTWATCH_REDIS_PASSWORD")
	setInt(&cfg.Cache.RedisDB, "RIFTWATCH_REDIS_DB")

	setString(&cfg.EventBus.Type, "RIFTWATCH_BUS")
	setString(&cfg.EventBus.NATSUrl, "RIFTWATCH_NATS_URL")
	setString(&cfg.EventBus.NATSToken, "RIFTWATCH_NATS_TOKEN")

	setBool(&cfg.Scan.Enabled, "RIFTWATCH_SCAN_ENABLED")
	setInt(&cfg.Scan.IntervalMinutes, "RIFTWATCH_SCAN_INTERVAL_MINUTES")

	setString(&cfg.Logging.Level, "RIFTWATCH_LOG_LEVEL")
	setString(&cfg.Logging.Format, "RIFTWATCH_LOG_FORMAT")

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
