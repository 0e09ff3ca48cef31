package config

import (
	"errors"
	"os"
	"strings"
)

type AppConfig struct {
	RedisURL    string
	DatabaseURL string

	// Pub/sub channels.
	ScoreChannel     string
	CommunityChannel string

	// Optional path to a catalog file overriding the embedded game list.
	CatalogPath string

	// Listen address for the Prometheus endpoint. Empty disables it.
	MetricsAddr string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ScoreChannel:     "high-score-processor",
		CommunityChannel: "community-message",
		MetricsAddr:      ":9091",
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.CatalogPath = strings.TrimSpace(os.Getenv("CATALOG_PATH"))

	if v := strings.TrimSpace(os.Getenv("SCORE_CHANNEL")); v != "" {
		cfg.ScoreChannel = v
	}
	if v := strings.TrimSpace(os.Getenv("COMMUNITY_CHANNEL")); v != "" {
		cfg.CommunityChannel = v
	}
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = strings.TrimSpace(v)
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}
