package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string
	LogLevel string

	DBDriver string
	DBDSN    string

	// origin the caching gateway fronts; also the sync upload target
	UpstreamURL string

	QuizDataDir  string
	HistoryCap   int
	CacheDir     string
	PolicyPath   string // cache policy YAML; empty means built-in defaults
	SyncInterval time.Duration

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:     envOr("HTTP_ADDR", ":8080"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		UpstreamURL:  envOr("UPSTREAM_URL", "http://localhost:3000"),
		QuizDataDir:  envOr("QUIZ_DATA_DIR", "./data/quizzes"),
		HistoryCap:   envInt("HISTORY_CAP", 50),
		CacheDir:     envOr("CACHE_DIR", "./data/cache"),
		PolicyPath:   envOr("CACHE_POLICY", ""),
		SyncInterval: envDuration("SYNC_INTERVAL", 5*time.Minute),
		CORSOrigins:  csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:3010"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
