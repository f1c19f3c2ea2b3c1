package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the procurement engine. Everything
// comes from environment variables, with a .env file as fallback for local
// development.
type Config struct {
	HTTPAddr      string
	MetricsAddr   string
	SweepInterval time.Duration
	RunMigrations bool
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":9000"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9100"),
		SweepInterval: getDuration("SWEEP_INTERVAL", time.Minute),
		RunMigrations: getEnv("RUN_MIGRATIONS", "true") == "true",
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
