package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ftthdiag/diagchat/adapters"
	"github.com/ftthdiag/diagchat/stores"
)

// Config collects everything the service reads from the environment.
type Config struct {
	Port          string
	Store         *stores.StoreConfig
	GeminiAPIKey  string
	RedisURL      string
	Adapters      adapters.Config
	MaxSteps      int
	MaxDuration   time.Duration
	SweepSchedule string
}

// LoadConfig reads the environment, loading a .env file first when one
// exists (not present in production).
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := Config{
		Port:          envOr("PORT", "8080"),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		RedisURL:      os.Getenv("REDIS_URL"),
		SweepSchedule: envOr("SWEEP_SCHEDULE", "@every 5m"),
		Adapters: adapters.Config{
			ZabbixURL:      os.Getenv("ZABBIX_URL"),
			ZabbixToken:    os.Getenv("ZABBIX_TOKEN"),
			Portal815URL:   os.Getenv("PORTAL_815_URL"),
			Portal7750URL:  os.Getenv("PORTAL_7750_URL"),
			AltiplanoURL:   os.Getenv("ALTIPLANO_URL"),
			SimpleFibraURL: os.Getenv("SIMPLEFIBRA_URL"),
			CortecaURL:     os.Getenv("CORTECA_URL"),
		},
	}

	cfg.Store = stores.NewStoreConfig(
		envOr("DB_TYPE", "sqlite"),
		envOr("DB_CONNECTION", "diagchat.sqlite"),
	)

	if v := os.Getenv("MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSteps = n
		} else {
			log.Printf("Ignoring invalid MAX_STEPS %q", v)
		}
	}
	if v := os.Getenv("MAX_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.MaxDuration = d
		} else {
			log.Printf("Ignoring invalid MAX_DURATION %q", v)
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
