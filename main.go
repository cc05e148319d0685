package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ftthdiag/diagchat/adapters"
	"github.com/ftthdiag/diagchat/models/gemini"
	"github.com/ftthdiag/diagchat/server"
	"github.com/ftthdiag/diagchat/stores"
	"github.com/ftthdiag/diagchat/streams"
)

func main() {
	cfg := LoadConfig()

	store, err := stores.NewStore(cfg.Store)
	if err != nil {
		log.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	registry := buildRegistry(cfg)
	if registry != nil {
		defer registry.Close()
	}

	model := gemini.NewClient(cfg.GeminiAPIKey)
	adapterMap := adapters.NewAdapterMap(cfg.Adapters)

	srv := server.New(store, registry, model, adapterMap)
	srv.MaxSteps = cfg.MaxSteps
	srv.MaxDuration = cfg.MaxDuration

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	titler, err := server.NewGenaiTitler(ctx, "")
	cancel()
	if err != nil {
		log.Printf("Title generation disabled: %v", err)
	} else {
		srv.Titler = titler
	}

	router := gin.Default()
	srv.Routes(router)

	log.Printf("Listening on :%s with %d diagnostic tools", cfg.Port, len(adapterMap))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// buildRegistry connects the resumable-stream registry. Without a
// REDIS_URL the service still works, it just cannot resume streams after
// a disconnect, and says so at startup.
func buildRegistry(cfg Config) *streams.Registry {
	if cfg.RedisURL == "" {
		log.Println("Resumable streams are disabled due to missing REDIS_URL")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	broker, err := streams.NewRedisBroker(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Resumable streams are disabled, Redis unreachable: %v", err)
		return nil
	}

	registry := streams.NewRegistry(broker)
	if err := registry.StartSweeper(cfg.SweepSchedule); err != nil {
		log.Printf("Stream sweeper not started: %v", err)
	}
	return registry
}
