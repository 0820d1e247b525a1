package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/manor-engine/internal/config"
	"github.com/jwebster45206/manor-engine/internal/game"
	"github.com/jwebster45206/manor-engine/internal/handlers"
	"github.com/jwebster45206/manor-engine/internal/logger"
	"github.com/jwebster45206/manor-engine/internal/metrics"
	"github.com/jwebster45206/manor-engine/internal/middleware"
	"github.com/jwebster45206/manor-engine/internal/services/events"
	slots "github.com/jwebster45206/manor-engine/internal/storage"
	"github.com/jwebster45206/manor-engine/pkg/catalog"
	"github.com/jwebster45206/manor-engine/pkg/state"
	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Manor Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"save_backend", cfg.SaveBackend)

	content, err := catalog.Load(cfg.ContentPath)
	if err != nil {
		log.Error("Failed to load catalog", "error", err, "path", cfg.ContentPath)
		os.Exit(1)
	}
	if err := content.Validate(); err != nil {
		log.Error("Catalog failed validation", "error", err, "catalog", content.Name())
		os.Exit(1)
	}
	log.Info("Catalog loaded",
		"catalog", content.Name(),
		"scenes", len(content.Scenes()),
		"puzzles", len(content.Puzzles()))

	slot, redisClient, err := openSlot(cfg, log)
	if err != nil {
		log.Error("Failed to open save slot", "error", err, "backend", cfg.SaveBackend)
		os.Exit(1)
	}
	log.Info("Save slot ready", "backend", cfg.SaveBackend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hooks := []game.Hook{
		func(uuid.UUID) state.Listener { return m.Listener() },
	}
	if redisClient != nil {
		broadcaster := events.NewBroadcaster(redisClient, log)
		hooks = append(hooks, broadcaster.Listener)
	}

	registry := game.NewRegistry(content, slot, cfg.SaveKey, log, hooks...)
	registry.SetObserver(m)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepSessions(sweepCtx, registry, cfg, log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(slot, cfg.SaveBackend, log))
	mux.Handle("/metrics", m.Handler())

	sceneHandler := handlers.NewSceneHandler(content, log)
	mux.Handle("/v1/scenes", sceneHandler)
	mux.Handle("/v1/scenes/", sceneHandler)

	sessionHandler := handlers.NewSessionHandler(registry, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	if redisClient != nil {
		mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(redisClient, log))
	} else {
		log.Info("Event stream disabled, it requires the redis save backend")
	}

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE endpoint streams indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := slot.Close(); err != nil {
		log.Error("Error closing save slot", "error", err)
	}

	log.Info("Server exited")
}

// sweepSessions evicts idle sessions until ctx is done.
func sweepSessions(ctx context.Context, registry *game.Registry, cfg *config.Config, log *slog.Logger) {
	ticker := time.NewTicker(cfg.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := registry.Sweep(ctx, cfg.SessionIdle); n > 0 {
				log.Info("Evicted idle sessions", "evicted", n, "remaining", registry.Len())
			}
		}
	}
}

// openSlot builds the configured save backend. The redis client is returned
// for Pub/Sub when the redis backend is selected.
func openSlot(cfg *config.Config, log *slog.Logger) (storage.Slot, *redis.Client, error) {
	switch cfg.SaveBackend {
	case config.BackendRedis:
		rs, err := slots.NewRedisSlot(cfg.RedisURL, cfg.SaveTTL, log)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := rs.WaitForConnection(ctx, 10, 3*time.Second); err != nil {
			_ = rs.Close()
			return nil, nil, err
		}
		return rs, rs.Client(), nil

	case config.BackendSQLite:
		ss, err := slots.OpenSQLiteSlot(cfg.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return ss, nil, nil

	default:
		log.Warn("Using in-memory save slot, sessions are lost on restart")
		return storage.NewMemorySlot(), nil, nil
	}
}
