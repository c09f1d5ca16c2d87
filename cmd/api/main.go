package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/voyage-engine/internal/config"
	"github.com/jwebster45206/voyage-engine/internal/handlers"
	"github.com/jwebster45206/voyage-engine/internal/logger"
	"github.com/jwebster45206/voyage-engine/internal/metrics"
	"github.com/jwebster45206/voyage-engine/internal/services/events"
	"github.com/jwebster45206/voyage-engine/internal/storage"
	"github.com/jwebster45206/voyage-engine/internal/watcher"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Voyage Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"stories_dir", cfg.StoriesDir,
		"default_story", cfg.DefaultStory)

	library := storage.NewLibrary(cfg.StoriesDir, log)
	if _, err := library.Get(context.Background(), cfg.DefaultStory); err != nil {
		log.Error("Failed to load default story", "story", cfg.DefaultStory, "error", err)
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, library, cfg.SessionTTL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchStories {
		w, err := watcher.New(cfg.StoriesDir, watcher.DefaultDebounce, func(filename string) {
			library.Invalidate(filename)
			metrics.StoryReloads.Inc()
		}, log)
		if err != nil {
			log.Error("Failed to watch stories directory", "error", err)
			os.Exit(1)
		}
		defer w.Close()
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error("Story watcher stopped", "error", err)
			}
		}()
	}

	broadcaster := events.NewBroadcaster(store.Client(), log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	mux.Handle("/metrics", promhttp.Handler())

	storyHandler := handlers.NewStoryHandler(log, store)
	mux.Handle("/v1/stories", storyHandler)
	mux.Handle("/v1/stories/", storyHandler)

	sessionHandler := handlers.NewSessionHandler(store, broadcaster, cfg.DefaultStory, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(store.Client(), log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE endpoint holds connections open
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
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
