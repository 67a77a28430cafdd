package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/questline/internal/agent"
	"github.com/jwebster45206/questline/internal/config"
	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/internal/journal"
	"github.com/jwebster45206/questline/internal/logger"
	"github.com/jwebster45206/questline/internal/status"
	"github.com/jwebster45206/questline/internal/storage"
	"github.com/jwebster45206/questline/internal/web"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Questline Agent",
		"environment", cfg.Environment,
		"emulator_url", cfg.EmulatorURL,
		"data_dir", cfg.DataDir)

	// Storage: file-backed progress by default; Redis progress when a
	// Redis URL is set and no state dir overrides it.
	var store storage.Store
	if cfg.RedisURL != "" && cfg.StateDir == "" {
		redisStore, err := storage.NewRedisStore(cfg.RedisURL, cfg.DataDir, log)
		if err != nil {
			log.Error("Failed to create Redis storage", "error", err)
			os.Exit(1)
		}
		store = redisStore
	} else {
		store = storage.NewFileStore(cfg.DataDir, cfg.StateDir, log)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage initialized successfully")

	// Emulator bridge connection.
	driver := emulator.NewRemote(cfg.EmulatorURL, log)
	connectCtx, connectCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer connectCancel()
	if err := driver.Connect(connectCtx); err != nil {
		log.Error("Failed to connect to emulator bridge", "error", err, "url", cfg.EmulatorURL)
		os.Exit(1)
	}
	defer func() {
		if err := driver.Close(); err != nil {
			log.Error("Error closing emulator connection", "error", err)
		}
	}()

	// Status channel is optional; without Redis the agent runs silent.
	var pub status.Publisher = status.Nop{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Error("Failed to parse Redis URL", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", "error", err)
			}
		}()
		pub = status.NewBroadcaster(redisClient, log)
		log.Info("Status broadcaster initialized successfully")
	}

	// Step journal is optional.
	var jour *journal.Journal
	if cfg.JournalPath != "" {
		jour, err = journal.Open(cfg.JournalPath, log)
		if err != nil {
			log.Error("Failed to open step journal", "error", err, "path", cfg.JournalPath)
			os.Exit(1)
		}
		defer func() {
			if err := jour.Close(); err != nil {
				log.Error("Error closing step journal", "error", err)
			}
		}()
		log.Info("Step journal initialized successfully", "path", cfg.JournalPath)
	}

	a, err := agent.New(context.Background(), agent.Config{
		FramesPerStep: cfg.FramesPerStep,
		StallLimit:    cfg.StallLimit,
		StepDelay:     cfg.StepDelay,
	}, driver, store, pub, jour, log)
	if err != nil {
		log.Error("Failed to create agent", "error", err)
		os.Exit(1)
	}

	// Health endpoint for liveness probes.
	mux := http.NewServeMux()
	mux.Handle("/health", web.NewHealthHandler(store, driver, log))
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		log.Info("Health server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Health server failed to start", "error", err)
		}
	}()

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := a.Start(); err != nil {
			log.Error("Agent error", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	log.Info("Shutting down...")

	a.Stop()

	// Give the loop time to finish the current step
	time.Sleep(2 * time.Second)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Health server forced to shutdown", "error", err)
	}

	log.Info("Agent exited")
}
