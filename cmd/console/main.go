package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/questline/internal/status"
)

type ConsoleConfig struct {
	RedisURL string
}

func main() {
	cfg := &ConsoleConfig{
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid Redis URL: %v\n", err)
		os.Exit(1)
	}
	client := redis.NewClient(opts)
	defer func() {
		_ = client.Close() // Ignore error in defer
	}()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to Redis at %s. Is the agent's Redis running?\n", cfg.RedisURL)
		os.Exit(1)
	}

	// Console logging goes to stderr so it never tears the UI.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := status.NewSubscriber(ctx, client, logger)
	defer func() {
		_ = sub.Close() // Ignore error in defer
	}()

	p := tea.NewProgram(NewConsoleUI(sub),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
