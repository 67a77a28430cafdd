package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// EmulatorURL is the websocket bridge the driver connects to.
	EmulatorURL string

	// DataDir holds the static definitions: quests.json, routes/,
	// tilepairs.json, names.json, warps.json.
	DataDir string
	// StateDir holds the mutable completion maps.
	StateDir string
	// RedisURL enables the status broadcaster, and the Redis progress
	// backend when StateDir is empty. Empty disables both.
	RedisURL string
	// JournalPath enables the SQLite step journal. Empty disables it.
	JournalPath string

	FramesPerStep int
	StallLimit    int
	StepDelay     time.Duration
}

// fileConfig is the YAML shape of an optional config file. Durations
// are millisecond integers.
type fileConfig struct {
	Port          string `yaml:"port"`
	Environment   string `yaml:"environment"`
	LogLevel      string `yaml:"log_level"`
	EmulatorURL   string `yaml:"emulator_url"`
	DataDir       string `yaml:"data_dir"`
	StateDir      string `yaml:"state_dir"`
	RedisURL      string `yaml:"redis_url"`
	JournalPath   string `yaml:"journal_path"`
	FramesPerStep int    `yaml:"frames_per_step"`
	StallLimit    int    `yaml:"stall_limit"`
	StepDelayMS   int    `yaml:"step_delay_ms"`
}

// Load builds the config from defaults, then the optional YAML file,
// then environment variables. Environment wins.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:          "8080",
		Environment:   "development",
		LogLevel:      slog.LevelInfo,
		EmulatorURL:   "ws://localhost:8765",
		DataDir:       "./data",
		StateDir:      "./state",
		FramesPerStep: 24,
		StallLimit:    8,
	}

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = parseLogLevel(fc.LogLevel)
	}
	if fc.EmulatorURL != "" {
		cfg.EmulatorURL = fc.EmulatorURL
	}
	if fc.DataDir != "" {
		cfg.DataDir = fc.DataDir
	}
	if fc.StateDir != "" {
		cfg.StateDir = fc.StateDir
	}
	if fc.RedisURL != "" {
		cfg.RedisURL = fc.RedisURL
	}
	if fc.JournalPath != "" {
		cfg.JournalPath = fc.JournalPath
	}
	if fc.FramesPerStep > 0 {
		cfg.FramesPerStep = fc.FramesPerStep
	}
	if fc.StallLimit > 0 {
		cfg.StallLimit = fc.StallLimit
	}
	if fc.StepDelayMS > 0 {
		cfg.StepDelay = time.Duration(fc.StepDelayMS) * time.Millisecond
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	cfg.EmulatorURL = getEnv("EMULATOR_URL", cfg.EmulatorURL)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.StateDir = getEnv("STATE_DIR", cfg.StateDir)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.JournalPath = getEnv("JOURNAL_PATH", cfg.JournalPath)
	cfg.FramesPerStep = getEnvInt("FRAMES_PER_STEP", cfg.FramesPerStep)
	cfg.StallLimit = getEnvInt("STALL_LIMIT", cfg.StallLimit)
	if ms := getEnvInt("STEP_DELAY_MS", 0); ms > 0 {
		cfg.StepDelay = time.Duration(ms) * time.Millisecond
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
