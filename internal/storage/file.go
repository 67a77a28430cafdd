package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Progress file names under the state directory.
const (
	questStatusFile   = "quest_status.json"
	triggerStatusFile = "trigger_status.json"
)

// FileStore implements Store entirely on the filesystem. Progress is
// two small JSON maps written by whole-file overwrite; a corrupt or
// missing file reads as nothing completed yet.
type FileStore struct {
	resources
	stateDir string
}

// Ensure FileStore implements Store interface
var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store. dataDir holds static
// resources, stateDir the mutable progress files.
func NewFileStore(dataDir, stateDir string, logger *slog.Logger) *FileStore {
	if dataDir == "" {
		dataDir = "./data"
	}
	if stateDir == "" {
		stateDir = "./state"
	}
	return &FileStore{
		resources: resources{dataDir: dataDir, logger: logger},
		stateDir:  stateDir,
	}
}

func (f *FileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(f.dataDir); err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) LoadProgress(ctx context.Context) (map[string]bool, map[string]bool, error) {
	quests := f.loadStatusMap(questStatusFile)
	triggers := f.loadStatusMap(triggerStatusFile)
	return quests, triggers, nil
}

// loadStatusMap reads one completion map. Missing or corrupt files
// degrade to an empty map so a damaged session never blocks startup.
func (f *FileStore) loadStatusMap(name string) map[string]bool {
	path := filepath.Join(f.stateDir, name)
	file, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			f.logger.Warn("Failed to read status file, starting fresh", "path", path, "error", err)
		}
		return make(map[string]bool)
	}

	var m map[string]bool
	if err := json.Unmarshal(file, &m); err != nil {
		f.logger.Warn("Corrupt status file, starting fresh", "path", path, "error", err)
		return make(map[string]bool)
	}
	if m == nil {
		m = make(map[string]bool)
	}
	return m
}

func (f *FileStore) SaveProgress(ctx context.Context, quests map[string]bool, triggers map[string]bool) error {
	if err := os.MkdirAll(f.stateDir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := f.saveStatusMap(questStatusFile, quests); err != nil {
		return err
	}
	return f.saveStatusMap(triggerStatusFile, triggers)
}

func (f *FileStore) saveStatusMap(name string, m map[string]bool) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal status map: %w", err)
	}

	path := filepath.Join(f.stateDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.logger.Error("Failed to write status file", "path", path, "error", err)
		return fmt.Errorf("failed to write status file: %w", err)
	}
	return nil
}
