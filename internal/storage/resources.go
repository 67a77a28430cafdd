package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/nav"
	"github.com/jwebster45206/questline/pkg/quest"
)

// Static resource file names under the data directory.
const (
	questsFile    = "quests.json"
	tilePairsFile = "tilepairs.json"
	warpsFile     = "warps.json"
	namesFile     = "names.json"
	routesDir     = "routes"
)

// resources loads static game data from the filesystem. Both store
// backends embed it: only progress persistence differs between them.
type resources struct {
	dataDir string
	logger  *slog.Logger
}

func (r *resources) LoadQuests(ctx context.Context) ([]quest.Quest, error) {
	path := filepath.Join(r.dataDir, questsFile)
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Error("Quest file not found", "path", path)
			return nil, fmt.Errorf("quest file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read quest file: %w", err)
	}

	var quests []quest.Quest
	if err := json.Unmarshal(file, &quests); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quest file: %w", err)
	}

	r.logger.Debug("Loaded quests", "path", path, "count", len(quests))
	return quests, nil
}

func (r *resources) LoadRoute(ctx context.Context, questID string) (*quest.Route, error) {
	path := filepath.Join(r.dataDir, routesDir, questID+".json")
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("Quest has no route file", "quest", questID)
			return nil, nil // Return nil for not found
		}
		return nil, fmt.Errorf("failed to read route file: %w", err)
	}

	var route quest.Route
	if err := json.Unmarshal(file, &route); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route file %s: %w", path, err)
	}
	if route.Quest == "" {
		route.Quest = questID
	}
	return &route, nil
}

func (r *resources) LoadTilePairs(ctx context.Context) ([]nav.TilePairRule, error) {
	path := filepath.Join(r.dataDir, tilePairsFile)
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("Tile-pair file missing, movement exceptions disabled", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tile-pair file: %w", err)
	}

	var rules []nav.TilePairRule
	if err := json.Unmarshal(file, &rules); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tile-pair file: %w", err)
	}

	r.logger.Debug("Loaded tile-pair rules", "count", len(rules))
	return rules, nil
}

func (r *resources) LoadWarpAllowances(ctx context.Context) (map[gamemap.ID][]grid.Point, error) {
	path := filepath.Join(r.dataDir, warpsFile)
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read warp allow-list file: %w", err)
	}

	var allow map[gamemap.ID][]grid.Point
	if err := json.Unmarshal(file, &allow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal warp allow-list file: %w", err)
	}
	return allow, nil
}

func (r *resources) LoadNames(ctx context.Context) (*Names, error) {
	path := filepath.Join(r.dataDir, namesFile)
	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Warn("Name table missing, ids read as unknown", "path", path)
			return &Names{}, nil
		}
		return nil, fmt.Errorf("failed to read name table: %w", err)
	}

	var names Names
	if err := json.Unmarshal(file, &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal name table: %w", err)
	}
	return &names, nil
}
