package storage

import (
	"context"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/nav"
	"github.com/jwebster45206/questline/pkg/quest"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the backing store
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close releases the backing store
	Close() error
}

// Names maps raw species and item ids to display names. Triggers and
// scripted rules match on these names, never on raw ids.
type Names struct {
	Species map[int]string `json:"species,omitempty"`
	Items   map[int]string `json:"items,omitempty"`
}

// Store defines the interface for quest resources and progress
// persistence. Static resources (quest list, routes, tile-pair rules,
// name tables) load from the data directory; the two completion maps
// are the only mutable state.
type Store interface {
	HealthChecker
	Closer
	quest.ProgressStore

	// LoadQuests loads the ordered quest list. A session cannot run
	// without it.
	LoadQuests(ctx context.Context) ([]quest.Quest, error)

	// LoadRoute loads the scripted route for a quest. Returns nil if
	// the quest has no route file.
	LoadRoute(ctx context.Context, questID string) (*quest.Route, error)

	// LoadTilePairs loads the tile-pair movement exceptions. A missing
	// file reads as no rules.
	LoadTilePairs(ctx context.Context) ([]nav.TilePairRule, error)

	// LoadWarpAllowances loads the per-map warp tile allow-lists that
	// override signature detection. A missing file reads as empty.
	LoadWarpAllowances(ctx context.Context) (map[gamemap.ID][]grid.Point, error)

	// LoadNames loads the id-to-name tables. A missing file reads as
	// empty tables.
	LoadNames(ctx context.Context) (*Names, error)
}
