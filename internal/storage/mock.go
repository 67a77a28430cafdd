package storage

import (
	"context"
	"sync"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/nav"
	"github.com/jwebster45206/questline/pkg/quest"
)

// MockStore is an in-memory Store for testing.
type MockStore struct {
	mu        sync.RWMutex
	quests    []quest.Quest
	routes    map[string]*quest.Route
	tilePairs []nav.TilePairRule
	warps     map[gamemap.ID][]grid.Point
	names     Names

	questStatus   map[string]bool
	triggerStatus map[string]bool

	pingError error
	saveError error
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		routes:        make(map[string]*quest.Route),
		warps:         make(map[gamemap.ID][]grid.Point),
		questStatus:   make(map[string]bool),
		triggerStatus: make(map[string]bool),
	}
}

// SetQuests scripts the quest list
func (m *MockStore) SetQuests(quests []quest.Quest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quests = quests
}

// AddRoute scripts one quest's route
func (m *MockStore) AddRoute(questID string, route *quest.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[questID] = route
}

// SetTilePairs scripts the movement exception rules
func (m *MockStore) SetTilePairs(rules []nav.TilePairRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tilePairs = rules
}

// SetWarpAllowances scripts the per-map warp allow-lists
func (m *MockStore) SetWarpAllowances(allow map[gamemap.ID][]grid.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warps = allow
}

// SetNames scripts the species and item name tables
func (m *MockStore) SetNames(names Names) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = names
}

// SetPingError configures the mock to fail health checks
func (m *MockStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail progress saves
func (m *MockStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStore) Close() error {
	return nil
}

func (m *MockStore) LoadQuests(ctx context.Context) ([]quest.Quest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]quest.Quest, len(m.quests))
	copy(out, m.quests)
	return out, nil
}

func (m *MockStore) LoadRoute(ctx context.Context, questID string) (*quest.Route, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.routes[questID], nil
}

func (m *MockStore) LoadTilePairs(ctx context.Context) ([]nav.TilePairRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tilePairs, nil
}

func (m *MockStore) LoadWarpAllowances(ctx context.Context) (map[gamemap.ID][]grid.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.warps, nil
}

func (m *MockStore) LoadNames(ctx context.Context) (*Names, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := m.names
	return &names, nil
}

func (m *MockStore) LoadProgress(ctx context.Context) (map[string]bool, map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	quests := make(map[string]bool, len(m.questStatus))
	for k, v := range m.questStatus {
		quests[k] = v
	}
	triggers := make(map[string]bool, len(m.triggerStatus))
	for k, v := range m.triggerStatus {
		triggers[k] = v
	}
	return quests, triggers, nil
}

func (m *MockStore) SaveProgress(ctx context.Context, quests map[string]bool, triggers map[string]bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.questStatus = make(map[string]bool, len(quests))
	for k, v := range quests {
		m.questStatus[k] = v
	}
	m.triggerStatus = make(map[string]bool, len(triggers))
	for k, v := range triggers {
		m.triggerStatus[k] = v
	}
	return nil
}
