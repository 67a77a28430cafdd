package warp

import (
	"fmt"
	"sync"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

// Kind classifies a map's warps by footprint. Door warps span two
// adjacent tiles (building doors render two tiles wide), single-tile
// warps are stairs, ladders, and cave mouths.
type Kind uint8

const (
	SingleTile Kind = iota
	Door
)

func (k Kind) String() string {
	if k == Door {
		return "door"
	}
	return "single"
}

// Threshold is the Manhattan distance at which the player counts as
// standing next to a warp of this kind. A two-tile door is reachable
// from one tile further out than a single stair tile.
func (k Kind) Threshold() int {
	if k == Door {
		return 2
	}
	return 1
}

// Raw is one entry of a map's warp table as read from the map header.
type Raw struct {
	X           int        `json:"x"`
	Y           int        `json:"y"`
	TargetMap   gamemap.ID `json:"target_map"`
	TargetIndex int        `json:"target_index"`
}

// Record is one classified warp tile.
type Record struct {
	Map         gamemap.ID `json:"map"`
	X           int        `json:"x"`
	Y           int        `json:"y"`
	TargetMap   gamemap.ID `json:"target_map"`
	TargetIndex int        `json:"target_index"`
	Kind        Kind       `json:"kind"`
	Label       string     `json:"label,omitempty"` // matched signature name, or "listed"
}

func (r Record) String() string {
	return fmt.Sprintf("%s warp (%d,%d) -> map %d slot %d", r.Kind, r.X, r.Y, r.TargetMap, r.TargetIndex)
}

// MapWarps is the cached classification result for one map.
type MapWarps struct {
	Map     gamemap.ID `json:"map"`
	Kind    Kind       `json:"kind"`
	Records []Record   `json:"records"`
}

// Threshold returns the proximity threshold for this map's warps.
func (m *MapWarps) Threshold() int {
	return m.Kind.Threshold()
}

// AtTile returns the warp on the exact tile, if any.
func (m *MapWarps) AtTile(x, y int) (Record, bool) {
	for _, r := range m.Records {
		if r.X == x && r.Y == y {
			return r, true
		}
	}
	return Record{}, false
}

// Nearest returns the closest warp to the given tile and its Manhattan
// distance.
func (m *MapWarps) Nearest(x, y int) (Record, int, bool) {
	best := Record{}
	bestDist := -1
	for _, r := range m.Records {
		d := abs(r.X-x) + abs(r.Y-y)
		if bestDist < 0 || d < bestDist {
			best, bestDist = r, d
		}
	}
	if bestDist < 0 {
		return Record{}, 0, false
	}
	return best, bestDist, true
}

// Near reports whether the tile is within this map's proximity
// threshold of any warp.
func (m *MapWarps) Near(x, y int) bool {
	_, d, ok := m.Nearest(x, y)
	return ok && d <= m.Threshold()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// signatures whitelists the 2x2 background blocks that mark a warp
// tile, keyed row-major (top-left, top-right, bottom-left,
// bottom-right).
var signatures = map[[4]byte]string{
	{0x1A, 0x1B, 0x2A, 0x2B}: "town door",
	{0x58, 0x59, 0x68, 0x69}: "building door",
	{0x5A, 0x5B, 0x6A, 0x6B}: "door mat",
	{0x70, 0x71, 0x80, 0x81}: "stairs up",
	{0x72, 0x73, 0x82, 0x83}: "stairs down",
	{0x29, 0x2A, 0x39, 0x3A}: "cave mouth",
}

// Detector classifies warps and caches the result per map id for the
// process lifetime. Warp tables are static game data, so the cache is
// never invalidated.
type Detector struct {
	mu    sync.RWMutex
	cache map[gamemap.ID]*MapWarps
	allow map[gamemap.ID][]grid.Point
}

// NewDetector builds a detector. allow lists maps whose warp tiles are
// known up front; warps on those maps match by coordinate instead of
// background signature. A nil allow map is valid.
func NewDetector(allow map[gamemap.ID][]grid.Point) *Detector {
	return &Detector{
		cache: make(map[gamemap.ID]*MapWarps),
		allow: allow,
	}
}

// Cached returns the classification for a map already detected.
func (d *Detector) Cached(id gamemap.ID) (*MapWarps, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m, ok := d.cache[id]
	return m, ok
}

// Detect classifies a map's warp table and caches the result. table is
// the raw warp list from the map header; blockAt returns the 2x2
// background block at a map-local tile, ok=false when the tile is not
// currently readable (off screen). Entries that match neither the
// allow-list nor a whitelisted signature are dropped: script warps and
// map-edge exits are not door tiles. Subsequent calls for the same map
// return the first result unchanged.
func (d *Detector) Detect(id gamemap.ID, table []Raw, blockAt func(x, y int) ([4]byte, bool)) *MapWarps {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.cache[id]; ok {
		return m
	}

	m := &MapWarps{Map: id, Kind: SingleTile}
	allowed := d.allow[id]
	for _, raw := range table {
		label, ok := d.classify(raw, allowed, blockAt)
		if !ok {
			continue
		}
		m.Records = append(m.Records, Record{
			Map:         id,
			X:           raw.X,
			Y:           raw.Y,
			TargetMap:   raw.TargetMap,
			TargetIndex: raw.TargetIndex,
			Label:       label,
		})
	}

	// Two mutually adjacent warp tiles mean two-tile doors, which
	// widens the proximity threshold for the whole map.
	for i := range m.Records {
		for j := i + 1; j < len(m.Records); j++ {
			a, b := m.Records[i], m.Records[j]
			if abs(a.X-b.X)+abs(a.Y-b.Y) == 1 {
				m.Kind = Door
			}
		}
	}
	for i := range m.Records {
		m.Records[i].Kind = m.Kind
	}

	d.cache[id] = m
	return m
}

func (d *Detector) classify(raw Raw, allowed []grid.Point, blockAt func(x, y int) ([4]byte, bool)) (string, bool) {
	for _, p := range allowed {
		if p.X == raw.X && p.Y == raw.Y {
			return "listed", true
		}
	}
	if blockAt == nil {
		return "", false
	}
	block, ok := blockAt(raw.X, raw.Y)
	if !ok {
		return "", false
	}
	label, ok := signatures[block]
	return label, ok
}
