package gamemap

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ID identifies a single game map: one interior room or one overworld area.
type ID int

// Coord is a tile position qualified by the map it belongs to.
type Coord struct {
	Map ID  `json:"map"`
	X   int `json:"x"`
	Y   int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("map %d (%d,%d)", c.Map, c.X, c.Y)
}

// Map describes one map's size and placement on the shared world plane.
// Width and Height are in walkable tiles. Offsets position the map's
// top-left tile on the world plane; adjacent overworld maps are stitched
// by their offsets, interiors sit in a disjoint region of the plane.
type Map struct {
	ID      ID     `json:"id"`
	Name    string `json:"name"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	OffsetX int    `json:"offset_x"`
	OffsetY int    `json:"offset_y"`
	Indoor  bool   `json:"indoor,omitempty"`
}

// Atlas resolves map-local tile coordinates to the world plane and back.
// The zero value is unusable; construct with NewAtlas or Default.
type Atlas struct {
	maps map[ID]Map
}

// NewAtlas builds an atlas from an explicit map table. Later entries
// with a duplicate ID overwrite earlier ones.
func NewAtlas(maps []Map) *Atlas {
	a := &Atlas{maps: make(map[ID]Map, len(maps))}
	for _, m := range maps {
		a.maps[m.ID] = m
	}
	return a
}

// Lookup returns the table entry for id.
func (a *Atlas) Lookup(id ID) (Map, bool) {
	m, ok := a.maps[id]
	return m, ok
}

// LocalToGlobal converts a map-local tile coordinate to the world plane.
// ok is false when the map id is not in the table; callers must treat
// the coordinates as meaningless in that case. Local coordinates are
// not bounds-checked: positions slightly off-map occur mid-transition
// and still project consistently.
func (a *Atlas) LocalToGlobal(id ID, lx, ly int) (gx, gy int, ok bool) {
	m, ok := a.maps[id]
	if !ok {
		return 0, 0, false
	}
	return m.OffsetX + lx, m.OffsetY + ly, true
}

// GlobalToLocal is the inverse of LocalToGlobal for the same map id.
func (a *Atlas) GlobalToLocal(id ID, gx, gy int) (lx, ly int, ok bool) {
	m, ok := a.maps[id]
	if !ok {
		return 0, 0, false
	}
	return gx - m.OffsetX, gy - m.OffsetY, true
}

// Contains reports whether the world-plane point falls inside the
// map's own rectangle.
func (a *Atlas) Contains(id ID, gx, gy int) bool {
	m, ok := a.maps[id]
	if !ok {
		return false
	}
	return gx >= m.OffsetX && gx < m.OffsetX+m.Width &&
		gy >= m.OffsetY && gy < m.OffsetY+m.Height
}

var titleCaser = cases.Title(language.English)

// Name returns a display name for the map, title-cased from the table
// entry, or a numeric placeholder for maps the table does not know.
func (a *Atlas) Name(id ID) string {
	m, ok := a.maps[id]
	if !ok || m.Name == "" {
		return fmt.Sprintf("map %d", id)
	}
	return titleCaser.String(m.Name)
}
