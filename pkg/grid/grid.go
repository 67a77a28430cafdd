package grid

import (
	"fmt"
	"strings"
)

// Screen dimensions at native tile resolution and at walkable-cell
// resolution. One walkable cell covers an aligned 2x2 block of native
// tiles, so the 20x18 viewport downsamples to 10x9 cells.
const (
	NativeCols = 20
	NativeRows = 18
	Cols       = NativeCols / 2
	Rows       = NativeRows / 2
)

// Center is the viewport cell the camera keeps the player on. It is
// also the fallback player position when the sprite-pattern scan finds
// no match; paths planned from the fallback may be offset by a cell or
// two, which callers must tolerate.
var Center = Cell{Row: 4, Col: 4}

// Cell addresses one walkable cell in the viewport. Row 0 is the top
// of the screen.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// InBounds reports whether the cell lies on the viewport grid.
func (c Cell) InBounds() bool {
	return c.Row >= 0 && c.Row < Rows && c.Col >= 0 && c.Col < Cols
}

// Manhattan returns the L1 distance between two cells.
func Manhattan(a, b Cell) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// Direction is one cardinal step on the grid.
type Direction uint8

const (
	Down Direction = iota
	Up
	Left
	Right
)

var directionNames = map[Direction]string{
	Down:  "down",
	Up:    "up",
	Left:  "left",
	Right: "right",
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// Delta returns the row and column displacement of one step.
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case Down:
		return 1, 0
	case Up:
		return -1, 0
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	}
	return 0, 0
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case Left:
		return Right
	default:
		return Left
	}
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	for dir, name := range directionNames {
		if name == s {
			*d = dir
			return nil
		}
	}
	return fmt.Errorf("unknown direction %q", s)
}

// Step returns the cell one step from c in direction d. The result may
// be out of bounds; callers check InBounds.
func Step(c Cell, d Direction) Cell {
	dr, dc := d.Delta()
	return Cell{Row: c.Row + dr, Col: c.Col + dc}
}

// Toward returns the direction of the single step from a to b, which
// must be cardinally adjacent.
func Toward(a, b Cell) (Direction, error) {
	for _, d := range []Direction{Down, Up, Left, Right} {
		if Step(a, d) == b {
			return d, nil
		}
	}
	return Down, fmt.Errorf("cells %s and %s are not adjacent", a, b)
}

// Entity marks what occupies a cell on top of terrain. Overlay
// precedence is Warp > Sprite > Sign > None: a later overlay never
// downgrades an earlier, higher-precedence one.
type Entity uint8

const (
	None Entity = iota
	Sign
	Sprite
	Warp
)

func (e Entity) String() string {
	switch e {
	case Sign:
		return "sign"
	case Sprite:
		return "sprite"
	case Warp:
		return "warp"
	default:
		return "none"
	}
}

// Info is everything known about one cell: terrain walkability, the
// highest-precedence entity overlaid on it, that entity's index in its
// source table, the cell's native 2x2 background block, and the cell's
// world coordinates (map-local, camera-independent).
type Info struct {
	Walkable bool    `json:"walkable"`
	Entity   Entity  `json:"entity,omitempty"`
	EntityID int     `json:"entity_id,omitempty"`
	Tiles    [4]byte `json:"-"`
	WorldX   int     `json:"world_x"`
	WorldY   int     `json:"world_y"`
}

// Grid is one navigable view of the visible screen. It is rebuilt from
// scratch for every navigation query and never persisted.
type Grid struct {
	cells [Rows][Cols]Info
}

// New returns a grid with every cell walkable, no entities, and world
// coordinates equal to the cell's own column and row.
func New() *Grid {
	g := &Grid{}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			g.cells[r][c] = Info{Walkable: true, WorldX: c, WorldY: r}
		}
	}
	return g
}

// At returns the cell's info. Out-of-bounds cells read as unwalkable.
func (g *Grid) At(c Cell) Info {
	if !c.InBounds() {
		return Info{}
	}
	return g.cells[c.Row][c.Col]
}

// Walkable reports whether terrain admits the cell.
func (g *Grid) Walkable(c Cell) bool {
	return c.InBounds() && g.cells[c.Row][c.Col].Walkable
}

// Occupied reports whether a sprite stands on the cell.
func (g *Grid) Occupied(c Cell) bool {
	return c.InBounds() && g.cells[c.Row][c.Col].Entity == Sprite
}

// HasWarp reports whether the cell carries a warp.
func (g *Grid) HasWarp(c Cell) bool {
	return c.InBounds() && g.cells[c.Row][c.Col].Entity == Warp
}

// Tile returns the cell's standing tile, the bottom-left native tile
// of its 2x2 block. Tile-pair movement rules compare standing tiles.
func (g *Grid) Tile(c Cell) byte {
	if !c.InBounds() {
		return 0
	}
	return g.cells[c.Row][c.Col].Tiles[2]
}

// SetWalkable sets the cell's terrain flag.
func (g *Grid) SetWalkable(c Cell, walkable bool) {
	if c.InBounds() {
		g.cells[c.Row][c.Col].Walkable = walkable
	}
}

// SetTiles records the cell's native 2x2 background block, row-major.
func (g *Grid) SetTiles(c Cell, tiles [4]byte) {
	if c.InBounds() {
		g.cells[c.Row][c.Col].Tiles = tiles
	}
}

// SetWorld records the cell's world coordinates.
func (g *Grid) SetWorld(c Cell, wx, wy int) {
	if c.InBounds() {
		g.cells[c.Row][c.Col].WorldX = wx
		g.cells[c.Row][c.Col].WorldY = wy
	}
}

// Overlay tags the cell with an entity, honoring overlay precedence.
func (g *Grid) Overlay(c Cell, e Entity, id int) {
	if !c.InBounds() {
		return
	}
	if g.cells[c.Row][c.Col].Entity >= e {
		return
	}
	g.cells[c.Row][c.Col].Entity = e
	g.cells[c.Row][c.Col].EntityID = id
}

// Anchor converts every cell's viewport position to world coordinates
// using the player's known world position at the given viewport cell.
func (g *Grid) Anchor(player Cell, worldX, worldY int) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			g.cells[r][c].WorldX = worldX + (c - player.Col)
			g.cells[r][c].WorldY = worldY + (r - player.Row)
		}
	}
}

// Find returns the viewport cell whose world coordinates match, if the
// point is currently on screen.
func (g *Grid) Find(worldX, worldY int) (Cell, bool) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if g.cells[r][c].WorldX == worldX && g.cells[r][c].WorldY == worldY {
				return Cell{Row: r, Col: c}, true
			}
		}
	}
	return Cell{}, false
}

// String renders the grid for logs: '.' walkable, '#' blocked,
// 'S' sprite, 'W' warp, 's' sign.
func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			info := g.cells[r][c]
			switch {
			case info.Entity == Warp:
				b.WriteByte('W')
			case info.Entity == Sprite:
				b.WriteByte('S')
			case info.Entity == Sign:
				b.WriteByte('s')
			case info.Walkable:
				b.WriteByte('.')
			default:
				b.WriteByte('#')
			}
		}
		if r < Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
