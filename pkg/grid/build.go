package grid

// Point is a map-local tile coordinate, used for overlay tables that
// the game stores in world terms (warps, signs).
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// SpritePx is an on-screen sprite in screen pixel coordinates, as the
// sprite table reports them. Sprites render 4 pixels above the tile
// they stand on, so the row conversion adds that offset back.
type SpritePx struct {
	Index int
	X     int
	Y     int
}

// Cell converts the sprite's pixel position to its viewport cell.
func (s SpritePx) Cell() Cell {
	return Cell{Row: (s.Y + 4) / 16, Col: s.X / 16}
}

// Input carries one frame's raw screen data into Build.
type Input struct {
	// Tiles is the visible background tile map at native resolution.
	Tiles [NativeRows][NativeCols]byte
	// Walkable reports whether a single native background tile is
	// passable in the current tileset.
	Walkable func(tile byte) bool
	// Sprites are the on-screen sprites excluding the player.
	Sprites []SpritePx
	// Warps and Signs are the current map's tables, map-local coords.
	Warps []Point
	Signs []Point
	// Player anchors the viewport to the world: the player's viewport
	// cell and map-local world position.
	Player       Cell
	WorldX int
	WorldY int
}

// Build downsamples one screen to a navigable grid and overlays
// entities. A cell is walkable when more than half of its 2x2 native
// tile block is walkable. Entity overlays apply in rising precedence
// (sign, then sprite, then warp) so the strongest tag wins.
func Build(in Input) *Grid {
	g := New()
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			block := [4]byte{
				in.Tiles[r*2][c*2],
				in.Tiles[r*2][c*2+1],
				in.Tiles[r*2+1][c*2],
				in.Tiles[r*2+1][c*2+1],
			}
			open := 0
			if in.Walkable != nil {
				for _, t := range block {
					if in.Walkable(t) {
						open++
					}
				}
			}
			cell := Cell{Row: r, Col: c}
			g.SetTiles(cell, block)
			g.SetWalkable(cell, open > len(block)/2)
		}
	}

	g.Anchor(in.Player, in.WorldX, in.WorldY)

	for i, p := range in.Signs {
		if cell, ok := g.Find(p.X, p.Y); ok {
			g.Overlay(cell, Sign, i)
		}
	}
	for _, s := range in.Sprites {
		g.Overlay(s.Cell(), Sprite, s.Index)
	}
	for i, p := range in.Warps {
		if cell, ok := g.Find(p.X, p.Y); ok {
			g.Overlay(cell, Warp, i)
		}
	}
	return g
}

// The player's walking frames occupy fixed slots in the sprite tile
// layer, four 8x8 tiles per facing. Right-facing reuses the left
// frame's tiles mirrored, so its pattern is the left pattern with the
// columns swapped.
var playerPatterns = map[Direction][4]byte{
	Down:  {0x00, 0x01, 0x02, 0x03},
	Up:    {0x04, 0x05, 0x06, 0x07},
	Left:  {0x08, 0x09, 0x0A, 0x0B},
	Right: {0x09, 0x08, 0x0B, 0x0A},
}

// LocatePlayer scans the sprite tile layer for one of the four player
// patterns and returns the matching cell and facing. 0xFF marks an
// empty sprite tile. When no pattern matches (mid-step frames, menus
// covering the sprite) the caller must fall back to Center; paths
// planned from the fallback are a known-degraded case, not an error.
func LocatePlayer(spriteTiles *[NativeRows][NativeCols]byte) (Cell, Direction, bool) {
	if spriteTiles == nil {
		return Center, Down, false
	}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			block := [4]byte{
				spriteTiles[r*2][c*2],
				spriteTiles[r*2][c*2+1],
				spriteTiles[r*2+1][c*2],
				spriteTiles[r*2+1][c*2+1],
			}
			for _, d := range []Direction{Down, Up, Left, Right} {
				if block == playerPatterns[d] {
					return Cell{Row: r, Col: c}, d, true
				}
			}
		}
	}
	return Center, Down, false
}
