package grid

import (
	"testing"
)

// tileOpen/tileWall give the downsampler a two-tile vocabulary.
const (
	tileOpen = 0x10
	tileWall = 0x20
)

func openTiles() [NativeRows][NativeCols]byte {
	var tiles [NativeRows][NativeCols]byte
	for r := range tiles {
		for c := range tiles[r] {
			tiles[r][c] = tileOpen
		}
	}
	return tiles
}

func isOpen(t byte) bool { return t == tileOpen }

func TestBuildDownsampleMajority(t *testing.T) {
	tests := []struct {
		name      string
		wallCount int
		walkable  bool
	}{
		{"all open", 0, true},
		{"one wall", 1, true},
		{"two walls", 2, false},
		{"three walls", 3, false},
		{"all walls", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tiles := openTiles()
			// Corrupt the block backing cell (2,3): native rows 4-5, cols 6-7.
			positions := [][2]int{{4, 6}, {4, 7}, {5, 6}, {5, 7}}
			for i := 0; i < tt.wallCount; i++ {
				tiles[positions[i][0]][positions[i][1]] = tileWall
			}
			g := Build(Input{Tiles: tiles, Walkable: isOpen, Player: Center})
			if got := g.Walkable(Cell{Row: 2, Col: 3}); got != tt.walkable {
				t.Errorf("walkable = %v, want %v with %d wall tiles", got, tt.walkable, tt.wallCount)
			}
		})
	}
}

func TestBuildRecordsTileBlock(t *testing.T) {
	tiles := openTiles()
	tiles[0][0] = 0xA0
	tiles[0][1] = 0xA1
	tiles[1][0] = 0xA2
	tiles[1][1] = 0xA3

	g := Build(Input{Tiles: tiles, Walkable: isOpen, Player: Center})
	got := g.At(Cell{Row: 0, Col: 0}).Tiles
	want := [4]byte{0xA0, 0xA1, 0xA2, 0xA3}
	if got != want {
		t.Errorf("tile block = %v, want %v", got, want)
	}
	// Standing tile is the bottom-left of the block.
	if g.Tile(Cell{Row: 0, Col: 0}) != 0xA2 {
		t.Errorf("standing tile = %#x, want 0xA2", g.Tile(Cell{Row: 0, Col: 0}))
	}
}

func TestBuildOverlaysEntities(t *testing.T) {
	tiles := openTiles()
	g := Build(Input{
		Tiles:    tiles,
		Walkable: isOpen,
		Player:   Center,
		WorldX:   10,
		WorldY:   10,
		// One warp and one sign in world coordinates, one sprite in
		// pixel coordinates. World (10,10) is the player cell (4,4).
		Warps:   []Point{{X: 10, Y: 6}},
		Signs:   []Point{{X: 11, Y: 10}},
		Sprites: []SpritePx{{Index: 2, X: 32, Y: 44}},
	})

	if !g.HasWarp(Cell{Row: 0, Col: 4}) {
		t.Errorf("warp missing at (0,4):\n%s", g)
	}
	if g.At(Cell{Row: 4, Col: 5}).Entity != Sign {
		t.Errorf("sign missing at (4,5):\n%s", g)
	}
	// Pixel (32,44): col 32/16=2, row (44+4)/16=3.
	if !g.Occupied(Cell{Row: 3, Col: 2}) {
		t.Errorf("sprite missing at (3,2):\n%s", g)
	}
	if g.At(Cell{Row: 3, Col: 2}).EntityID != 2 {
		t.Errorf("sprite id = %d, want 2", g.At(Cell{Row: 3, Col: 2}).EntityID)
	}
}

func TestBuildWarpBeatsSpriteOnSameCell(t *testing.T) {
	tiles := openTiles()
	g := Build(Input{
		Tiles:    tiles,
		Walkable: isOpen,
		Player:   Center,
		WorldX:   4,
		WorldY:   4,
		Warps:    []Point{{X: 4, Y: 4}},
		Sprites:  []SpritePx{{Index: 0, X: 64, Y: 60}},
	})
	if g.At(Center).Entity != Warp {
		t.Errorf("entity = %v, want warp to win the cell", g.At(Center).Entity)
	}
}

func TestLocatePlayer(t *testing.T) {
	tests := []struct {
		name   string
		place  func(tiles *[NativeRows][NativeCols]byte)
		cell   Cell
		facing Direction
		found  bool
	}{
		{
			name: "facing down at center",
			place: func(tiles *[NativeRows][NativeCols]byte) {
				tiles[8][8], tiles[8][9] = 0x00, 0x01
				tiles[9][8], tiles[9][9] = 0x02, 0x03
			},
			cell:   Cell{Row: 4, Col: 4},
			facing: Down,
			found:  true,
		},
		{
			name: "facing up offset",
			place: func(tiles *[NativeRows][NativeCols]byte) {
				tiles[2][6], tiles[2][7] = 0x04, 0x05
				tiles[3][6], tiles[3][7] = 0x06, 0x07
			},
			cell:   Cell{Row: 1, Col: 3},
			facing: Up,
			found:  true,
		},
		{
			name: "facing right is mirrored left",
			place: func(tiles *[NativeRows][NativeCols]byte) {
				tiles[10][10], tiles[10][11] = 0x09, 0x08
				tiles[11][10], tiles[11][11] = 0x0B, 0x0A
			},
			cell:   Cell{Row: 5, Col: 5},
			facing: Right,
			found:  true,
		},
		{
			name:   "no pattern falls back to center",
			place:  func(tiles *[NativeRows][NativeCols]byte) {},
			cell:   Center,
			facing: Down,
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tiles [NativeRows][NativeCols]byte
			for r := range tiles {
				for c := range tiles[r] {
					tiles[r][c] = 0xFF
				}
			}
			tt.place(&tiles)
			cell, facing, found := LocatePlayer(&tiles)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if cell != tt.cell {
				t.Errorf("cell = %s, want %s", cell, tt.cell)
			}
			if facing != tt.facing {
				t.Errorf("facing = %v, want %v", facing, tt.facing)
			}
		})
	}
}

func TestSpritePixelConversion(t *testing.T) {
	// The sprite table reports positions 4px above the standing tile.
	s := SpritePx{X: 80, Y: 76}
	if got := s.Cell(); got != (Cell{Row: 5, Col: 5}) {
		t.Errorf("cell = %s, want (5,5)", got)
	}
}
