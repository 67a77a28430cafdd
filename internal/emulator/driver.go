package emulator

import (
	"context"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

// Button is a joypad input.
type Button string

const (
	ButtonUp     Button = "up"
	ButtonDown   Button = "down"
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonA      Button = "a"
	ButtonB      Button = "b"
	ButtonStart  Button = "start"
	ButtonSelect Button = "select"
)

// ButtonFor returns the d-pad button that walks one cell in dir.
func ButtonFor(dir grid.Direction) Button {
	switch dir {
	case grid.Up:
		return ButtonUp
	case grid.Left:
		return ButtonLeft
	case grid.Right:
		return ButtonRight
	default:
		return ButtonDown
	}
}

// DirectionFor is the inverse of ButtonFor. ok is false for buttons
// that are not d-pad movement.
func DirectionFor(b Button) (grid.Direction, bool) {
	switch b {
	case ButtonUp:
		return grid.Up, true
	case ButtonDown:
		return grid.Down, true
	case ButtonLeft:
		return grid.Left, true
	case ButtonRight:
		return grid.Right, true
	}
	return grid.Down, false
}

// Sprite is one on-screen sprite with screen pixel coordinates. Hidden
// sprites are reported so callers can skip them; sprite 0 is the player.
type Sprite struct {
	Index  int  `json:"index"`
	X      int  `json:"x"` // screen px
	Y      int  `json:"y"`
	Hidden bool `json:"hidden"`
}

// Driver defines the interface for reading and controlling a running
// emulator. Implementations are Remote (websocket bridge) and MockDriver
// (scripted, for tests).
type Driver interface {
	// ReadByte reads one byte of work RAM at addr.
	ReadByte(ctx context.Context, addr uint16) (byte, error)

	// ReadBytes reads n consecutive bytes starting at addr.
	ReadBytes(ctx context.Context, addr uint16, n int) ([]byte, error)

	// TileMap returns the background tile ids for the visible screen,
	// row-major, without sprites.
	TileMap(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error)

	// SpriteTiles returns the sprite tile layer for the visible
	// screen, 0xFF where no sprite tile is drawn. This is the layer
	// the player-pattern scan runs over.
	SpriteTiles(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error)

	// WalkableTiles returns the background tile ids passable under the
	// current tileset, from the tileset's collision table.
	WalkableTiles(ctx context.Context) ([]byte, error)

	// Sprites lists the on-screen sprites.
	Sprites(ctx context.Context) ([]Sprite, error)

	// CurrentMap returns the id of the map the player is on.
	CurrentMap(ctx context.Context) (gamemap.ID, error)

	// DialogText returns the visible textbox contents, empty when no
	// textbox is open.
	DialogText(ctx context.Context) (string, error)

	// EventFlag reports the named event flag. Names are resolved by the
	// bridge; unknown names read as unset.
	EventFlag(ctx context.Context, name string) (bool, error)

	// StepFrames advances the emulator n frames.
	StepFrames(ctx context.Context, n int) error

	// Press injects a button press and releases it.
	Press(ctx context.Context, b Button) error
}
