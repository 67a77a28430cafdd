package emulator

import (
	"context"
	"sync"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

// MockDriver is a scripted implementation of Driver for testing. State
// fields supply the default behavior; the Func fields override whole
// methods when set.
type MockDriver struct {
	ReadByteFunc   func(ctx context.Context, addr uint16) (byte, error)
	ReadBytesFunc  func(ctx context.Context, addr uint16, n int) ([]byte, error)
	TileMapFunc    func(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error)
	CurrentMapFunc func(ctx context.Context) (gamemap.ID, error)
	EventFlagFunc  func(ctx context.Context, name string) (bool, error)
	StepFramesFunc func(ctx context.Context, n int) error
	PressFunc      func(ctx context.Context, b Button) error

	// Scripted state read by the default implementations.
	Memory      map[uint16]byte
	Background  [grid.NativeRows][grid.NativeCols]byte
	SpriteLayer [grid.NativeRows][grid.NativeCols]byte
	Passable    []byte
	SpriteList  []Sprite
	MapID       gamemap.ID
	Dialog      string
	Flags       map[string]bool

	// Track calls for testing
	PressCalls      []Button
	StepFramesCalls []int

	mu sync.Mutex // protects all fields above
}

var _ Driver = (*MockDriver)(nil)

// NewMockDriver creates a mock driver with an empty screen. Tile 0 is
// walkable and the sprite layer is clear.
func NewMockDriver() *MockDriver {
	m := &MockDriver{
		Memory:   make(map[uint16]byte),
		Flags:    make(map[string]bool),
		Passable: []byte{0x00},
	}
	for y := 0; y < grid.NativeRows; y++ {
		for x := 0; x < grid.NativeCols; x++ {
			m.SpriteLayer[y][x] = 0xFF
		}
	}
	return m
}

// SetMemory scripts a run of bytes starting at addr.
func (m *MockDriver) SetMemory(addr uint16, data ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range data {
		m.Memory[addr+uint16(i)] = b
	}
}

// SetFlag scripts one event flag.
func (m *MockDriver) SetFlag(name string, set bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flags[name] = set
}

// SetDialog scripts the visible textbox contents.
func (m *MockDriver) SetDialog(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dialog = text
}

// SetMap scripts the current map id.
func (m *MockDriver) SetMap(id gamemap.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MapID = id
}

// Reset clears call tracking.
func (m *MockDriver) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PressCalls = nil
	m.StepFramesCalls = nil
}

// Calls returns a copy of the tracked button and frame calls.
func (m *MockDriver) Calls() ([]Button, []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	presses := make([]Button, len(m.PressCalls))
	copy(presses, m.PressCalls)
	frames := make([]int, len(m.StepFramesCalls))
	copy(frames, m.StepFramesCalls)
	return presses, frames
}

func (m *MockDriver) ReadByte(ctx context.Context, addr uint16) (byte, error) {
	m.mu.Lock()
	fn := m.ReadByteFunc
	v := m.Memory[addr]
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, addr)
	}
	return v, nil
}

func (m *MockDriver) ReadBytes(ctx context.Context, addr uint16, n int) ([]byte, error) {
	m.mu.Lock()
	fn := m.ReadBytesFunc
	out := make([]byte, n)
	for i := range out {
		out[i] = m.Memory[addr+uint16(i)]
	}
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, addr, n)
	}
	return out, nil
}

func (m *MockDriver) TileMap(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	m.mu.Lock()
	fn := m.TileMapFunc
	tiles := m.Background
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return &tiles, nil
}

func (m *MockDriver) SpriteTiles(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	m.mu.Lock()
	tiles := m.SpriteLayer
	m.mu.Unlock()
	return &tiles, nil
}

func (m *MockDriver) WalkableTiles(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.Passable))
	copy(out, m.Passable)
	return out, nil
}

func (m *MockDriver) Sprites(ctx context.Context) ([]Sprite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sprite, len(m.SpriteList))
	copy(out, m.SpriteList)
	return out, nil
}

func (m *MockDriver) CurrentMap(ctx context.Context) (gamemap.ID, error) {
	m.mu.Lock()
	fn := m.CurrentMapFunc
	id := m.MapID
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return id, nil
}

func (m *MockDriver) DialogText(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Dialog, nil
}

func (m *MockDriver) EventFlag(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	fn := m.EventFlagFunc
	v := m.Flags[name]
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, name)
	}
	return v, nil
}

func (m *MockDriver) StepFrames(ctx context.Context, n int) error {
	m.mu.Lock()
	m.StepFramesCalls = append(m.StepFramesCalls, n)
	fn := m.StepFramesFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, n)
	}
	return nil
}

func (m *MockDriver) Press(ctx context.Context, b Button) error {
	m.mu.Lock()
	m.PressCalls = append(m.PressCalls, b)
	fn := m.PressFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, b)
	}
	return nil
}
