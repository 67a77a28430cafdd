package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

// Work RAM layout of the simulated cartridge. The world keeps a plain
// byte map and rewrites these regions after every mutation, so driver
// reads see exactly what a loaded cartridge would expose.
const (
	memBattleType uint16 = 0xD057
	memFacing     uint16 = 0xC109
	memPartyCount uint16 = 0xD163
	memPartyMons  uint16 = 0xD16B
	memBagCount   uint16 = 0xD31D
	memBagItems   uint16 = 0xD31E
	memMoney      uint16 = 0xD347
	memBadges     uint16 = 0xD356
	memPlayerY    uint16 = 0xD361
	memPlayerX    uint16 = 0xD362
	memLastMap    uint16 = 0xD365
	memTileset    uint16 = 0xD367
	memWarpCount  uint16 = 0xD3AE
	memWarpData   uint16 = 0xD3AF
	memSignCount  uint16 = 0xD4B0

	monRecordSize = 44
	monLevelOff   = 33
	monMaxHPOff   = 34
)

// Facing byte values as the cartridge stores them.
const (
	faceDown  byte = 0x00
	faceUp    byte = 0x04
	faceLeft  byte = 0x08
	faceRight byte = 0x0C
)

// Background tile values rendered into the screen. The collision table
// the world reports lists only tileOpen.
const (
	tileOpen    byte = 0x00
	tileBlocked byte = 0x01
)

// spritePatterns is the cartridge's player sprite sheet: one 2x2 tile
// block per facing, row-major.
var spritePatterns = map[grid.Direction][4]byte{
	grid.Down:  {0x00, 0x01, 0x02, 0x03},
	grid.Up:    {0x04, 0x05, 0x06, 0x07},
	grid.Left:  {0x08, 0x09, 0x0A, 0x0B},
	grid.Right: {0x09, 0x08, 0x0B, 0x0A},
}

// World simulates a running cartridge behind the Driver interface. It
// renders the screen around the player, walks on d-pad presses, follows
// warp tiles across maps, and plays scripted tile events on A. Every
// mutation happens inside Press, so a tick sees a stable frame.
type World struct {
	mu sync.Mutex

	maps   map[gamemap.ID]*MapSpec
	events []*worldEvent

	mapID   gamemap.ID
	lastMap gamemap.ID
	x, y    int
	facing  grid.Direction

	mem    map[uint16]byte
	flags  map[string]bool
	dialog []string // open textbox pages, empty when closed

	party []MonSpec
	bag   []ItemSpec
	money int

	presses int
	frames  int
}

type worldEvent struct {
	EventSpec
	fired bool
}

var _ emulator.Driver = (*World)(nil)

// NewWorld builds a world from its spec. Map references are checked up
// front so a broken case file fails loudly instead of stranding the
// agent mid-run.
func NewWorld(spec WorldSpec) (*World, error) {
	if len(spec.Maps) == 0 {
		return nil, fmt.Errorf("world has no maps")
	}

	w := &World{
		maps:   make(map[gamemap.ID]*MapSpec, len(spec.Maps)),
		mem:    make(map[uint16]byte),
		flags:  make(map[string]bool),
		facing: grid.Down,
		party:  append([]MonSpec(nil), spec.Party...),
		bag:    append([]ItemSpec(nil), spec.Bag...),
		money:  spec.Money,
	}
	for i := range spec.Maps {
		m := spec.Maps[i]
		if m.Width <= 0 || m.Height <= 0 {
			return nil, fmt.Errorf("map %d has no size", m.ID)
		}
		w.maps[m.ID] = &m
	}
	for _, m := range w.maps {
		for _, wp := range m.Warps {
			if _, ok := w.maps[wp.ToMap]; !ok {
				return nil, fmt.Errorf("map %d warp targets unknown map %d", m.ID, wp.ToMap)
			}
		}
	}
	if _, ok := w.maps[spec.Start.Map]; !ok {
		return nil, fmt.Errorf("start map %d is not defined", spec.Start.Map)
	}
	for _, ev := range spec.Text {
		if _, ok := w.maps[ev.Map]; !ok {
			return nil, fmt.Errorf("event at (%d,%d) references unknown map %d", ev.X, ev.Y, ev.Map)
		}
		e := worldEvent{EventSpec: ev}
		w.events = append(w.events, &e)
	}
	for _, f := range spec.Flags {
		w.flags[f] = true
	}

	w.mapID = spec.Start.Map
	w.lastMap = spec.Start.Map
	w.x, w.y = spec.Start.X, spec.Start.Y
	w.syncMemory()
	return w, nil
}

// Position returns the player's current map and tile.
func (w *World) Position() (gamemap.ID, int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mapID, w.x, w.y
}

// Stats returns how many button presses and frames the agent spent.
func (w *World) Stats() (presses, frames int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.presses, w.frames
}

func (w *World) ReadByte(ctx context.Context, addr uint16) (byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mem[addr], nil
}

func (w *World) ReadBytes(ctx context.Context, addr uint16, n int) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = w.mem[addr+uint16(i)]
	}
	return out, nil
}

func (w *World) TileMap(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	m := w.maps[w.mapID]
	var tiles [grid.NativeRows][grid.NativeCols]byte
	for nr := 0; nr < grid.NativeRows; nr++ {
		for nc := 0; nc < grid.NativeCols; nc++ {
			wx := w.x + nc/2 - grid.Center.Col
			wy := w.y + nr/2 - grid.Center.Row
			if blockedOn(m, wx, wy) {
				tiles[nr][nc] = tileBlocked
			} else {
				tiles[nr][nc] = tileOpen
			}
		}
	}
	return &tiles, nil
}

func (w *World) SpriteTiles(ctx context.Context) (*[grid.NativeRows][grid.NativeCols]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var tiles [grid.NativeRows][grid.NativeCols]byte
	for nr := 0; nr < grid.NativeRows; nr++ {
		for nc := 0; nc < grid.NativeCols; nc++ {
			tiles[nr][nc] = 0xFF
		}
	}
	pat := spritePatterns[w.facing]
	r, c := grid.Center.Row*2, grid.Center.Col*2
	tiles[r][c] = pat[0]
	tiles[r][c+1] = pat[1]
	tiles[r+1][c] = pat[2]
	tiles[r+1][c+1] = pat[3]
	return &tiles, nil
}

func (w *World) WalkableTiles(ctx context.Context) ([]byte, error) {
	return []byte{tileOpen}, nil
}

func (w *World) Sprites(ctx context.Context) ([]emulator.Sprite, error) {
	return nil, nil
}

func (w *World) CurrentMap(ctx context.Context) (gamemap.ID, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.mapID, nil
}

func (w *World) DialogText(ctx context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.dialog) == 0 {
		return "", nil
	}
	return w.dialog[0], nil
}

func (w *World) EventFlag(ctx context.Context, name string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flags[name], nil
}

func (w *World) StepFrames(ctx context.Context, n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frames += n
	return nil
}

func (w *World) Press(ctx context.Context, b emulator.Button) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.presses++

	if dir, ok := emulator.DirectionFor(b); ok {
		w.walk(dir)
		return nil
	}
	switch b {
	case emulator.ButtonA:
		w.confirm()
	case emulator.ButtonB:
		w.dialog = nil
	}
	return nil
}

// walk turns the player and moves one tile unless blocked. Stepping
// onto a warp tile loads the destination map.
func (w *World) walk(dir grid.Direction) {
	w.facing = dir
	if len(w.dialog) > 0 {
		// A textbox swallows movement.
		return
	}

	nx, ny := w.x, w.y
	switch dir {
	case grid.Up:
		ny--
	case grid.Down:
		ny++
	case grid.Left:
		nx--
	case grid.Right:
		nx++
	}
	m := w.maps[w.mapID]
	if blockedOn(m, nx, ny) {
		w.syncMemory()
		return
	}
	w.x, w.y = nx, ny
	for _, wp := range m.Warps {
		if wp.X == nx && wp.Y == ny {
			w.lastMap = w.mapID
			w.mapID = wp.ToMap
			w.x, w.y = wp.ToX, wp.ToY
			break
		}
	}
	w.syncMemory()
}

// confirm advances an open textbox, or fires the scripted event on the
// player's tile. Events fire once.
func (w *World) confirm() {
	if len(w.dialog) > 0 {
		w.dialog = w.dialog[1:]
		return
	}
	for _, ev := range w.events {
		if ev.fired || ev.Map != w.mapID || ev.X != w.x || ev.Y != w.y {
			continue
		}
		ev.fired = true
		w.dialog = append(w.dialog, ev.Dialog...)
		for _, f := range ev.SetFlags {
			w.flags[f] = true
		}
		if ev.Give != nil {
			w.party = append(w.party, *ev.Give)
		}
		if ev.GiveItem != nil {
			w.giveItem(*ev.GiveItem)
		}
		w.syncMemory()
		return
	}
}

func (w *World) giveItem(it ItemSpec) {
	for i := range w.bag {
		if w.bag[i].ID == it.ID {
			w.bag[i].Quantity += it.Quantity
			return
		}
	}
	w.bag = append(w.bag, it)
}

// syncMemory rewrites every derived work RAM region from world state.
func (w *World) syncMemory() {
	w.mem[memPlayerX] = byte(w.x)
	w.mem[memPlayerY] = byte(w.y)
	w.mem[memFacing] = facingByte(w.facing)
	w.mem[memLastMap] = byte(w.lastMap)
	w.mem[memBattleType] = 0
	w.mem[memBadges] = 0
	w.mem[memTileset] = 0
	w.mem[memSignCount] = 0

	writeBCD(w.mem, memMoney, w.money)

	w.mem[memPartyCount] = byte(len(w.party))
	for i, mon := range w.party {
		base := memPartyMons + uint16(i*monRecordSize)
		w.mem[base] = byte(mon.Species)
		w.mem[base+1] = byte(mon.HP >> 8)
		w.mem[base+2] = byte(mon.HP)
		w.mem[base+monLevelOff] = byte(mon.Level)
		w.mem[base+monMaxHPOff] = byte(mon.MaxHP >> 8)
		w.mem[base+monMaxHPOff+1] = byte(mon.MaxHP)
	}

	w.mem[memBagCount] = byte(len(w.bag))
	for i, it := range w.bag {
		w.mem[memBagItems+uint16(i*2)] = byte(it.ID)
		w.mem[memBagItems+uint16(i*2+1)] = byte(it.Quantity)
	}
	w.mem[memBagItems+uint16(len(w.bag)*2)] = 0xFF

	warps := w.maps[w.mapID].Warps
	w.mem[memWarpCount] = byte(len(warps))
	for i, wp := range warps {
		base := memWarpData + uint16(i*4)
		w.mem[base] = byte(wp.Y)
		w.mem[base+1] = byte(wp.X)
		w.mem[base+2] = byte(i)
		w.mem[base+3] = byte(wp.ToMap)
	}
}

func blockedOn(m *MapSpec, x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return true
	}
	for _, r := range m.Walls {
		if r.Contains(x, y) {
			return true
		}
	}
	return false
}

func facingByte(d grid.Direction) byte {
	switch d {
	case grid.Up:
		return faceUp
	case grid.Left:
		return faceLeft
	case grid.Right:
		return faceRight
	default:
		return faceDown
	}
}

// writeBCD packs a value as binary-coded decimal, two digits per byte,
// most significant first.
func writeBCD(mem map[uint16]byte, addr uint16, v int) {
	for i := 2; i >= 0; i-- {
		mem[addr+uint16(i)] = byte(v%10 | (v/10%10)<<4)
		v /= 100
	}
}
