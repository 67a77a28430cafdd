package state

import (
	"strings"
	"time"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

// BattleType is the game's battle-mode byte.
type BattleType int

const (
	BattleNone    BattleType = 0
	BattleWild    BattleType = 1
	BattleTrainer BattleType = 2
)

func (b BattleType) String() string {
	switch b {
	case BattleNone:
		return "none"
	case BattleWild:
		return "wild"
	case BattleTrainer:
		return "trainer"
	default:
		return "unknown"
	}
}

// ParseBattleType maps a battle-type name to its byte value. Unknown
// names map to BattleNone with ok=false.
func ParseBattleType(s string) (BattleType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return BattleNone, true
	case "wild":
		return BattleWild, true
	case "trainer":
		return BattleTrainer, true
	}
	return BattleNone, false
}

// PartyMember is one slot of the player's party.
type PartyMember struct {
	Species     int    `json:"species"`
	SpeciesName string `json:"species_name,omitempty"`
	Level       int    `json:"level"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"max_hp"`
}

// ItemStack is one bag slot.
type ItemStack struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Badges is the badge byte, one bit per gym in league order.
type Badges uint8

var badgeBits = map[string]Badges{
	"boulder": 1 << 0,
	"cascade": 1 << 1,
	"thunder": 1 << 2,
	"rainbow": 1 << 3,
	"soul":    1 << 4,
	"marsh":   1 << 5,
	"volcano": 1 << 6,
	"earth":   1 << 7,
}

// Has reports whether the named badge bit is set. Unknown names are
// never set.
func (b Badges) Has(name string) bool {
	bit, ok := badgeBits[strings.ToLower(strings.TrimSpace(name))]
	return ok && b&bit != 0
}

// Count returns the number of badges held.
func (b Badges) Count() int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// FacingFromByte decodes the player facing byte (0 down, 4 up, 8 left,
// 12 right). Other values read as down.
func FacingFromByte(v byte) grid.Direction {
	switch v {
	case 4:
		return grid.Up
	case 8:
		return grid.Left
	case 12:
		return grid.Right
	default:
		return grid.Down
	}
}

// Snapshot is one frame's observation of the game, read from emulator
// memory. It is a value: evaluating triggers against it never mutates
// it, and two snapshots never share backing storage.
type Snapshot struct {
	Map     gamemap.ID     `json:"map"`
	PrevMap gamemap.ID     `json:"prev_map"`
	X       int            `json:"x"` // map-local, walkable-tile units
	Y       int            `json:"y"`
	Facing  grid.Direction `json:"facing"`

	Party  []PartyMember `json:"party,omitempty"`
	Items  []ItemStack   `json:"items,omitempty"`
	Money  int           `json:"money,omitempty"`
	Badges Badges        `json:"badges,omitempty"`

	Dialog string     `json:"dialog,omitempty"` // current textbox contents, empty when closed
	Battle BattleType `json:"battle,omitempty"`

	// Flags holds the event flags resolved for this frame, keyed by
	// flag name. Only flags the session's quests reference are read.
	Flags map[string]bool `json:"flags,omitempty"`

	Frame      uint64    `json:"frame"`
	CapturedAt time.Time `json:"captured_at"`
}

// Coord returns the player's qualified position.
func (s *Snapshot) Coord() gamemap.Coord {
	return gamemap.Coord{Map: s.Map, X: s.X, Y: s.Y}
}

// PartySize returns the number of filled party slots.
func (s *Snapshot) PartySize() int {
	return len(s.Party)
}

// ItemQuantity sums the quantity of the named item across bag slots.
// Names compare case-insensitively.
func (s *Snapshot) ItemQuantity(name string) int {
	total := 0
	for _, it := range s.Items {
		if strings.EqualFold(it.Name, name) {
			total += it.Quantity
		}
	}
	return total
}

// HasSpecies reports whether any party member is the named species.
func (s *Snapshot) HasSpecies(name string) bool {
	for _, m := range s.Party {
		if strings.EqualFold(m.SpeciesName, name) {
			return true
		}
	}
	return false
}

// PartyHPFull reports whether every party member is at full HP. An
// empty party is not full: a heal-up gate must not open before the
// player owns anything to heal.
func (s *Snapshot) PartyHPFull() bool {
	if len(s.Party) == 0 {
		return false
	}
	for _, m := range s.Party {
		if m.HP < m.MaxHP {
			return false
		}
	}
	return true
}

// Flag reports the named event flag. ok is false when the flag was not
// resolved for this frame, which callers treat as unset.
func (s *Snapshot) Flag(name string) (set, ok bool) {
	v, ok := s.Flags[name]
	return v, ok
}

// InDialog reports whether a textbox is open.
func (s *Snapshot) InDialog() bool {
	return s.Dialog != ""
}
