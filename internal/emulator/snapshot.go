package emulator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/state"
)

// Work RAM addresses of the player and overworld state.
const (
	addrBattleType uint16 = 0xD057 // 0 none, 1 wild, 2 trainer
	addrFacing     uint16 = 0xC109 // 0 down, 4 up, 8 left, 12 right
	addrPartyCount uint16 = 0xD163
	addrPartyMons  uint16 = 0xD16B // partyMax structs of partyMonSize bytes
	addrBagCount   uint16 = 0xD31D
	addrBagItems   uint16 = 0xD31E // (id, qty) pairs, 0xFF terminated
	addrMoney      uint16 = 0xD347 // 3 bytes, packed BCD
	addrBadges     uint16 = 0xD356
	addrPlayerY    uint16 = 0xD361
	addrPlayerX    uint16 = 0xD362
	addrLastMap    uint16 = 0xD365
)

// Party structure layout within a partyMonSize-byte record.
const (
	partyMax     = 6
	partyMonSize = 44

	monSpecies = 0
	monHP      = 1 // 2 bytes, big-endian
	monLevel   = 33
	monMaxHP   = 34 // 2 bytes, big-endian

	bagMax = 20
	bagEnd = 0xFF
)

// Snapshotter assembles state snapshots from driver reads. Position,
// map and battle reads are required; party, bag and flag reads degrade
// to empty values with a warning so one bad read never stalls a
// session.
type Snapshotter struct {
	driver Driver
	logger *slog.Logger

	flagNames    []string
	speciesNames map[int]string
	itemNames    map[int]string

	frame uint64
}

// NewSnapshotter creates a snapshotter over the given driver.
func NewSnapshotter(d Driver, logger *slog.Logger) *Snapshotter {
	return &Snapshotter{
		driver: d,
		logger: logger,
	}
}

// WatchFlags registers the event flags resolved on every capture.
// Callers register only the flags their quests reference.
func (s *Snapshotter) WatchFlags(names ...string) {
	s.flagNames = append(s.flagNames, names...)
}

// SetNames installs display-name tables for species and item ids.
// Ids without an entry read as "unknown".
func (s *Snapshotter) SetNames(species, items map[int]string) {
	s.speciesNames = species
	s.itemNames = items
}

// Capture reads one frame's state. The returned snapshot is a value;
// later captures never mutate it.
func (s *Snapshotter) Capture(ctx context.Context) (*state.Snapshot, error) {
	mapID, err := s.driver.CurrentMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current map: %w", err)
	}

	pos, err := s.driver.ReadBytes(ctx, addrPlayerY, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to read player position: %w", err)
	}

	lastMap, err := s.driver.ReadByte(ctx, addrLastMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read last map: %w", err)
	}

	facing, err := s.driver.ReadByte(ctx, addrFacing)
	if err != nil {
		return nil, fmt.Errorf("failed to read facing: %w", err)
	}

	battle, err := s.driver.ReadByte(ctx, addrBattleType)
	if err != nil {
		return nil, fmt.Errorf("failed to read battle type: %w", err)
	}

	s.frame++
	snap := &state.Snapshot{
		Map:        mapID,
		PrevMap:    gamemap.ID(lastMap),
		Y:          int(pos[0]),
		X:          int(pos[1]),
		Facing:     state.FacingFromByte(facing),
		Battle:     state.BattleType(battle),
		Frame:      s.frame,
		CapturedAt: time.Now().UTC(),
	}

	if party, err := s.readParty(ctx); err != nil {
		s.logger.Warn("Failed to read party, treating as empty", "error", err)
	} else {
		snap.Party = party
	}

	if items, err := s.readBag(ctx); err != nil {
		s.logger.Warn("Failed to read bag, treating as empty", "error", err)
	} else {
		snap.Items = items
	}

	if raw, err := s.driver.ReadBytes(ctx, addrMoney, 3); err != nil {
		s.logger.Warn("Failed to read money", "error", err)
	} else {
		snap.Money = bcdDecode(raw)
	}

	if b, err := s.driver.ReadByte(ctx, addrBadges); err != nil {
		s.logger.Warn("Failed to read badges", "error", err)
	} else {
		snap.Badges = state.Badges(b)
	}

	if text, err := s.driver.DialogText(ctx); err != nil {
		s.logger.Warn("Failed to read dialog text", "error", err)
	} else {
		snap.Dialog = text
	}

	if len(s.flagNames) > 0 {
		snap.Flags = make(map[string]bool, len(s.flagNames))
		for _, name := range s.flagNames {
			set, err := s.driver.EventFlag(ctx, name)
			if err != nil {
				s.logger.Warn("Failed to read event flag", "flag", name, "error", err)
				continue
			}
			snap.Flags[name] = set
		}
	}

	return snap, nil
}

func (s *Snapshotter) readParty(ctx context.Context) ([]state.PartyMember, error) {
	count, err := s.driver.ReadByte(ctx, addrPartyCount)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if count > partyMax {
		s.logger.Warn("Unexpected party count, clamping", "count", count)
		count = partyMax
	}

	raw, err := s.driver.ReadBytes(ctx, addrPartyMons, int(count)*partyMonSize)
	if err != nil {
		return nil, err
	}

	party := make([]state.PartyMember, 0, count)
	for i := 0; i < int(count); i++ {
		rec := raw[i*partyMonSize : (i+1)*partyMonSize]
		species := int(rec[monSpecies])
		party = append(party, state.PartyMember{
			Species:     species,
			SpeciesName: s.speciesName(species),
			Level:       int(rec[monLevel]),
			HP:          int(rec[monHP])<<8 | int(rec[monHP+1]),
			MaxHP:       int(rec[monMaxHP])<<8 | int(rec[monMaxHP+1]),
		})
	}
	return party, nil
}

func (s *Snapshotter) readBag(ctx context.Context) ([]state.ItemStack, error) {
	count, err := s.driver.ReadByte(ctx, addrBagCount)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if count > bagMax {
		s.logger.Warn("Unexpected bag count, clamping", "count", count)
		count = bagMax
	}

	raw, err := s.driver.ReadBytes(ctx, addrBagItems, int(count)*2)
	if err != nil {
		return nil, err
	}

	items := make([]state.ItemStack, 0, count)
	for i := 0; i < int(count); i++ {
		id := raw[i*2]
		if id == bagEnd {
			break
		}
		items = append(items, state.ItemStack{
			ID:       int(id),
			Name:     s.itemName(int(id)),
			Quantity: int(raw[i*2+1]),
		})
	}
	return items, nil
}

func (s *Snapshotter) speciesName(id int) string {
	if name, ok := s.speciesNames[id]; ok {
		return name
	}
	return "unknown"
}

func (s *Snapshotter) itemName(id int) string {
	if name, ok := s.itemNames[id]; ok {
		return name
	}
	return "unknown"
}

// bcdDecode reads packed binary-coded-decimal digits, two per byte.
func bcdDecode(b []byte) int {
	n := 0
	for _, v := range b {
		n = n*100 + int(v>>4)*10 + int(v&0x0F)
	}
	return n
}
