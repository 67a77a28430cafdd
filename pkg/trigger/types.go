package trigger

import (
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/questline/pkg/gamemap"
)

// Kind is the discriminator tag carried by every trigger in JSON.
type Kind string

const (
	KindMapIDEquals      Kind = "map_id_equals"
	KindPreviousMapWas   Kind = "previous_map_was"
	KindOneWayTransition Kind = "one_way_map_transition"
	KindPartySizeIs      Kind = "party_size_is"
	KindEventCompleted   Kind = "event_completed"
	KindDialogContains   Kind = "dialog_contains_text"
	KindItemMinQuantity  Kind = "item_in_inventory_min_qty"
	KindSpeciesInParty   Kind = "species_in_party"
	KindBattleTypeIs     Kind = "battle_type_is"
	KindBadgeObtained    Kind = "badge_obtained"
	KindCoordInRange     Kind = "coordinates_in_range"
	KindPartyHPFull      Kind = "party_hp_full"
)

// Trigger is one typed condition of a quest. The set of kinds is
// closed: every implementation lives in this package, so evaluation
// can switch over concrete types without a default panic.
type Trigger interface {
	Kind() Kind
	isTrigger()
}

// MapIDEquals fires while the player is on the given map.
type MapIDEquals struct {
	Map gamemap.ID `json:"map"`
}

func (MapIDEquals) Kind() Kind { return KindMapIDEquals }
func (MapIDEquals) isTrigger() {}

// PreviousMapWas fires while the map visited immediately before the
// current one matches.
type PreviousMapWas struct {
	Map gamemap.ID `json:"map"`
}

func (PreviousMapWas) Kind() Kind { return KindPreviousMapWas }
func (PreviousMapWas) isTrigger() {}

// OneWayTransition fires when the most recent map change was From to
// To. A fired pair is suppressed until the player visits a map outside
// the pair, so standing in the doorway cannot fire it twice.
type OneWayTransition struct {
	From gamemap.ID `json:"from"`
	To   gamemap.ID `json:"to"`
}

func (OneWayTransition) Kind() Kind { return KindOneWayTransition }
func (OneWayTransition) isTrigger() {}

// PartySizeIs fires when the party has exactly Size members.
type PartySizeIs struct {
	Size int `json:"size"`
}

func (PartySizeIs) Kind() Kind { return KindPartySizeIs }
func (PartySizeIs) isTrigger() {}

// EventCompleted fires when the named event flag is set.
type EventCompleted struct {
	Flag string `json:"flag"`
}

func (EventCompleted) Kind() Kind { return KindEventCompleted }
func (EventCompleted) isTrigger() {}

// DialogContains fires while the open textbox contains the text,
// compared after whitespace normalization.
type DialogContains struct {
	Text string `json:"text"`
}

func (DialogContains) Kind() Kind { return KindDialogContains }
func (DialogContains) isTrigger() {}

// ItemMinQuantity fires when the bag holds at least Quantity of the
// named item, summed across slots.
type ItemMinQuantity struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

func (ItemMinQuantity) Kind() Kind { return KindItemMinQuantity }
func (ItemMinQuantity) isTrigger() {}

// SpeciesInParty fires when any party member is the named species.
type SpeciesInParty struct {
	Species string `json:"species"`
}

func (SpeciesInParty) Kind() Kind { return KindSpeciesInParty }
func (SpeciesInParty) isTrigger() {}

// BattleTypeIs fires while the battle mode matches ("none", "wild" or
// "trainer").
type BattleTypeIs struct {
	Battle string `json:"battle"`
}

func (BattleTypeIs) Kind() Kind { return KindBattleTypeIs }
func (BattleTypeIs) isTrigger() {}

// BadgeObtained fires once the named badge bit is set.
type BadgeObtained struct {
	Badge string `json:"badge"`
}

func (BadgeObtained) Kind() Kind { return KindBadgeObtained }
func (BadgeObtained) isTrigger() {}

// CoordInRange fires while the player stands inside the given bounds.
// Each bound is optional: a nil bound leaves that side open. Bounds
// are inclusive and compare map-local coordinates. When Map is set the
// player must also be on that map.
type CoordInRange struct {
	Map  *gamemap.ID `json:"map,omitempty"`
	MinX *int        `json:"min_x,omitempty"`
	MaxX *int        `json:"max_x,omitempty"`
	MinY *int        `json:"min_y,omitempty"`
	MaxY *int        `json:"max_y,omitempty"`
}

func (CoordInRange) Kind() Kind { return KindCoordInRange }
func (CoordInRange) isTrigger() {}

// PartyHPFull fires while every party member is at full HP.
type PartyHPFull struct{}

func (PartyHPFull) Kind() Kind { return KindPartyHPFull }
func (PartyHPFull) isTrigger() {}

// Unknown preserves a trigger whose kind tag this build does not
// recognize. It always evaluates false; quest files from newer builds
// degrade to "not yet" instead of crashing the loop.
type Unknown struct {
	RawKind string          `json:"kind"`
	Raw     json.RawMessage `json:"-"`
}

func (u Unknown) Kind() Kind { return Kind(u.RawKind) }
func (Unknown) isTrigger()   {}

// Decode parses one JSON trigger object by its kind tag. Unrecognized
// kinds decode to Unknown rather than failing the whole file.
func Decode(data []byte) (Trigger, error) {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to read trigger kind: %w", err)
	}

	var (
		t   Trigger
		err error
	)
	switch head.Kind {
	case KindMapIDEquals:
		var v MapIDEquals
		err = json.Unmarshal(data, &v)
		t = v
	case KindPreviousMapWas:
		var v PreviousMapWas
		err = json.Unmarshal(data, &v)
		t = v
	case KindOneWayTransition:
		var v OneWayTransition
		err = json.Unmarshal(data, &v)
		t = v
	case KindPartySizeIs:
		var v PartySizeIs
		err = json.Unmarshal(data, &v)
		t = v
	case KindEventCompleted:
		var v EventCompleted
		err = json.Unmarshal(data, &v)
		t = v
	case KindDialogContains:
		var v DialogContains
		err = json.Unmarshal(data, &v)
		t = v
	case KindItemMinQuantity:
		var v ItemMinQuantity
		err = json.Unmarshal(data, &v)
		t = v
	case KindSpeciesInParty:
		var v SpeciesInParty
		err = json.Unmarshal(data, &v)
		t = v
	case KindBattleTypeIs:
		var v BattleTypeIs
		err = json.Unmarshal(data, &v)
		t = v
	case KindBadgeObtained:
		var v BadgeObtained
		err = json.Unmarshal(data, &v)
		t = v
	case KindCoordInRange:
		var v CoordInRange
		err = json.Unmarshal(data, &v)
		t = v
	case KindPartyHPFull:
		var v PartyHPFull
		err = json.Unmarshal(data, &v)
		t = v
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{RawKind: string(head.Kind), Raw: raw}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s trigger: %w", head.Kind, err)
	}
	return t, nil
}

// List decodes a JSON array of triggers.
type List []Trigger

func (l *List) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return err
	}
	out := make(List, 0, len(raws))
	for i, raw := range raws {
		t, err := Decode(raw)
		if err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		out = append(out, t)
	}
	*l = out
	return nil
}

func (l List) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(l))
	for _, t := range l {
		body, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, err
		}
		if m == nil {
			m = map[string]any{}
		}
		m["kind"] = string(t.Kind())
		tagged, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		out = append(out, tagged)
	}
	return json.Marshal(out)
}
