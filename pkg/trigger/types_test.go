package trigger

import (
	"encoding/json"
	"testing"
)

func TestDecodeKinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Kind
	}{
		{"map id equals", `{"kind":"map_id_equals","map":40}`, KindMapIDEquals},
		{"previous map", `{"kind":"previous_map_was","map":0}`, KindPreviousMapWas},
		{"one way", `{"kind":"one_way_map_transition","from":0,"to":40}`, KindOneWayTransition},
		{"party size", `{"kind":"party_size_is","size":1}`, KindPartySizeIs},
		{"event", `{"kind":"event_completed","flag":"got_pokedex"}`, KindEventCompleted},
		{"dialog", `{"kind":"dialog_contains_text","text":"OAK: Hello"}`, KindDialogContains},
		{"item", `{"kind":"item_in_inventory_min_qty","item":"poke ball","quantity":5}`, KindItemMinQuantity},
		{"species", `{"kind":"species_in_party","species":"pidgey"}`, KindSpeciesInParty},
		{"battle", `{"kind":"battle_type_is","battle":"trainer"}`, KindBattleTypeIs},
		{"badge", `{"kind":"badge_obtained","badge":"boulder"}`, KindBadgeObtained},
		{"coords", `{"kind":"coordinates_in_range","map":1,"min_x":10,"max_x":20}`, KindCoordInRange},
		{"hp", `{"kind":"party_hp_full"}`, KindPartyHPFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trig, err := Decode([]byte(tt.in))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if trig.Kind() != tt.want {
				t.Errorf("kind = %q, want %q", trig.Kind(), tt.want)
			}
			if _, isUnknown := trig.(Unknown); isUnknown {
				t.Errorf("decoded to Unknown, want a concrete kind")
			}
		})
	}
}

func TestDecodeTypedFields(t *testing.T) {
	trig, err := Decode([]byte(`{"kind":"item_in_inventory_min_qty","item":"potion","quantity":3}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	item, ok := trig.(ItemMinQuantity)
	if !ok {
		t.Fatalf("type = %T, want ItemMinQuantity", trig)
	}
	if item.Item != "potion" || item.Quantity != 3 {
		t.Errorf("fields = %+v", item)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	trig, err := Decode([]byte(`{"kind":"weather_is","weather":"rain"}`))
	if err != nil {
		t.Fatalf("unknown kind should not error: %v", err)
	}
	u, ok := trig.(Unknown)
	if !ok {
		t.Fatalf("type = %T, want Unknown", trig)
	}
	if u.RawKind != "weather_is" {
		t.Errorf("RawKind = %q", u.RawKind)
	}
	if len(u.Raw) == 0 {
		t.Error("raw payload should be preserved")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte(`{"kind":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
	if _, err := Decode([]byte(`{"kind":"party_size_is","size":"three"}`)); err == nil {
		t.Error("expected error for wrong field type")
	}
}

func TestCoordBoundsOptional(t *testing.T) {
	trig, err := Decode([]byte(`{"kind":"coordinates_in_range","min_y":5}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c := trig.(CoordInRange)
	if c.MinY == nil || *c.MinY != 5 {
		t.Error("min_y should be set")
	}
	if c.Map != nil || c.MinX != nil || c.MaxX != nil || c.MaxY != nil {
		t.Error("unset bounds should stay nil")
	}
}

func TestListRoundTrip(t *testing.T) {
	in := `[
		{"kind":"map_id_equals","map":40},
		{"kind":"dialog_contains_text","text":"Hello"},
		{"kind":"mystery_kind","x":1}
	]`
	var l List
	if err := json.Unmarshal([]byte(in), &l); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(l) != 3 {
		t.Fatalf("len = %d, want 3", len(l))
	}

	out, err := json.Marshal(l)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again List
	if err := json.Unmarshal(out, &again); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if again[0].Kind() != KindMapIDEquals || again[1].Kind() != KindDialogContains {
		t.Errorf("kinds lost in round trip: %q, %q", again[0].Kind(), again[1].Kind())
	}
	if again[2].Kind() != Kind("mystery_kind") {
		t.Errorf("unknown kind lost in round trip: %q", again[2].Kind())
	}
}
