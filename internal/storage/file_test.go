package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/nav"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestFileStoreLoadQuests(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "quests.json", `[
		{"id": "leave-home", "location": 0, "triggers": [{"kind": "map_id_equals", "map": 40}]},
		{"id": "get-pokedex", "location": 40, "prereqs": ["leave-home"], "triggers": [{"kind": "event_completed", "flag": "got_pokedex"}]}
	]`)

	fs := NewFileStore(dataDir, t.TempDir(), testLogger())
	quests, err := fs.LoadQuests(context.Background())
	if err != nil {
		t.Fatalf("LoadQuests failed: %v", err)
	}

	if len(quests) != 2 {
		t.Fatalf("expected 2 quests, got %d", len(quests))
	}
	if quests[0].ID != "leave-home" || quests[1].ID != "get-pokedex" {
		t.Errorf("quest order not preserved: %s, %s", quests[0].ID, quests[1].ID)
	}
	if len(quests[1].Prereqs) != 1 || quests[1].Prereqs[0] != "leave-home" {
		t.Errorf("unexpected prereqs: %v", quests[1].Prereqs)
	}
	if quests[0].Triggers[0].Kind() != "map_id_equals" {
		t.Errorf("unexpected trigger kind: %s", quests[0].Triggers[0].Kind())
	}
}

func TestFileStoreLoadQuestsMissing(t *testing.T) {
	fs := NewFileStore(t.TempDir(), t.TempDir(), testLogger())
	if _, err := fs.LoadQuests(context.Background()); err == nil {
		t.Fatal("expected error for missing quest file")
	}
}

func TestFileStoreLoadRoute(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, filepath.Join("routes", "leave-home.json"), `{
		"legs": [
			{"map": 0, "targets": [{"x": 5, "y": 6}, {"x": 12, "y": 1}]}
		]
	}`)

	fs := NewFileStore(dataDir, t.TempDir(), testLogger())

	route, err := fs.LoadRoute(context.Background(), "leave-home")
	if err != nil {
		t.Fatalf("LoadRoute failed: %v", err)
	}
	if route == nil {
		t.Fatal("expected route")
	}
	if route.Quest != "leave-home" {
		t.Errorf("expected quest id backfilled from filename, got %q", route.Quest)
	}
	leg, ok := route.Leg(gamemap.PalletTown)
	if !ok || len(leg.Targets) != 2 {
		t.Fatalf("unexpected leg: %+v ok=%v", leg, ok)
	}
	if leg.Targets[1].X != 12 || leg.Targets[1].Y != 1 {
		t.Errorf("unexpected target: %+v", leg.Targets[1])
	}

	// A quest without a route file is not an error.
	missing, err := fs.LoadRoute(context.Background(), "no-such-quest")
	if err != nil {
		t.Fatalf("missing route should not error: %v", err)
	}
	if missing != nil {
		t.Error("expected nil route for missing file")
	}
}

func TestFileStoreLoadTilePairs(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "tilepairs.json", `[
		{"tileset": 0, "from": 54, "to": 55, "ordered": true, "label": "ledge"},
		{"tileset": -1, "from": 32, "to": 19}
	]`)

	fs := NewFileStore(dataDir, t.TempDir(), testLogger())
	rules, err := fs.LoadTilePairs(context.Background())
	if err != nil {
		t.Fatalf("LoadTilePairs failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if !rules[0].Ordered || rules[0].Label != "ledge" {
		t.Errorf("unexpected rule: %+v", rules[0])
	}
	if rules[1].Tileset != nav.TilesetAny {
		t.Errorf("expected wildcard tileset, got %d", rules[1].Tileset)
	}

	// Missing file disables exceptions without error.
	empty := NewFileStore(t.TempDir(), t.TempDir(), testLogger())
	rules, err = empty.LoadTilePairs(context.Background())
	if err != nil || rules != nil {
		t.Errorf("expected no rules and no error, got %v, %v", rules, err)
	}
}

func TestFileStoreLoadWarpAllowances(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "warps.json", `{"40": [{"x": 2, "y": 7}, {"x": 3, "y": 7}]}`)

	fs := NewFileStore(dataDir, t.TempDir(), testLogger())
	allow, err := fs.LoadWarpAllowances(context.Background())
	if err != nil {
		t.Fatalf("LoadWarpAllowances failed: %v", err)
	}
	tiles := allow[gamemap.OaksLab]
	if len(tiles) != 2 || tiles[0].X != 2 || tiles[0].Y != 7 {
		t.Errorf("unexpected allow-list: %+v", tiles)
	}
}

func TestFileStoreLoadNames(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, dataDir, "names.json", `{"species": {"25": "Pikachu"}, "items": {"4": "Poke Ball"}}`)

	fs := NewFileStore(dataDir, t.TempDir(), testLogger())
	names, err := fs.LoadNames(context.Background())
	if err != nil {
		t.Fatalf("LoadNames failed: %v", err)
	}
	if names.Species[25] != "Pikachu" || names.Items[4] != "Poke Ball" {
		t.Errorf("unexpected names: %+v", names)
	}

	// Missing table reads as empty, not an error.
	empty := NewFileStore(t.TempDir(), t.TempDir(), testLogger())
	names, err = empty.LoadNames(context.Background())
	if err != nil {
		t.Fatalf("missing name table should not error: %v", err)
	}
	if len(names.Species) != 0 {
		t.Errorf("expected empty species table, got %+v", names.Species)
	}
}

func TestFileStoreProgressRoundTrip(t *testing.T) {
	fs := NewFileStore(t.TempDir(), t.TempDir(), testLogger())
	ctx := context.Background()

	quests := map[string]bool{"leave-home": true}
	triggers := map[string]bool{"leave-home_0": true, "get-pokedex_0": false}

	if err := fs.SaveProgress(ctx, quests, triggers); err != nil {
		t.Fatalf("SaveProgress failed: %v", err)
	}

	gotQuests, gotTriggers, err := fs.LoadProgress(ctx)
	if err != nil {
		t.Fatalf("LoadProgress failed: %v", err)
	}
	if !gotQuests["leave-home"] {
		t.Error("quest completion lost in round trip")
	}
	if !gotTriggers["leave-home_0"] || gotTriggers["get-pokedex_0"] {
		t.Errorf("trigger map lost in round trip: %v", gotTriggers)
	}
}

func TestFileStoreProgressFreshStart(t *testing.T) {
	fs := NewFileStore(t.TempDir(), t.TempDir(), testLogger())

	quests, triggers, err := fs.LoadProgress(context.Background())
	if err != nil {
		t.Fatalf("missing progress should not error: %v", err)
	}
	if len(quests) != 0 || len(triggers) != 0 {
		t.Errorf("expected empty maps, got %v, %v", quests, triggers)
	}
}

func TestFileStoreProgressCorrupt(t *testing.T) {
	stateDir := t.TempDir()
	writeFile(t, stateDir, "quest_status.json", `{"leave-home": tru`)

	fs := NewFileStore(t.TempDir(), stateDir, testLogger())
	quests, _, err := fs.LoadProgress(context.Background())
	if err != nil {
		t.Fatalf("corrupt progress should degrade, not error: %v", err)
	}
	if len(quests) != 0 {
		t.Errorf("expected fresh map after corrupt file, got %v", quests)
	}
}

func TestFileStorePing(t *testing.T) {
	fs := NewFileStore(t.TempDir(), t.TempDir(), testLogger())
	if err := fs.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}

	gone := NewFileStore(filepath.Join(t.TempDir(), "missing"), "", testLogger())
	if err := gone.Ping(context.Background()); err == nil {
		t.Error("expected ping failure for missing data dir")
	}
}
