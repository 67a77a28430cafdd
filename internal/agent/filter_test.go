package agent

import (
	"log/slog"
	"os"
	"testing"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/quest"
	"github.com/jwebster45206/questline/pkg/state"
)

func testLogger() *slog.Logger {
	// Reduce noise in tests
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func snapAt(m gamemap.ID, x, y int) *state.Snapshot {
	return &state.Snapshot{Map: m, X: x, Y: y}
}

func TestFilterPassthroughWithoutQuest(t *testing.T) {
	f := NewFilter(testLogger())
	proposed := Press(emulator.ButtonRight)

	got := f.Apply(View{Snap: snapAt(1, 5, 5)}, proposed)
	if got != proposed {
		t.Errorf("expected passthrough, got %q", got.String())
	}
}

func TestFilterNeverOverridesDialog(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:     "talk",
		Script: []quest.ScriptRule{{Map: 1, X: 5, Y: 5, Action: "start"}},
	}
	snap := snapAt(1, 5, 5)
	snap.Dialog = "Hello! Welcome to the world of POKEMON!"
	proposed := Press(emulator.ButtonA)

	got := f.Apply(View{Snap: snap, Quest: q}, proposed)
	if got != proposed {
		t.Errorf("expected dialog advance to pass through, got %q", got.String())
	}

	// The scripted rule did not burn its slot behind the dialog.
	if n := f.ledger.Fired("talk", snap.Coord(), "start"); n != 0 {
		t.Errorf("expected rule unfired during dialog, got %d firings", n)
	}
}

func TestFilterHoldsAtBlockedWarpTarget(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:           "stay-inside",
		BlockedWarps: []gamemap.Coord{{Map: 40, X: 4, Y: 8}},
	}
	snap := snapAt(40, 4, 7) // blocked tile is one step down

	got := f.Apply(View{Snap: snap, Quest: q}, Press(emulator.ButtonDown))
	if !got.Wait {
		t.Fatalf("expected a hold, got %q", got.String())
	}

	// Moving away from the warp is untouched.
	up := f.Apply(View{Snap: snap, Quest: q}, Press(emulator.ButtonUp))
	if up.Button != emulator.ButtonUp {
		t.Errorf("expected up to pass through, got %q", up.String())
	}
}

func TestFilterStepsOffBlockedWarpTile(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:           "stay-inside",
		BlockedWarps: []gamemap.Coord{{Map: 40, X: 4, Y: 8}},
	}
	snap := snapAt(40, 4, 8) // standing on the blocked tile

	got := f.Apply(View{Snap: snap, Quest: q}, Wait(""))
	if !got.Pressed() {
		t.Fatalf("expected a step off the warp, got %q", got.String())
	}
	dir, ok := emulator.DirectionFor(got.Button)
	if !ok {
		t.Fatalf("expected a movement button, got %q", got.Button)
	}
	dr, dc := dir.Delta()
	dest := gamemap.Coord{Map: 40, X: 4 + dc, Y: 8 + dr}
	if q.WarpBlocked(dest) {
		t.Errorf("substituted step lands on another blocked tile %s", dest.String())
	}
}

func TestFilterWarpBlockOutranksScript(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:           "ordering",
		BlockedWarps: []gamemap.Coord{{Map: 2, X: 3, Y: 6}},
		Script:       []quest.ScriptRule{{Map: 2, X: 3, Y: 5, Action: "a"}},
	}
	snap := snapAt(2, 3, 5)

	got := f.Apply(View{Snap: snap, Quest: q}, Press(emulator.ButtonDown))
	if !got.Wait {
		t.Fatalf("expected the warp hold to win, got %q", got.String())
	}
	if n := f.ledger.Fired("ordering", snap.Coord(), "a"); n != 0 {
		t.Errorf("expected script rule preserved behind warp block, got %d firings", n)
	}
}

func TestFilterScriptRuleFiresLimitedTimes(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:     "greet",
		Script: []quest.ScriptRule{{Map: 1, X: 5, Y: 5, Action: "a", Times: 2}},
	}
	snap := snapAt(1, 5, 5)
	proposed := Wait("no route target")

	for i := 0; i < 2; i++ {
		got := f.Apply(View{Snap: snap, Quest: q}, proposed)
		if got.Button != emulator.ButtonA {
			t.Fatalf("firing %d: expected a press, got %q", i+1, got.String())
		}
	}

	got := f.Apply(View{Snap: snap, Quest: q}, proposed)
	if got != proposed {
		t.Errorf("expected exhausted rule to pass through, got %q", got.String())
	}
}

func TestFilterScriptRuleDefaultsToOneFiring(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:     "nudge",
		Script: []quest.ScriptRule{{Map: 1, X: 2, Y: 2, Action: "left"}},
	}
	snap := snapAt(1, 2, 2)

	if got := f.Apply(View{Snap: snap, Quest: q}, Wait("")); got.Button != emulator.ButtonLeft {
		t.Fatalf("expected left press, got %q", got.String())
	}
	if got := f.Apply(View{Snap: snap, Quest: q}, Wait("")); got.Button == emulator.ButtonLeft {
		t.Error("expected single-shot rule to stop after one firing")
	}
}

func TestFilterScriptRuleIgnoresOtherTiles(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:     "greet",
		Script: []quest.ScriptRule{{Map: 1, X: 5, Y: 5, Action: "a"}},
	}
	proposed := Press(emulator.ButtonDown)

	got := f.Apply(View{Snap: snapAt(1, 5, 6), Quest: q}, proposed)
	if got != proposed {
		t.Errorf("expected passthrough off the rule tile, got %q", got.String())
	}
}

func TestFilterUnknownScriptActionBurnsSlotAsWait(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:     "odd",
		Script: []quest.ScriptRule{{Map: 1, X: 5, Y: 5, Action: "flail"}},
	}
	snap := snapAt(1, 5, 5)
	proposed := Press(emulator.ButtonDown)

	got := f.Apply(View{Snap: snap, Quest: q}, proposed)
	if !got.Wait {
		t.Fatalf("expected unknown action to substitute a wait, got %q", got.String())
	}

	// The bad line consumed its firing; the session moves on.
	got = f.Apply(View{Snap: snap, Quest: q}, proposed)
	if got != proposed {
		t.Errorf("expected passthrough after the bad rule burned out, got %q", got.String())
	}
}

func TestFilterShopRuleRunsFlowToCompletion(t *testing.T) {
	f := NewFilter(testLogger())
	q := &quest.Quest{
		ID:     "stock-up",
		Script: []quest.ScriptRule{{Map: 3, X: 4, Y: 6, Action: "buy 100 2 potion"}},
	}
	at := func(dialogText string) View {
		snap := snapAt(3, 4, 6)
		snap.Dialog = dialogText
		snap.Money = 1000
		return View{Snap: snap, Quest: q}
	}
	proposed := Wait("no route target")

	// Rule engages on the tile with no dialog open and talks to the
	// clerk.
	if got := f.Apply(at(""), proposed); got.Button != emulator.ButtonA {
		t.Fatalf("expected opening press, got %q", got.String())
	}
	if got := f.Apply(at("May I help you? BUY SELL"), proposed); got.Button != emulator.ButtonA {
		t.Fatalf("expected buy selection, got %q", got.String())
	}
	if got := f.Apply(at("POTION ¥100"), proposed); got.Button != emulator.ButtonA {
		t.Fatalf("expected item selection, got %q", got.String())
	}
	if got := f.Apply(at("POTION? That will be ¥100. How many?"), proposed); got.Button != emulator.ButtonUp {
		t.Fatalf("expected quantity raise, got %q", got.String())
	}
	if got := f.Apply(at("POTION? That will be ¥200. How many?"), proposed); got.Button != emulator.ButtonA {
		t.Fatalf("expected quantity entry, got %q", got.String())
	}
	if got := f.Apply(at("POTION? That will be ¥200. OK?"), proposed); got.Button != emulator.ButtonA {
		t.Fatalf("expected confirmation, got %q", got.String())
	}
	if got := f.Apply(at("Here you are! Thank you!"), proposed); got.Button != emulator.ButtonB {
		t.Fatalf("expected backing out, got %q", got.String())
	}

	// Menu closed: the flow ends and the exhausted rule no longer
	// re-engages.
	if got := f.Apply(at(""), proposed); got != proposed {
		t.Fatalf("expected passthrough after the flow ended, got %q", got.String())
	}
	if f.shop != nil {
		t.Error("expected shop flow disengaged")
	}
}
