package agent

import (
	"strings"
	"testing"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/gamemap"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		button emulator.Button
		wait   bool
		ok     bool
	}{
		{"press a", "a", emulator.ButtonA, false, true},
		{"confirm alias", "Confirm", emulator.ButtonA, false, true},
		{"cancel alias", "cancel", emulator.ButtonB, false, true},
		{"direction", "up", emulator.ButtonUp, false, true},
		{"trimmed", "  down  ", emulator.ButtonDown, false, true},
		{"start", "start", emulator.ButtonStart, false, true},
		{"wait", "wait", "", true, true},
		{"none", "none", "", true, true},
		{"empty", "", "", true, true},
		{"unknown", "dance", "", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, ok := ParseAction(tt.input)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if act.Button != tt.button {
				t.Errorf("expected button %q, got %q", tt.button, act.Button)
			}
			if act.Wait != tt.wait {
				t.Errorf("expected wait=%v, got %v", tt.wait, act.Wait)
			}
		})
	}
}

func TestParseActionUnknownNamesInput(t *testing.T) {
	act, ok := ParseAction("flail wildly")
	if ok {
		t.Fatal("expected unknown action to report !ok")
	}
	if !strings.Contains(act.Note, "flail wildly") {
		t.Errorf("expected note to carry the bad input, got %q", act.Note)
	}
}

func TestActionString(t *testing.T) {
	if s := Press(emulator.ButtonA).String(); s != "a" {
		t.Errorf("expected %q, got %q", "a", s)
	}
	if s := Wait("holding").String(); s != "wait" {
		t.Errorf("expected %q, got %q", "wait", s)
	}
}

func TestLedgerCounts(t *testing.T) {
	l := NewLedger()
	at := gamemap.Coord{Map: 3, X: 10, Y: 4}

	if n := l.Fired("quest-a", at, "a"); n != 0 {
		t.Fatalf("expected 0 firings, got %d", n)
	}
	l.Record("quest-a", at, "a")
	l.Record("quest-a", at, "a")
	if n := l.Fired("quest-a", at, "a"); n != 2 {
		t.Errorf("expected 2 firings, got %d", n)
	}

	// Other quests, tiles, and actions are independent slots.
	if n := l.Fired("quest-b", at, "a"); n != 0 {
		t.Errorf("expected other quest untouched, got %d", n)
	}
	if n := l.Fired("quest-a", gamemap.Coord{Map: 3, X: 10, Y: 5}, "a"); n != 0 {
		t.Errorf("expected other tile untouched, got %d", n)
	}
	if n := l.Fired("quest-a", at, "b"); n != 0 {
		t.Errorf("expected other action untouched, got %d", n)
	}
}
