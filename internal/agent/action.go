package agent

import (
	"strings"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/gamemap"
)

// Action is one tick's output: either a button press or a deliberate
// wait. Note explains substitutions for logs and the status channel.
type Action struct {
	Button emulator.Button `json:"button,omitempty"`
	Wait   bool            `json:"wait,omitempty"`
	Note   string          `json:"note,omitempty"`
}

// Pressed reports whether the action presses anything.
func (a Action) Pressed() bool {
	return !a.Wait && a.Button != ""
}

func (a Action) String() string {
	if a.Wait || a.Button == "" {
		return "wait"
	}
	return string(a.Button)
}

// Wait returns a no-op action carrying a note.
func Wait(note string) Action {
	return Action{Wait: true, Note: note}
}

// Press returns a button-press action.
func Press(b emulator.Button) Action {
	return Action{Button: b}
}

// ParseAction maps a scripted action name to an Action. Unknown names
// soft-fail to a wait whose note names the bad input, so a stale
// script line cannot stop the session.
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "confirm":
		return Press(emulator.ButtonA), true
	case "b", "cancel":
		return Press(emulator.ButtonB), true
	case "up":
		return Press(emulator.ButtonUp), true
	case "down":
		return Press(emulator.ButtonDown), true
	case "left":
		return Press(emulator.ButtonLeft), true
	case "right":
		return Press(emulator.ButtonRight), true
	case "start":
		return Press(emulator.ButtonStart), true
	case "select":
		return Press(emulator.ButtonSelect), true
	case "wait", "none", "":
		return Wait(""), true
	}
	return Wait("unknown scripted action " + strings.TrimSpace(s)), false
}

// ledgerKey identifies one scripted rule's firing slot: the quest, the
// tile it is keyed to, and the action it forces.
type ledgerKey struct {
	Quest  string
	Coord  gamemap.Coord
	Action string
}

// Ledger counts scripted-rule firings so each rule fires only its
// documented number of times per coordinate per quest. It lives for
// the session and is never persisted.
type Ledger struct {
	fired map[ledgerKey]int
}

func NewLedger() *Ledger {
	return &Ledger{fired: make(map[ledgerKey]int)}
}

// Fired returns how often the rule has fired.
func (l *Ledger) Fired(questID string, c gamemap.Coord, action string) int {
	return l.fired[ledgerKey{Quest: questID, Coord: c, Action: action}]
}

// Record counts one firing.
func (l *Ledger) Record(questID string, c gamemap.Coord, action string) {
	l.fired[ledgerKey{Quest: questID, Coord: c, Action: action}]++
}
