package agent

import (
	"log/slog"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/quest"
	"github.com/jwebster45206/questline/pkg/state"
)

// View is the frame context the filter judges a proposed action
// against. Quest is the active quest, nil when none is active.
type View struct {
	Snap  *state.Snapshot
	Quest *quest.Quest
}

// Filter turns the planner's proposed action into the effective one.
// It applies, in order: an engaged shop flow, the dialog gate, the
// active quest's warp blocks, then its ledger-gated scripted rules.
// Anything that passes all of them goes through unchanged.
type Filter struct {
	ledger *Ledger
	shop   *shopFlow
	logger *slog.Logger
}

func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{ledger: NewLedger(), logger: logger}
}

// Apply filters one proposed action.
func (f *Filter) Apply(v View, proposed Action) Action {
	// An engaged shop flow owns the session until it ends. Its presses
	// only ever advance or dismiss dialog.
	if f.shop != nil {
		act, done := f.shop.next(v.Snap)
		if !done {
			return act
		}
		f.logger.Debug("shop flow ended", "note", act.Note)
		f.shop = nil
	}

	// A visible dialog is never overridden; the proposal is already
	// the advance or dismiss press.
	if v.Snap.InDialog() {
		return proposed
	}
	if v.Quest == nil {
		return proposed
	}

	if act, ok := f.blockWarp(v, proposed); ok {
		return act
	}
	if act, ok := f.script(v); ok {
		return act
	}
	return proposed
}

// blockWarp keeps the player off the active quest's blocked warp
// tiles: a step onto one is held, and standing on one is answered
// with a step off it.
func (f *Filter) blockWarp(v View, proposed Action) (Action, bool) {
	here := v.Snap.Coord()
	if dir, ok := emulator.DirectionFor(proposed.Button); ok && proposed.Pressed() {
		if v.Quest.WarpBlocked(neighbor(here, dir)) {
			f.logger.Debug("holding at blocked warp", "quest", v.Quest.ID, "from", here.String())
			return Wait("blocked warp ahead"), true
		}
	}

	if !v.Quest.WarpBlocked(here) {
		return Action{}, false
	}
	for _, d := range []grid.Direction{grid.Down, grid.Up, grid.Left, grid.Right} {
		if !v.Quest.WarpBlocked(neighbor(here, d)) {
			return Action{Button: emulator.ButtonFor(d), Note: "stepping off blocked warp"}, true
		}
	}
	return Wait("blocked warps on all sides"), true
}

func neighbor(c gamemap.Coord, d grid.Direction) gamemap.Coord {
	dr, dc := d.Delta()
	return gamemap.Coord{Map: c.Map, X: c.X + dc, Y: c.Y + dr}
}

// script fires the first un-exhausted rule keyed to the player's tile.
// Buy rules hand control to a shop flow; everything else substitutes a
// single press or wait. Unknown action names burn their ledger slot as
// a wait so a bad script line cannot loop forever.
func (f *Filter) script(v View) (Action, bool) {
	here := v.Snap.Coord()
	for _, r := range v.Quest.Script {
		if r.Map != here.Map || r.X != here.X || r.Y != here.Y {
			continue
		}
		if f.ledger.Fired(v.Quest.ID, here, r.Action) >= r.MaxFires() {
			continue
		}
		f.ledger.Record(v.Quest.ID, here, r.Action)

		if flow, ok := parseBuy(r.Action); ok {
			f.shop = flow
			f.logger.Info("scripted purchase engaged",
				"quest", v.Quest.ID, "item", flow.item, "max_qty", flow.maxQty)
			act, _ := flow.next(v.Snap)
			return act, true
		}

		act, known := ParseAction(r.Action)
		if !known {
			f.logger.Debug("unknown scripted action",
				"quest", v.Quest.ID, "action", r.Action, "at", here.String())
		}
		if act.Note == "" {
			act.Note = r.Note
		}
		return act, true
	}
	return Action{}, false
}
