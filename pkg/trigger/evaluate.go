package trigger

import (
	"fmt"

	"github.com/jwebster45206/questline/pkg/dialog"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/state"
)

type transitionKey struct {
	from, to gamemap.ID
}

// Evaluator evaluates triggers against a snapshot and the bounded map
// history. Evaluation is pure except for one-way transition
// suppression, which is the evaluator's only state. It runs on every
// step of an unattended loop, so it reports failures in the debug
// string and never panics.
type Evaluator struct {
	blocked map[transitionKey]struct{}
}

func NewEvaluator() *Evaluator {
	return &Evaluator{blocked: make(map[transitionKey]struct{})}
}

// Evaluate returns whether the trigger currently holds, plus a debug
// string explaining the outcome either way.
func (e *Evaluator) Evaluate(t Trigger, snap *state.Snapshot, hist *state.MapHistory) (bool, string) {
	if t == nil {
		return false, "nil trigger"
	}
	if snap == nil {
		return false, "no snapshot"
	}

	switch v := t.(type) {
	case MapIDEquals:
		if snap.Map == v.Map {
			return true, fmt.Sprintf("current map is %d", v.Map)
		}
		return false, fmt.Sprintf("current map %d, want %d", snap.Map, v.Map)

	case PreviousMapWas:
		if hist == nil {
			return false, "no map history"
		}
		prev, ok := hist.Previous()
		if !ok {
			return false, "no previous map yet"
		}
		if prev == v.Map {
			return true, fmt.Sprintf("previous map was %d", v.Map)
		}
		return false, fmt.Sprintf("previous map %d, want %d", prev, v.Map)

	case OneWayTransition:
		return e.evalOneWay(v, snap, hist)

	case PartySizeIs:
		if snap.PartySize() == v.Size {
			return true, fmt.Sprintf("party size is %d", v.Size)
		}
		return false, fmt.Sprintf("party size %d, want %d", snap.PartySize(), v.Size)

	case EventCompleted:
		set, ok := snap.Flag(v.Flag)
		if !ok {
			return false, fmt.Sprintf("event flag %q not resolved this frame", v.Flag)
		}
		if set {
			return true, fmt.Sprintf("event flag %q set", v.Flag)
		}
		return false, fmt.Sprintf("event flag %q clear", v.Flag)

	case DialogContains:
		if !snap.InDialog() {
			return false, "no textbox open"
		}
		if dialog.Contains(snap.Dialog, v.Text) {
			return true, fmt.Sprintf("dialog contains %q", v.Text)
		}
		return false, fmt.Sprintf("dialog does not contain %q", v.Text)

	case ItemMinQuantity:
		qty := snap.ItemQuantity(v.Item)
		if qty >= v.Quantity {
			return true, fmt.Sprintf("bag has %d x %s (need %d)", qty, v.Item, v.Quantity)
		}
		return false, fmt.Sprintf("bag has %d x %s, need %d", qty, v.Item, v.Quantity)

	case SpeciesInParty:
		if snap.HasSpecies(v.Species) {
			return true, fmt.Sprintf("%s is in the party", v.Species)
		}
		return false, fmt.Sprintf("%s is not in the party", v.Species)

	case BattleTypeIs:
		want, ok := state.ParseBattleType(v.Battle)
		if !ok {
			return false, fmt.Sprintf("unknown battle type %q", v.Battle)
		}
		if snap.Battle == want {
			return true, fmt.Sprintf("battle type is %s", want)
		}
		return false, fmt.Sprintf("battle type %s, want %s", snap.Battle, want)

	case BadgeObtained:
		if snap.Badges.Has(v.Badge) {
			return true, fmt.Sprintf("%s badge obtained", v.Badge)
		}
		return false, fmt.Sprintf("%s badge not obtained", v.Badge)

	case CoordInRange:
		return evalCoordRange(v, snap)

	case PartyHPFull:
		if snap.PartyHPFull() {
			return true, "party at full HP"
		}
		return false, "party not at full HP"

	case Unknown:
		return false, fmt.Sprintf("unknown trigger kind %q", v.RawKind)

	default:
		return false, fmt.Sprintf("unhandled trigger kind %q", t.Kind())
	}
}

// evalOneWay checks the most recent transition and applies pair
// suppression: once fired, the pair stays blocked until the player
// visits a map outside it. Returning to the source and stepping
// forward again is not enough to re-arm.
func (e *Evaluator) evalOneWay(v OneWayTransition, snap *state.Snapshot, hist *state.MapHistory) (bool, string) {
	key := transitionKey{from: v.From, to: v.To}
	if snap.Map != v.To && snap.Map != v.From {
		delete(e.blocked, key)
	}
	if hist == nil {
		return false, "no map history"
	}
	from, to, ok := hist.LastTransition()
	if !ok {
		return false, "no transition yet"
	}
	if from != v.From || to != v.To || snap.Map != v.To {
		return false, fmt.Sprintf("last transition %d->%d, want %d->%d", from, to, v.From, v.To)
	}
	if _, fired := e.blocked[key]; fired {
		return false, fmt.Sprintf("transition %d->%d suppressed until the pair is left", v.From, v.To)
	}
	e.blocked[key] = struct{}{}
	return true, fmt.Sprintf("transition %d->%d observed", v.From, v.To)
}

func evalCoordRange(v CoordInRange, snap *state.Snapshot) (bool, string) {
	if v.Map == nil && v.MinX == nil && v.MaxX == nil && v.MinY == nil && v.MaxY == nil {
		return false, "no bounds specified"
	}
	if v.Map != nil && snap.Map != *v.Map {
		return false, fmt.Sprintf("on map %d, want %d", snap.Map, *v.Map)
	}
	if v.MinX != nil && snap.X < *v.MinX {
		return false, fmt.Sprintf("x=%d below min %d", snap.X, *v.MinX)
	}
	if v.MaxX != nil && snap.X > *v.MaxX {
		return false, fmt.Sprintf("x=%d above max %d", snap.X, *v.MaxX)
	}
	if v.MinY != nil && snap.Y < *v.MinY {
		return false, fmt.Sprintf("y=%d below min %d", snap.Y, *v.MinY)
	}
	if v.MaxY != nil && snap.Y > *v.MaxY {
		return false, fmt.Sprintf("y=%d above max %d", snap.Y, *v.MaxY)
	}
	return true, fmt.Sprintf("(%d,%d) within range", snap.X, snap.Y)
}
