package agent

import (
	"strconv"
	"strings"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/dialog"
	"github.com/jwebster45206/questline/pkg/state"
)

// shopStage tracks where the buy sequence is. Menu state is not
// readable from memory directly, so stages advance on dialog
// substring matches.
type shopStage int

const (
	stageOpen    shopStage = iota // waiting for the buy/sell menu
	stageList                     // item list: pick the item
	stageQty                      // quantity selector
	stageConfirm                  // final confirmation prompt
	stageLeave                    // purchase settled, back out
)

// shopFlow drives one scripted mart purchase: open the menu, choose
// buy, select the item, enter the largest affordable quantity up to
// the cap, confirm, and back out. One call produces one button press.
type shopFlow struct {
	item   string
	price  int
	maxQty int

	stage   shopStage
	engaged bool // a dialog has been seen since the flow started
	ups     int  // quantity presses still owed, -1 until computed
}

// parseBuy reads a scripted buy action of the form
// "buy <price> <max-quantity> <item name>".
func parseBuy(s string) (*shopFlow, bool) {
	fields := strings.Fields(s)
	if len(fields) < 4 || !strings.EqualFold(fields[0], "buy") {
		return nil, false
	}
	price, err := strconv.Atoi(fields[1])
	if err != nil || price < 0 {
		return nil, false
	}
	qty, err := strconv.Atoi(fields[2])
	if err != nil || qty < 1 {
		return nil, false
	}
	return &shopFlow{
		item:   strings.Join(fields[3:], " "),
		price:  price,
		maxQty: qty,
		ups:    -1,
	}, true
}

// IsBuyAction reports whether a scripted action string is a
// well-formed buy command. Used by the quest file validator.
func IsBuyAction(s string) bool {
	_, ok := parseBuy(s)
	return ok
}

// next returns the flow's button press for this tick. done reports the
// flow has ended, whether by finishing the purchase, aborting on
// funds, or losing the menu.
func (f *shopFlow) next(snap *state.Snapshot) (Action, bool) {
	d := snap.Dialog
	if d == "" {
		if f.stage == stageLeave {
			return Wait("shop flow finished"), true
		}
		if !f.engaged {
			// Not talking yet: open the clerk dialog.
			return Action{Button: emulator.ButtonA, Note: "opening shop menu"}, false
		}
		// The menu closed under us mid-flow.
		return Wait("shop flow aborted"), true
	}
	f.engaged = true

	switch f.stage {
	case stageOpen:
		if dialog.Contains(d, "buy") {
			f.stage = stageList
			return Action{Button: emulator.ButtonA, Note: "selecting buy"}, false
		}
		return Action{Button: emulator.ButtonA, Note: "advancing shop dialog"}, false
	case stageList:
		if dialog.Contains(d, "how many") {
			f.stage = stageQty
			return f.quantity(snap)
		}
		if dialog.Contains(d, f.item) {
			f.stage = stageQty
			return Action{Button: emulator.ButtonA, Note: "selecting " + f.item}, false
		}
		return Action{Button: emulator.ButtonA, Note: "advancing shop dialog"}, false
	case stageQty:
		if !dialog.Contains(d, "how many") {
			return Action{Button: emulator.ButtonA, Note: "advancing shop dialog"}, false
		}
		return f.quantity(snap)
	case stageConfirm:
		f.stage = stageLeave
		return Action{Button: emulator.ButtonA, Note: "confirming purchase"}, false
	default:
		return Action{Button: emulator.ButtonB, Note: "leaving shop"}, false
	}
}

// quantity answers the "how many" prompt. The entered quantity is the
// largest count current funds cover, capped by the script.
func (f *shopFlow) quantity(snap *state.Snapshot) (Action, bool) {
	if f.ups < 0 {
		afford := 0
		if f.price > 0 {
			afford = snap.Money / f.price
		}
		if afford > f.maxQty {
			afford = f.maxQty
		}
		if afford < 1 {
			f.stage = stageLeave
			return Action{Button: emulator.ButtonB, Note: "cannot afford " + f.item}, false
		}
		f.ups = afford - 1
	}
	if f.ups > 0 {
		f.ups--
		return Action{Button: emulator.ButtonUp, Note: "raising quantity"}, false
	}
	f.stage = stageConfirm
	return Action{Button: emulator.ButtonA, Note: "entering quantity"}, false
}
