package agent

import (
	"testing"

	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/pkg/state"
)

func TestParseBuy(t *testing.T) {
	flow, ok := parseBuy("buy 200 5 poke ball")
	if !ok {
		t.Fatal("expected buy action to parse")
	}
	if flow.item != "poke ball" || flow.price != 200 || flow.maxQty != 5 {
		t.Errorf("unexpected flow: item=%q price=%d max=%d", flow.item, flow.price, flow.maxQty)
	}

	bad := []string{
		"press a",
		"buy 200 5",
		"buy abc 5 potion",
		"buy 200 0 potion",
		"buy 200 -1 potion",
	}
	for _, s := range bad {
		if _, ok := parseBuy(s); ok {
			t.Errorf("expected %q to fail parsing", s)
		}
	}
}

// press runs one flow tick against the dialog and asserts the button.
func press(t *testing.T, f *shopFlow, money int, dialogText string, want emulator.Button) {
	t.Helper()
	snap := &state.Snapshot{Money: money, Dialog: dialogText}
	act, done := f.next(snap)
	if done {
		t.Fatalf("flow ended early at dialog %q (note %q)", dialogText, act.Note)
	}
	if act.Button != want {
		t.Fatalf("at dialog %q: expected %q, got %q (note %q)", dialogText, want, act.Button, act.Note)
	}
}

func TestShopFlowFullPurchase(t *testing.T) {
	flow, ok := parseBuy("buy 200 5 poke ball")
	if !ok {
		t.Fatal("expected buy action to parse")
	}
	money := 850 // affords 4 of the capped 5

	press(t, flow, money, "", emulator.ButtonA) // open the clerk dialog
	press(t, flow, money, "Hi there! May I help you? BUY SELL QUIT", emulator.ButtonA)
	press(t, flow, money, "Take your time.", emulator.ButtonA)
	press(t, flow, money, "POKE BALL ¥200 GREAT BALL ¥600", emulator.ButtonA)
	// Quantity: 4 affordable, so three raises then confirm.
	press(t, flow, money, "POKE BALL? That will be ¥200. How many?", emulator.ButtonUp)
	press(t, flow, money, "POKE BALL? That will be ¥400. How many?", emulator.ButtonUp)
	press(t, flow, money, "POKE BALL? That will be ¥600. How many?", emulator.ButtonUp)
	press(t, flow, money, "POKE BALL? That will be ¥800. How many?", emulator.ButtonA)
	press(t, flow, money, "POKE BALL? That will be ¥800. OK?", emulator.ButtonA)
	press(t, flow, money, "Here you are! Thank you!", emulator.ButtonB)
	press(t, flow, money, "Is there anything else?", emulator.ButtonB)

	act, done := flow.next(&state.Snapshot{Money: money})
	if !done {
		t.Fatalf("expected flow to finish on closed dialog, got %q", act.String())
	}
}

func TestShopFlowCapsAtScriptQuantity(t *testing.T) {
	flow, ok := parseBuy("buy 100 2 potion")
	if !ok {
		t.Fatal("expected buy action to parse")
	}
	money := 10000 // affords far more than the cap

	press(t, flow, money, "May I help you? BUY SELL", emulator.ButtonA)
	press(t, flow, money, "POTION ¥100", emulator.ButtonA)
	// Cap of 2: one raise then confirm.
	press(t, flow, money, "POTION? That will be ¥100. How many?", emulator.ButtonUp)
	press(t, flow, money, "POTION? That will be ¥200. How many?", emulator.ButtonA)
	press(t, flow, money, "POTION? That will be ¥200. OK?", emulator.ButtonA)
}

func TestShopFlowCannotAfford(t *testing.T) {
	flow, ok := parseBuy("buy 500 3 potion")
	if !ok {
		t.Fatal("expected buy action to parse")
	}
	money := 499

	press(t, flow, money, "May I help you? BUY SELL", emulator.ButtonA)
	press(t, flow, money, "POTION ¥500", emulator.ButtonA)
	// Unaffordable: back out instead of buying zero.
	press(t, flow, money, "POTION? That will be ¥500. How many?", emulator.ButtonB)
	press(t, flow, money, "Is there anything else?", emulator.ButtonB)

	_, done := flow.next(&state.Snapshot{Money: money})
	if !done {
		t.Fatal("expected flow to finish after backing out")
	}
}

func TestShopFlowAbortsWhenMenuCloses(t *testing.T) {
	flow, ok := parseBuy("buy 100 1 potion")
	if !ok {
		t.Fatal("expected buy action to parse")
	}

	press(t, flow, 1000, "May I help you? BUY SELL", emulator.ButtonA)

	// Dialog vanished mid-flow, e.g. a wild battle interrupted it.
	_, done := flow.next(&state.Snapshot{Money: 1000})
	if !done {
		t.Fatal("expected flow to abort when the menu closed mid-flow")
	}
}
