package quest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/state"
	"github.com/jwebster45206/questline/pkg/trigger"
)

type mockStore struct {
	loadQuests   map[string]bool
	loadTriggers map[string]bool
	loadErr      error
	saveErr      error
	saves        int
	lastQuests   map[string]bool
	lastTriggers map[string]bool
}

var _ ProgressStore = (*mockStore)(nil)

func (m *mockStore) LoadProgress(ctx context.Context) (map[string]bool, map[string]bool, error) {
	if m.loadErr != nil {
		return nil, nil, m.loadErr
	}
	return m.loadQuests, m.loadTriggers, nil
}

func (m *mockStore) SaveProgress(ctx context.Context, quests, triggers map[string]bool) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.lastQuests = quests
	m.lastTriggers = triggers
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

// twoQuestChain is quest B gated on quest A. A completes on reaching
// the lab, B on reading the pokedex flag.
func twoQuestChain() []Quest {
	return []Quest{
		{
			ID:       "leave-home",
			Location: gamemap.PalletTown,
			Triggers: trigger.List{trigger.MapIDEquals{Map: gamemap.OaksLab}},
		},
		{
			ID:       "get-pokedex",
			Location: gamemap.OaksLab,
			Prereqs:  []string{"leave-home"},
			Triggers: trigger.List{trigger.EventCompleted{Flag: "got_pokedex"}},
		},
	}
}

func newTestEngine(t *testing.T, quests []Quest, store *mockStore, opts Options) *Engine {
	t.Helper()
	if opts.Clock == nil {
		clk := &fakeClock{t: time.Unix(1000, 0)}
		opts.Clock = clk.Now
	}
	e, err := NewEngine(context.Background(), quests, store, testLogger(), opts)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// assertActiveInvariant checks the engine's active quest is the first
// incomplete quest with satisfied prerequisites, or none.
func assertActiveInvariant(t *testing.T, e *Engine) {
	t.Helper()
	want := ""
	for _, q := range e.Quests() {
		if e.Completed(q.ID) {
			continue
		}
		ready := true
		for _, p := range q.Prereqs {
			if !e.Completed(p) {
				ready = false
				break
			}
		}
		if ready {
			want = q.ID
			break
		}
	}
	if got := e.ActiveID(); got != want {
		t.Errorf("active = %q, want %q", got, want)
	}
}

func TestEngineInitialActive(t *testing.T) {
	var transitions []Transition
	store := &mockStore{}
	e := newTestEngine(t, twoQuestChain(), store, Options{
		Notify: func(tr Transition) { transitions = append(transitions, tr) },
	})

	if got := e.ActiveID(); got != "leave-home" {
		t.Errorf("active = %q, want leave-home", got)
	}
	if len(transitions) != 1 || transitions[0].From != "" || transitions[0].To != "leave-home" {
		t.Errorf("startup transition = %+v", transitions)
	}
	assertActiveInvariant(t, e)
}

func TestEngineCompletesAndAdvances(t *testing.T) {
	var transitions []Transition
	store := &mockStore{}
	clk := &fakeClock{t: time.Unix(1000, 0)}
	e := newTestEngine(t, twoQuestChain(), store, Options{
		Clock:  clk.Now,
		Notify: func(tr Transition) { transitions = append(transitions, tr) },
	})

	hist := state.NewMapHistory()
	hist.Observe(gamemap.PalletTown)

	// Not at the lab yet: nothing happens.
	res := e.Step(context.Background(), &state.Snapshot{Map: gamemap.PalletTown}, hist)
	if len(res.Completed) != 0 || res.Changed {
		t.Fatalf("premature progress: %+v", res)
	}
	if store.saves != 0 {
		t.Fatalf("saves = %d, want 0", store.saves)
	}

	// Entering the lab completes the first quest and advances
	// immediately, without waiting for the recompute interval.
	hist.Observe(gamemap.OaksLab)
	res = e.Step(context.Background(), &state.Snapshot{Map: gamemap.OaksLab}, hist)
	if len(res.Completed) != 1 || res.Completed[0] != "leave-home" {
		t.Fatalf("completed = %v", res.Completed)
	}
	if !res.Changed || res.Active != "get-pokedex" {
		t.Fatalf("active = %q changed=%v, want get-pokedex changed", res.Active, res.Changed)
	}
	if store.saves == 0 {
		t.Fatal("completion must persist immediately")
	}
	if !store.lastQuests["leave-home"] {
		t.Error("persisted quest map missing completion")
	}
	if !store.lastTriggers[TriggerKey("leave-home", 0)] {
		t.Error("persisted trigger map missing latch")
	}
	if len(transitions) != 2 || transitions[1].From != "leave-home" || transitions[1].To != "get-pokedex" {
		t.Errorf("transitions = %+v", transitions)
	}
	assertActiveInvariant(t, e)
}

func TestEngineTriggerLatching(t *testing.T) {
	// Two triggers that are never true at the same time: the dialog
	// shows once, the flag sets later. Latching must carry the first
	// trigger across steps.
	quests := []Quest{{
		ID:       "talk-and-finish",
		Location: gamemap.OaksLab,
		Triggers: trigger.List{
			trigger.DialogContains{Text: "take good care of it"},
			trigger.EventCompleted{Flag: "starter_chosen"},
		},
	}}
	store := &mockStore{}
	e := newTestEngine(t, quests, store, Options{})
	hist := state.NewMapHistory()
	hist.Observe(gamemap.OaksLab)

	res := e.Step(context.Background(), &state.Snapshot{
		Map:    gamemap.OaksLab,
		Dialog: "OAK: Take good care of it!",
		Flags:  map[string]bool{"starter_chosen": false},
	}, hist)
	if len(res.Latched) != 1 || res.Latched[0] != TriggerKey("talk-and-finish", 0) {
		t.Fatalf("latched = %v", res.Latched)
	}
	if len(res.Completed) != 0 {
		t.Fatal("quest should not complete with one trigger pending")
	}
	if !e.TriggerDone("talk-and-finish", 0) {
		t.Error("latch not recorded")
	}

	// Dialog gone, flag now set: the earlier latch still counts.
	res = e.Step(context.Background(), &state.Snapshot{
		Map:   gamemap.OaksLab,
		Flags: map[string]bool{"starter_chosen": true},
	}, hist)
	if len(res.Completed) != 1 {
		t.Fatalf("completed = %v, want the quest", res.Completed)
	}
}

func TestEnginePrereqGate(t *testing.T) {
	// Quest B's trigger holds from the start, but A is incomplete: B
	// must never become active or complete.
	quests := []Quest{
		{ID: "a", Triggers: trigger.List{trigger.EventCompleted{Flag: "a_done"}}},
		{ID: "b", Prereqs: []string{"a"}, Triggers: trigger.List{trigger.PartySizeIs{Size: 0}}},
	}
	store := &mockStore{}
	clk := &fakeClock{t: time.Unix(1000, 0)}
	e := newTestEngine(t, quests, store, Options{Clock: clk.Now})
	hist := state.NewMapHistory()
	snap := &state.Snapshot{Flags: map[string]bool{"a_done": false}}

	for i := 0; i < 10; i++ {
		clk.Advance(time.Minute)
		e.Step(context.Background(), snap, hist)
		if e.ActiveID() != "a" {
			t.Fatalf("step %d: active = %q, want a", i, e.ActiveID())
		}
		if e.Completed("b") {
			t.Fatal("b completed while gated")
		}
		assertActiveInvariant(t, e)
	}

	// Completing A opens the gate; B's standing trigger finishes it on
	// the next step.
	snap.Flags["a_done"] = true
	res := e.Step(context.Background(), snap, hist)
	if res.Active != "b" {
		t.Fatalf("active = %q, want b", res.Active)
	}
	res = e.Step(context.Background(), snap, hist)
	if len(res.Completed) != 1 || res.Completed[0] != "b" {
		t.Fatalf("completed = %v, want b", res.Completed)
	}
	assertActiveInvariant(t, e)
}

func TestEngineCompletionMonotonic(t *testing.T) {
	store := &mockStore{}
	e := newTestEngine(t, twoQuestChain(), store, Options{})
	hist := state.NewMapHistory()
	hist.Observe(gamemap.OaksLab)

	e.Step(context.Background(), &state.Snapshot{Map: gamemap.OaksLab}, hist)
	if !e.Completed("leave-home") {
		t.Fatal("setup: quest should be complete")
	}

	// Conditions now false again; completion must not regress.
	hist.Observe(gamemap.PalletTown)
	for i := 0; i < 5; i++ {
		e.Step(context.Background(), &state.Snapshot{Map: gamemap.PalletTown}, hist)
		if !e.Completed("leave-home") {
			t.Fatal("completion regressed")
		}
	}
}

func TestEngineResumesFromStore(t *testing.T) {
	store := &mockStore{
		loadQuests:   map[string]bool{"leave-home": true},
		loadTriggers: map[string]bool{TriggerKey("leave-home", 0): true},
	}
	e := newTestEngine(t, twoQuestChain(), store, Options{})
	if got := e.ActiveID(); got != "get-pokedex" {
		t.Errorf("active = %q, want get-pokedex after resume", got)
	}
	if !e.Completed("leave-home") {
		t.Error("persisted completion not loaded")
	}
}

func TestEngineCorruptStoreStartsFresh(t *testing.T) {
	store := &mockStore{loadErr: errors.New("unexpected end of JSON input")}
	e := newTestEngine(t, twoQuestChain(), store, Options{})
	if got := e.ActiveID(); got != "leave-home" {
		t.Errorf("active = %q, want leave-home on fresh start", got)
	}
	if e.Completed("leave-home") || e.Completed("get-pokedex") {
		t.Error("nothing should be complete after a corrupt load")
	}
}

func TestEngineSaveFailureIsNotFatal(t *testing.T) {
	store := &mockStore{saveErr: errors.New("disk full")}
	e := newTestEngine(t, twoQuestChain(), store, Options{})
	hist := state.NewMapHistory()
	hist.Observe(gamemap.OaksLab)

	res := e.Step(context.Background(), &state.Snapshot{Map: gamemap.OaksLab}, hist)
	if len(res.Completed) != 1 {
		t.Fatal("completion should proceed despite save failure")
	}
	if !e.Completed("leave-home") {
		t.Error("in-memory state should still advance")
	}
}

func TestEngineUnknownTriggerNeverCompletes(t *testing.T) {
	quests := []Quest{{
		ID:       "future-quest",
		Triggers: trigger.List{trigger.Unknown{RawKind: "weather_is"}},
	}}
	store := &mockStore{}
	e := newTestEngine(t, quests, store, Options{})
	hist := state.NewMapHistory()

	for i := 0; i < 5; i++ {
		res := e.Step(context.Background(), &state.Snapshot{}, hist)
		if len(res.Completed) != 0 {
			t.Fatal("unknown trigger must never latch")
		}
	}
	if e.Completed("future-quest") {
		t.Error("quest with unknown trigger completed")
	}
}

func TestEngineAllCompleteMeansNone(t *testing.T) {
	store := &mockStore{
		loadQuests: map[string]bool{"leave-home": true, "get-pokedex": true},
	}
	e := newTestEngine(t, twoQuestChain(), store, Options{})
	if got := e.ActiveID(); got != "" {
		t.Errorf("active = %q, want none", got)
	}
	res := e.Step(context.Background(), &state.Snapshot{}, state.NewMapHistory())
	if res.Active != "" || len(res.Completed) != 0 {
		t.Errorf("step on finished line = %+v", res)
	}
}

func TestEngineRecomputeThrottle(t *testing.T) {
	var notifies int
	store := &mockStore{}
	clk := &fakeClock{t: time.Unix(1000, 0)}
	e := newTestEngine(t, twoQuestChain(), store, Options{
		Clock:             clk.Now,
		RecomputeInterval: time.Minute,
		Notify:            func(Transition) { notifies++ },
	})
	if notifies != 1 {
		t.Fatalf("startup notifies = %d, want 1", notifies)
	}

	hist := state.NewMapHistory()
	snap := &state.Snapshot{Map: gamemap.PalletTown}
	// Steps inside the throttle window with no completions never
	// re-notify.
	for i := 0; i < 20; i++ {
		clk.Advance(time.Second)
		e.Step(context.Background(), snap, hist)
	}
	if notifies != 1 {
		t.Errorf("notifies = %d, want 1 (no change, inside window)", notifies)
	}

	// Completion bypasses the throttle.
	hist.Observe(gamemap.OaksLab)
	e.Step(context.Background(), &state.Snapshot{Map: gamemap.OaksLab}, hist)
	if notifies != 2 {
		t.Errorf("notifies = %d, want 2 after completion", notifies)
	}
}
