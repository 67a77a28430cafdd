package quest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/questline/pkg/state"
	"github.com/jwebster45206/questline/pkg/trigger"
)

// ProgressStore persists the two completion maps: quest id to
// completed, and trigger key to completed. Saves overwrite the whole
// record; loads at startup tolerate missing data by returning empty
// maps.
type ProgressStore interface {
	LoadProgress(ctx context.Context) (quests map[string]bool, triggers map[string]bool, err error)
	SaveProgress(ctx context.Context, quests map[string]bool, triggers map[string]bool) error
}

// Transition announces an active-quest change to observers.
type Transition struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Options tune the engine. The zero value gets sane defaults.
type Options struct {
	// RecomputeInterval throttles active-quest recomputation; trigger
	// evaluation itself runs every step. Quest completion forces an
	// immediate recompute regardless.
	RecomputeInterval time.Duration
	// Clock is replaceable for tests.
	Clock func() time.Time
	// Notify observes active-quest transitions. May be nil.
	Notify func(Transition)
}

const defaultRecomputeInterval = 2 * time.Second

// Engine owns quest state: the completion maps live here and nowhere
// else. Storage only persists them, and the rest of the system reads
// them through the engine's accessors.
type Engine struct {
	quests []Quest
	index  map[string]int

	eval   *trigger.Evaluator
	store  ProgressStore
	logger *slog.Logger

	completed    map[string]bool
	triggersDone map[string]bool

	active        string
	lastRecompute time.Time
	interval      time.Duration
	clock         func() time.Time
	notify        func(Transition)
}

// StepResult summarizes one engine step.
type StepResult struct {
	Active    string   `json:"active,omitempty"`
	Changed   bool     `json:"changed,omitempty"`
	Completed []string `json:"completed,omitempty"`
	Latched   []string `json:"latched,omitempty"`
}

// NewEngine validates the quest list, loads persisted progress, and
// computes the initial active quest. Corrupt or missing progress is
// not fatal: the engine logs a warning and starts from nothing
// completed.
func NewEngine(ctx context.Context, quests []Quest, store ProgressStore, logger *slog.Logger, opts Options) (*Engine, error) {
	if err := Validate(quests); err != nil {
		return nil, fmt.Errorf("invalid quest list: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RecomputeInterval <= 0 {
		opts.RecomputeInterval = defaultRecomputeInterval
	}

	e := &Engine{
		quests:       quests,
		index:        make(map[string]int, len(quests)),
		eval:         trigger.NewEvaluator(),
		store:        store,
		logger:       logger,
		completed:    make(map[string]bool),
		triggersDone: make(map[string]bool),
		interval:     opts.RecomputeInterval,
		clock:        opts.Clock,
		notify:       opts.Notify,
	}
	for i, q := range quests {
		e.index[q.ID] = i
	}

	qm, tm, err := store.LoadProgress(ctx)
	if err != nil {
		e.logger.Warn("failed to load quest progress, starting fresh", "error", err)
	} else {
		for k, v := range qm {
			if v {
				e.completed[k] = true
			}
		}
		for k, v := range tm {
			if v {
				e.triggersDone[k] = true
			}
		}
	}

	e.recompute("startup")
	e.lastRecompute = e.clock()
	return e, nil
}

// Step evaluates the active quest's remaining triggers against the
// snapshot, latches and persists any that pass, completes the quest
// when none remain, and recomputes the active quest when the throttle
// allows.
func (e *Engine) Step(ctx context.Context, snap *state.Snapshot, hist *state.MapHistory) StepResult {
	res := StepResult{Active: e.active}

	if e.active != "" {
		res = e.evaluateActive(ctx, snap, hist, res)
	}

	force := len(res.Completed) > 0
	if force || e.clock().Sub(e.lastRecompute) >= e.interval {
		before := e.active
		e.recompute("step")
		e.lastRecompute = e.clock()
		if e.active != before {
			res.Changed = true
		}
		res.Active = e.active
	}
	return res
}

func (e *Engine) evaluateActive(ctx context.Context, snap *state.Snapshot, hist *state.MapHistory, res StepResult) StepResult {
	q := e.quests[e.index[e.active]]
	dirty := false
	remaining := 0
	for i, t := range q.Triggers {
		key := TriggerKey(q.ID, i)
		if e.triggersDone[key] {
			continue
		}
		pass, debug := e.eval.Evaluate(t, snap, hist)
		if !pass {
			remaining++
			continue
		}
		e.triggersDone[key] = true
		dirty = true
		res.Latched = append(res.Latched, key)
		e.logger.Debug("trigger latched", "quest", q.ID, "trigger", i, "detail", debug)
	}

	if remaining == 0 {
		e.completed[q.ID] = true
		dirty = true
		res.Completed = append(res.Completed, q.ID)
		e.logger.Info("quest completed", "quest", q.ID)
	}

	if dirty {
		e.persist(ctx)
	}
	return res
}

func (e *Engine) persist(ctx context.Context) {
	if err := e.store.SaveProgress(ctx, e.progressQuests(), e.progressTriggers()); err != nil {
		e.logger.Error("failed to persist quest progress", "error", err)
	}
}

// recompute selects the lowest-ordered incomplete quest whose
// prerequisites are all complete, or none.
func (e *Engine) recompute(reason string) {
	next := ""
	for _, q := range e.quests {
		if e.completed[q.ID] {
			continue
		}
		ready := true
		for _, p := range q.Prereqs {
			if !e.completed[p] {
				ready = false
				break
			}
		}
		if ready {
			next = q.ID
			break
		}
	}

	if next == e.active {
		return
	}
	from := e.active
	e.active = next
	e.logger.Info("active quest changed", "from", from, "to", next, "reason", reason)
	if e.notify != nil {
		e.notify(Transition{From: from, To: next, Reason: reason})
	}
}

// Active returns the active quest definition.
func (e *Engine) Active() (Quest, bool) {
	if e.active == "" {
		return Quest{}, false
	}
	return e.quests[e.index[e.active]], true
}

// ActiveID returns the active quest id, empty for none.
func (e *Engine) ActiveID() string {
	return e.active
}

// Completed reports whether a quest has finished.
func (e *Engine) Completed(id string) bool {
	return e.completed[id]
}

// TriggerDone reports whether one trigger slot has latched.
func (e *Engine) TriggerDone(id string, index int) bool {
	return e.triggersDone[TriggerKey(id, index)]
}

// Progress returns copies of both completion maps.
func (e *Engine) Progress() (quests map[string]bool, triggers map[string]bool) {
	return e.progressQuests(), e.progressTriggers()
}

func (e *Engine) progressQuests() map[string]bool {
	out := make(map[string]bool, len(e.completed))
	for k, v := range e.completed {
		out[k] = v
	}
	return out
}

func (e *Engine) progressTriggers() map[string]bool {
	out := make(map[string]bool, len(e.triggersDone))
	for k, v := range e.triggersDone {
		out[k] = v
	}
	return out
}

// Quests returns the definitions in order.
func (e *Engine) Quests() []Quest {
	return e.quests
}
