package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/questline/internal/emulator"
	"github.com/jwebster45206/questline/internal/journal"
	"github.com/jwebster45206/questline/internal/status"
	"github.com/jwebster45206/questline/internal/storage"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/nav"
	"github.com/jwebster45206/questline/pkg/quest"
	"github.com/jwebster45206/questline/pkg/state"
	"github.com/jwebster45206/questline/pkg/trigger"
	"github.com/jwebster45206/questline/pkg/warp"
)

const (
	defaultFramesPerStep = 24
	defaultStallLimit    = 8
)

// Config tunes the session loop.
type Config struct {
	// FramesPerStep is how many emulator frames advance after each
	// action. One walking step takes about 16 frames.
	FramesPerStep int
	// StallLimit is how many motionless movement attempts are tolerated
	// before the current route target is skipped.
	StallLimit int
	// StepDelay adds wall-clock pacing between steps. Zero runs the
	// loop as fast as the emulator allows.
	StepDelay time.Duration
}

// Agent runs the automated session: capture a frame, advance quest
// state, plan a step toward the route target, filter it, press it.
// One Step call is one tick; Start drives Step in a loop.
type Agent struct {
	id     string
	cfg    Config
	driver emulator.Driver
	store  storage.Store
	pub    status.Publisher
	jour   *journal.Journal
	log    *slog.Logger

	snapshotter *emulator.Snapshotter
	engine      *quest.Engine
	filter      *Filter
	detector    *warp.Detector
	hist        *state.MapHistory
	route       *quest.RouteState
	routeDef    *quest.Route
	rules       []nav.TilePairRule

	ctx    context.Context
	cancel context.CancelFunc

	tick      int
	lastCoord gamemap.Coord
	stalls    int
	pending   *quest.Transition
}

// New wires an agent from its dependencies and loads the session's
// static data. The journal may be nil; pub defaults to a no-op.
func New(ctx context.Context, cfg Config, driver emulator.Driver, store storage.Store, pub status.Publisher, jour *journal.Journal, logger *slog.Logger) (*Agent, error) {
	if driver == nil {
		return nil, fmt.Errorf("emulator driver is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if pub == nil {
		pub = status.Nop{}
	}
	if cfg.FramesPerStep <= 0 {
		cfg.FramesPerStep = defaultFramesPerStep
	}
	if cfg.StallLimit <= 0 {
		cfg.StallLimit = defaultStallLimit
	}

	quests, err := store.LoadQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load quests: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a := &Agent{
		id:     fmt.Sprintf("session-%s", uuid.New().String()[:8]),
		cfg:    cfg,
		driver: driver,
		store:  store,
		pub:    pub,
		jour:   jour,
		log:    logger,
		hist:   state.NewMapHistory(),
		route:  quest.NewRouteState(),
		ctx:    runCtx,
		cancel: cancel,
	}

	a.snapshotter = emulator.NewSnapshotter(driver, logger)
	a.snapshotter.WatchFlags(flagNames(quests)...)
	if names, err := store.LoadNames(ctx); err != nil {
		logger.Warn("failed to load name tables", "error", err)
	} else if names != nil {
		a.snapshotter.SetNames(names.Species, names.Items)
	}

	if rules, err := store.LoadTilePairs(ctx); err != nil {
		logger.Warn("failed to load tile-pair rules", "error", err)
	} else {
		a.rules = rules
	}

	allow, err := store.LoadWarpAllowances(ctx)
	if err != nil {
		logger.Warn("failed to load warp allowances", "error", err)
	}
	a.detector = warp.NewDetector(allow)

	a.filter = NewFilter(logger)

	engine, err := quest.NewEngine(ctx, quests, store, logger, quest.Options{
		Notify: func(t quest.Transition) { a.pending = &t },
	})
	if err != nil {
		cancel()
		return nil, err
	}
	a.engine = engine
	return a, nil
}

// flagNames collects every event flag the quest list references, so
// the snapshotter resolves exactly those each frame.
func flagNames(quests []quest.Quest) []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range quests {
		for _, t := range q.Triggers {
			ec, ok := t.(trigger.EventCompleted)
			if !ok || ec.Flag == "" || seen[ec.Flag] {
				continue
			}
			seen[ec.Flag] = true
			out = append(out, ec.Flag)
		}
	}
	return out
}

// ID returns the session id.
func (a *Agent) ID() string {
	return a.id
}

// Engine exposes quest state for read-only consumers.
func (a *Agent) Engine() *quest.Engine {
	return a.engine
}

// Start runs the session loop until Stop or a canceled context. Step
// errors are logged and retried after a pause; nothing here terminates
// the process.
func (a *Agent) Start() error {
	a.log.Info("Agent starting", "session_id", a.id, "quests", len(a.engine.Quests()))
	if a.jour != nil {
		if err := a.jour.StartSession(a.ctx, a.id, len(a.engine.Quests())); err != nil {
			a.log.Warn("failed to record session start", "error", err)
		}
	}

	for {
		select {
		case <-a.ctx.Done():
			a.log.Info("Agent shutting down", "session_id", a.id, "ticks", a.tick)
			a.endSession()
			return nil
		default:
			if err := a.Step(a.ctx); err != nil {
				a.log.Error("Error running step", "error", err, "tick", a.tick)
				// Continue the session even on error
				time.Sleep(1 * time.Second)
			}
			if a.cfg.StepDelay > 0 {
				time.Sleep(a.cfg.StepDelay)
			}
		}
	}
}

// Stop gracefully shuts down the agent.
func (a *Agent) Stop() {
	a.log.Info("Agent stop requested", "session_id", a.id)
	a.cancel()
}

func (a *Agent) endSession() {
	if a.jour == nil {
		return
	}
	// The run context is already canceled here.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := 0
	for _, q := range a.engine.Quests() {
		if a.engine.Completed(q.ID) {
			done++
		}
	}
	if err := a.jour.EndSession(ctx, a.id, a.tick, int(a.lastCoord.Map), done); err != nil {
		a.log.Warn("failed to record session end", "error", err)
	}
}

// Step executes one tick of the session. It is safe to call directly
// from an external driver loop instead of Start.
func (a *Agent) Step(ctx context.Context) error {
	a.tick++

	snap, err := a.snapshotter.Capture(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture frame: %w", err)
	}

	mapChanged := a.hist.Observe(snap.Map)
	res := a.engine.Step(ctx, snap, a.hist)
	switch {
	case res.Changed || a.pending != nil:
		a.onQuestChange(ctx, snap)
	case mapChanged:
		a.resetLeg(snap.Map)
	}

	proposed, navRes := a.decide(ctx, snap)

	view := View{Snap: snap}
	if active, ok := a.engine.Active(); ok {
		view.Quest = &active
	}
	effective := a.filter.Apply(view, proposed)
	if effective != proposed && effective.Note != "" {
		a.log.Debug("action substituted", "proposed", proposed.String(), "effective", effective.String(), "note", effective.Note)
	}

	if effective.Pressed() {
		if err := a.driver.Press(ctx, effective.Button); err != nil {
			return fmt.Errorf("failed to press %s: %w", effective.Button, err)
		}
	}
	if err := a.driver.StepFrames(ctx, a.cfg.FramesPerStep); err != nil {
		return fmt.Errorf("failed to advance frames: %w", err)
	}

	a.trackStall(ctx, snap, effective)
	a.publishStatus(ctx, snap, navRes)
	a.record(ctx, snap, effective, navRes)
	return nil
}

// onQuestChange reloads the route overlay for the new active quest and
// points it at the current map's leg.
func (a *Agent) onQuestChange(ctx context.Context, snap *state.Snapshot) {
	a.pending = nil
	a.routeDef = nil
	activeID := a.engine.ActiveID()
	if activeID != "" {
		r, err := a.store.LoadRoute(ctx, activeID)
		if err != nil {
			a.log.Warn("failed to load quest route", "quest", activeID, "error", err)
		} else {
			a.routeDef = r
		}
	}
	a.resetLeg(snap.Map)
	a.publish(ctx, status.KeyActiveQuest, activeID)
}

// resetLeg points the route state at the active quest's target list
// for the given map. Maps without a leg leave the route idle.
func (a *Agent) resetLeg(id gamemap.ID) {
	a.stalls = 0
	activeID := a.engine.ActiveID()
	if activeID == "" || a.routeDef == nil {
		a.route.Reset(activeID, nil)
		return
	}
	leg, ok := a.routeDef.Leg(id)
	if !ok {
		a.route.Reset(activeID, nil)
		return
	}
	a.route.Reset(activeID, leg.Targets)
	a.log.Info("route leg loaded", "quest", activeID, "map", int(id), "targets", len(leg.Targets))
}

// decide proposes this tick's action. Dialog and battle take priority;
// otherwise the route's current target drives pathfinding.
func (a *Agent) decide(ctx context.Context, snap *state.Snapshot) (Action, *nav.Result) {
	if snap.InDialog() {
		return Action{Button: emulator.ButtonA, Note: "advancing dialog"}, nil
	}
	if snap.Battle != state.BattleNone {
		return Action{Button: emulator.ButtonA, Note: "fighting"}, nil
	}

	target, ok := a.route.Current()
	if ok && target.X == snap.X && target.Y == snap.Y {
		a.log.Info("route target reached", "quest", a.route.Quest, "x", target.X, "y", target.Y, "index", a.route.Index)
		a.route.Advance()
		a.stalls = 0
		target, ok = a.route.Current()
	}
	if !ok {
		return Wait("no route target"), nil
	}
	return a.navigate(ctx, snap, target)
}

// navigate reads the screen, builds the collision grid, and plans a
// path toward the target. Off-screen targets are clamped to the
// nearest on-screen cell in their direction, so every query runs over
// the same fixed-size grid. Screen-read failures skip movement for the
// tick rather than failing the step.
func (a *Agent) navigate(ctx context.Context, snap *state.Snapshot, target grid.Point) (Action, *nav.Result) {
	tiles, err := a.driver.TileMap(ctx)
	if err != nil {
		a.log.Warn("failed to read tile map", "error", err)
		return Wait("screen unreadable"), nil
	}
	spriteTiles, err := a.driver.SpriteTiles(ctx)
	if err != nil {
		a.log.Warn("failed to read sprite tiles", "error", err)
		return Wait("screen unreadable"), nil
	}
	passable, err := a.driver.WalkableTiles(ctx)
	if err != nil {
		a.log.Warn("failed to read collision table", "error", err)
		return Wait("screen unreadable"), nil
	}
	sprites, err := a.driver.Sprites(ctx)
	if err != nil {
		a.log.Warn("failed to read sprites", "error", err)
		sprites = nil
	}
	rawWarps, err := emulator.ReadWarps(ctx, a.driver)
	if err != nil {
		a.log.Warn("failed to read warp table", "error", err)
		rawWarps = nil
	}
	signs, err := emulator.ReadSigns(ctx, a.driver)
	if err != nil {
		a.log.Warn("failed to read sign table", "error", err)
		signs = nil
	}
	tileset, err := emulator.ReadTileset(ctx, a.driver)
	if err != nil {
		a.log.Warn("failed to read tileset id", "error", err)
		tileset = nav.TilesetAny
	}

	playerCell, _, found := grid.LocatePlayer(spriteTiles)
	if !found {
		// Mid-step frame or a menu covering the sprite; plan from the
		// camera center and tolerate a cell of drift.
		playerCell = grid.Center
		a.log.Debug("player sprite not found, using center cell")
	}

	walkable := make(map[byte]bool, len(passable))
	for _, t := range passable {
		walkable[t] = true
	}
	var px []grid.SpritePx
	for _, s := range sprites {
		// Sprite 0 is the player.
		if s.Index == 0 || s.Hidden {
			continue
		}
		px = append(px, grid.SpritePx{Index: s.Index, X: s.X, Y: s.Y})
	}
	warpPts := make([]grid.Point, len(rawWarps))
	for i, w := range rawWarps {
		warpPts[i] = grid.Point{X: w.X, Y: w.Y}
	}

	g := grid.Build(grid.Input{
		Tiles:    *tiles,
		Walkable: func(t byte) bool { return walkable[t] },
		Sprites:  px,
		Warps:    warpPts,
		Signs:    signs,
		Player:   playerCell,
		WorldX:   snap.X,
		WorldY:   snap.Y,
	})

	mw := a.detector.Detect(snap.Map, rawWarps, func(x, y int) ([4]byte, bool) {
		cell, ok := g.Find(x, y)
		if !ok {
			return [4]byte{}, false
		}
		return g.At(cell).Tiles, true
	})
	if mw.Near(snap.X, snap.Y) {
		if rec, dist, ok := mw.Nearest(snap.X, snap.Y); ok {
			a.log.Debug("near warp", "warp", rec.String(), "distance", dist)
		}
	}

	tl := g.At(grid.Cell{Row: 0, Col: 0})
	br := g.At(grid.Cell{Row: grid.Rows - 1, Col: grid.Cols - 1})
	tx := clamp(target.X, tl.WorldX, br.WorldX)
	ty := clamp(target.Y, tl.WorldY, br.WorldY)
	targetCell, ok := g.Find(tx, ty)
	if !ok {
		return Wait("target cell not resolvable"), nil
	}

	res := nav.FindPath(nav.Request{
		Grid:    g,
		Start:   playerCell,
		Target:  targetCell,
		Rules:   a.rules,
		Tileset: tileset,
	})
	if tx != target.X || ty != target.Y {
		res.Note = "off-screen target, walking toward screen edge"
	}

	switch {
	case res.Status == nav.StatusFailed:
		a.route.Block()
		a.log.Warn("path query failed", "note", res.Note, "target_x", target.X, "target_y", target.Y)
		return Wait("no path: " + res.Note), &res
	case len(res.Steps) == 0 && res.Status == nav.StatusAdjacent:
		// Standing beside an unenterable target is as close as the
		// walk gets.
		a.route.Advance()
		a.stalls = 0
		return Wait("beside target"), &res
	case len(res.Steps) == 0:
		return Wait("holding position"), &res
	}
	return Press(emulator.ButtonFor(res.Steps[0])), &res
}

// trackStall skips a route target after repeated motionless movement
// attempts, so an unexpected wall cannot pin the session forever.
func (a *Agent) trackStall(ctx context.Context, snap *state.Snapshot, effective Action) {
	coord := snap.Coord()
	moved := coord != a.lastCoord
	a.lastCoord = coord
	if moved {
		a.stalls = 0
		a.route.Resume()
		return
	}
	if _, isMove := emulator.DirectionFor(effective.Button); !isMove || !effective.Pressed() {
		return
	}
	a.stalls++
	if a.stalls < a.cfg.StallLimit {
		return
	}

	target, ok := a.route.Current()
	if !ok {
		a.stalls = 0
		return
	}
	a.log.Warn("route target unreachable, skipping",
		"quest", a.route.Quest, "target_x", target.X, "target_y", target.Y, "attempts", a.stalls)
	a.publish(ctx, status.KeyStall, map[string]any{
		"target_x": target.X,
		"target_y": target.Y,
		"attempts": a.stalls,
	})
	a.route.Advance()
	a.stalls = 0
}

func (a *Agent) publishStatus(ctx context.Context, snap *state.Snapshot, navRes *nav.Result) {
	a.publish(ctx, status.KeyLocation, map[string]any{
		"map":    int(snap.Map),
		"x":      snap.X,
		"y":      snap.Y,
		"facing": snap.Facing.String(),
	})
	if navRes != nil {
		a.publish(ctx, status.KeyNavStatus, navRes.Status.String())
		a.publish(ctx, status.KeyPathProgress, map[string]any{
			"quest":      a.route.Quest,
			"index":      a.route.Index,
			"total":      len(a.route.Targets),
			"steps_left": len(navRes.Steps),
			"status":     string(a.route.Status),
		})
	}
	if snap.Battle != state.BattleNone {
		a.publish(ctx, status.KeyBattle, snap.Battle.String())
	}
	if snap.InDialog() {
		a.publish(ctx, status.KeyDialog, snap.Dialog)
	}
}

// publish drops failures: the status channel is best effort and the
// broadcaster already logs them.
func (a *Agent) publish(ctx context.Context, key string, value any) {
	_ = a.pub.Publish(ctx, key, value)
}

func (a *Agent) record(ctx context.Context, snap *state.Snapshot, effective Action, navRes *nav.Result) {
	if a.jour == nil {
		return
	}
	navStatus := ""
	if navRes != nil {
		navStatus = navRes.Status.String()
	}
	a.jour.LogStep(ctx, &journal.Step{
		SessionID:   a.id,
		Tick:        a.tick,
		Timestamp:   snap.CapturedAt,
		Map:         int(snap.Map),
		X:           snap.X,
		Y:           snap.Y,
		ActiveQuest: a.engine.ActiveID(),
		Action:      effective.String(),
		NavStatus:   navStatus,
		Stalls:      a.stalls,
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
