package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jwebster45206/questline/internal/agent"
	"github.com/jwebster45206/questline/internal/storage"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
)

const defaultMaxTicks = 400

// Runner executes integration cases against an in-process agent
// driving a simulated cartridge. Each case gets a fresh world, store
// and agent; the run loop calls Step directly so every tick is
// deterministic and observable.
type Runner struct {
	Timeout  time.Duration
	Logger   func(format string, args ...interface{})
	AgentLog *slog.Logger // nil discards the agent's own logging
}

// NewRunner creates a runner with defaults.
func NewRunner() *Runner {
	return &Runner{
		Timeout: 30 * time.Second,
	}
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Logger != nil {
		r.Logger(format, args...)
	}
}

// LoadCase loads a case from a JSON file.
func LoadCase(filename string) (Case, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return Case{}, fmt.Errorf("failed to read case file %s: %w", filename, err)
	}

	var c Case
	if err := json.Unmarshal(content, &c); err != nil {
		return Case{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return c, nil
}

// LoadCaseWithExpansion loads a case and expands it if it's a sequence.
// Returns the list of runnable jobs (expanded from the sequence if
// needed).
func LoadCaseWithExpansion(filename string, casesDir string) ([]CaseJob, error) {
	c, err := LoadCase(filename)
	if err != nil {
		return nil, err
	}

	if !c.IsSequence() {
		return []CaseJob{{
			Name:     c.Name,
			Case:     c,
			CaseFile: filename,
		}}, nil
	}

	var jobs []CaseJob
	for _, caseFile := range c.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load, in case a sequence references another
		// sequence.
		subJobs, err := LoadCaseWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, c.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunCase executes a complete case: build the world, wire an agent
// over it, and tick until the expected quests complete or the budget
// runs out.
func (r *Runner) RunCase(ctx context.Context, c Case) (CaseResult, error) {
	start := time.Now()
	result := CaseResult{Job: CaseJob{Name: c.Name, Case: c}}

	world, err := NewWorld(c.World)
	if err != nil {
		result.Error = fmt.Errorf("failed to build world: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}

	store := storage.NewMockStore()
	store.SetQuests(c.Quests)
	for id, route := range c.Routes {
		if route.Quest == "" {
			route.Quest = id
		}
		store.AddRoute(id, route)
	}
	store.SetTilePairs(c.TilePairs)
	if c.Warps != nil {
		store.SetWarpAllowances(c.Warps)
	} else {
		store.SetWarpAllowances(defaultAllowances(c.World))
	}
	if c.Names != nil {
		store.SetNames(*c.Names)
	}

	agentLog := r.AgentLog
	if agentLog == nil {
		agentLog = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	ag, err := agent.New(runCtx, agent.Config{}, world, store, nil, nil, agentLog)
	if err != nil {
		result.Error = fmt.Errorf("failed to build agent: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = ag.ID()

	maxTicks := c.Expect.MaxTicks
	if maxTicks <= 0 {
		maxTicks = defaultMaxTicks
	}

	eng := ag.Engine()
	done := make(map[string]bool, len(c.Expect.Completed))

	for tick := 1; tick <= maxTicks; tick++ {
		if err := runCtx.Err(); err != nil {
			result.Error = fmt.Errorf("case timed out at tick %d: %w", tick, err)
			break
		}
		if err := ag.Step(runCtx); err != nil {
			result.Error = fmt.Errorf("tick %d: %w", tick, err)
			break
		}
		result.Ticks = tick

		for _, id := range c.Expect.Completed {
			if !done[id] && eng.Completed(id) {
				done[id] = true
				result.Completions = append(result.Completions, Completion{Quest: id, Tick: tick})
				r.logf("    ✓ quest %q completed (tick %d)", id, tick)
			}
		}
		if len(result.Completions) == len(c.Expect.Completed) && r.finalMapOK(c, world) {
			break
		}
	}

	if result.Error == nil {
		result.Error = r.check(c, world, result)
	}
	result.Duration = time.Since(start)
	return result, result.Error
}

// check verifies the case's expectations against the finished run.
func (r *Runner) check(c Case, world *World, result CaseResult) error {
	for i, id := range c.Expect.Completed {
		if i >= len(result.Completions) {
			return fmt.Errorf("quest %q did not complete within %d ticks", id, result.Ticks)
		}
		if result.Completions[i].Quest != id {
			return fmt.Errorf("quest %q completed before %q", result.Completions[i].Quest, id)
		}
	}
	if c.Expect.FinalMap != nil {
		mapID, x, y := world.Position()
		if int(mapID) != *c.Expect.FinalMap {
			return fmt.Errorf("player ended on map %d at (%d,%d), expected map %d", mapID, x, y, *c.Expect.FinalMap)
		}
	}
	return nil
}

func (r *Runner) finalMapOK(c Case, world *World) bool {
	if c.Expect.FinalMap == nil {
		return true
	}
	mapID, _, _ := world.Position()
	return int(mapID) == *c.Expect.FinalMap
}

// defaultAllowances lists every warp in the world as an allowed warp,
// so cases only spell out allow-lists when testing the classifier.
func defaultAllowances(spec WorldSpec) map[gamemap.ID][]grid.Point {
	out := make(map[gamemap.ID][]grid.Point)
	for _, m := range spec.Maps {
		for _, wp := range m.Warps {
			out[m.ID] = append(out[m.ID], grid.Point{X: wp.X, Y: wp.Y})
		}
	}
	return out
}
