package quest

import (
	"fmt"

	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/trigger"
)

// ScriptRule forces a specific action when the player stands on a
// tile during this quest. Times caps how often it fires; zero means
// once.
type ScriptRule struct {
	Map    gamemap.ID `json:"map"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
	Action string     `json:"action"`
	Times  int        `json:"times,omitempty"`
	Note   string     `json:"note,omitempty"`
}

// MaxFires returns the rule's firing cap.
func (r ScriptRule) MaxFires() int {
	if r.Times <= 0 {
		return 1
	}
	return r.Times
}

// Quest is one step of the progression, loaded once at startup and
// never mutated; completion lives in the engine, not here.
type Quest struct {
	ID           string         `json:"id"`
	Location     gamemap.ID     `json:"location"`
	Prereqs      []string       `json:"prereqs,omitempty"`
	Triggers     trigger.List   `json:"triggers"`
	Description  string         `json:"description,omitempty"`
	BlockedWarps []gamemap.Coord `json:"blocked_warps,omitempty"`
	Script       []ScriptRule   `json:"script,omitempty"`
}

// TriggerKey names one trigger's slot in the persisted completion map.
func TriggerKey(questID string, index int) string {
	return fmt.Sprintf("%s_%d", questID, index)
}

// WarpBlocked reports whether the quest blocks warping from the tile.
func (q *Quest) WarpBlocked(c gamemap.Coord) bool {
	for _, b := range q.BlockedWarps {
		if b == c {
			return true
		}
	}
	return false
}

// Validate checks a quest list for structural problems: empty or
// duplicate ids, prerequisites that name no quest, prerequisites that
// point forward in the ordering, and quests with no triggers.
func Validate(quests []Quest) error {
	seen := make(map[string]int, len(quests))
	for i, q := range quests {
		if q.ID == "" {
			return fmt.Errorf("quest %d has no id", i)
		}
		if prev, dup := seen[q.ID]; dup {
			return fmt.Errorf("quest id %q duplicated at positions %d and %d", q.ID, prev, i)
		}
		seen[q.ID] = i
		if len(q.Triggers) == 0 {
			return fmt.Errorf("quest %q has no triggers", q.ID)
		}
	}
	for i, q := range quests {
		for _, p := range q.Prereqs {
			j, ok := seen[p]
			if !ok {
				return fmt.Errorf("quest %q requires unknown quest %q", q.ID, p)
			}
			if j >= i {
				return fmt.Errorf("quest %q requires %q which is not ordered before it", q.ID, p)
			}
		}
	}
	return nil
}

// RouteLeg is the scripted target list for one map.
type RouteLeg struct {
	Map     gamemap.ID   `json:"map"`
	Targets []grid.Point `json:"targets"`
}

// Route is a quest's scripted coordinate overlay, kept apart from
// on-demand pathfinding. One leg per map, walked in order.
type Route struct {
	Quest string     `json:"quest"`
	Legs  []RouteLeg `json:"legs"`
}

// Leg returns the target list for a map.
func (r *Route) Leg(id gamemap.ID) (RouteLeg, bool) {
	for _, l := range r.Legs {
		if l.Map == id {
			return l, true
		}
	}
	return RouteLeg{}, false
}

// RouteStatus is the navigation overlay's coarse state.
type RouteStatus string

const (
	RouteIdle       RouteStatus = "idle"
	RouteNavigating RouteStatus = "navigating"
	RouteBlocked    RouteStatus = "blocked"
)

// RouteState tracks progress along the active quest's scripted route.
// It is reset whenever the active quest changes.
type RouteState struct {
	Quest   string       `json:"quest,omitempty"`
	Targets []grid.Point `json:"targets,omitempty"`
	Index   int          `json:"index"`
	Status  RouteStatus  `json:"status"`
}

// NewRouteState returns an idle route with no targets.
func NewRouteState() *RouteState {
	return &RouteState{Status: RouteIdle}
}

// Reset points the route at a new quest's target list.
func (s *RouteState) Reset(questID string, targets []grid.Point) {
	s.Quest = questID
	s.Targets = targets
	s.Index = 0
	if len(targets) == 0 {
		s.Status = RouteIdle
	} else {
		s.Status = RouteNavigating
	}
}

// Current returns the target being walked toward.
func (s *RouteState) Current() (grid.Point, bool) {
	if s.Index < 0 || s.Index >= len(s.Targets) {
		return grid.Point{}, false
	}
	return s.Targets[s.Index], true
}

// Advance moves to the next target, going idle past the last one.
func (s *RouteState) Advance() {
	if s.Index < len(s.Targets) {
		s.Index++
	}
	if s.Index >= len(s.Targets) {
		s.Status = RouteIdle
	}
}

// Block marks the route stuck; the caller decides whether to retry.
func (s *RouteState) Block() {
	s.Status = RouteBlocked
}

// Resume returns a blocked route to navigating if targets remain.
func (s *RouteState) Resume() {
	if s.Status == RouteBlocked && s.Index < len(s.Targets) {
		s.Status = RouteNavigating
	}
}
