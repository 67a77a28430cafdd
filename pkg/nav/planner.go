package nav

import (
	"container/heap"
	"fmt"

	"github.com/jwebster45206/questline/pkg/grid"
)

// Status reports how far a path query got.
type Status int

const (
	// StatusFailed means the start cell is isolated: nothing beyond it
	// was reachable.
	StatusFailed Status = iota
	// StatusFound is a full path ending on the requested target.
	StatusFound
	// StatusAdjacent means the target is a wall or sprite cell: the
	// returned steps stop on the last walkable cell beside it, and the
	// final step onto the target is deliberately not emitted.
	StatusAdjacent
	// StatusPartial means the target was unreachable: the returned
	// steps lead to the visited cell closest to it.
	StatusPartial
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusAdjacent:
		return "adjacent"
	case StatusPartial:
		return "partial"
	default:
		return "failed"
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// TilesetAny makes a rule apply in every tileset.
const TilesetAny = -1

// TilePairRule blocks movement between two specific standing tiles
// regardless of each tile's own walkability. Ledge lips are the usual
// case: both tiles walk fine alone, the step between them does not.
type TilePairRule struct {
	Tileset int    `json:"tileset"`
	From    byte   `json:"from"`
	To      byte   `json:"to"`
	Ordered bool   `json:"ordered,omitempty"`
	Label   string `json:"label,omitempty"`
}

// Blocks reports whether this rule forbids stepping from one standing
// tile onto another in the given tileset.
func (r TilePairRule) Blocks(tileset int, from, to byte) bool {
	if r.Tileset != TilesetAny && r.Tileset != tileset {
		return false
	}
	if r.From == from && r.To == to {
		return true
	}
	return !r.Ordered && r.From == to && r.To == from
}

// Request is one path query.
type Request struct {
	Grid    *grid.Grid
	Start   grid.Cell
	Target  grid.Cell
	Rules   []TilePairRule
	Tileset int
}

// Result is the planner's answer. Landing is the cell the steps end
// on; replaying Steps from Start always arrives exactly there.
type Result struct {
	Status   Status           `json:"status"`
	Steps    []grid.Direction `json:"steps,omitempty"`
	Landing  grid.Cell        `json:"landing"`
	Target   grid.Cell        `json:"target"`
	Expanded int              `json:"expanded"`
	Note     string           `json:"note,omitempty"`
}

type pathNode struct {
	cell   grid.Cell
	g      int
	f      int
	h      int
	seq    int
	index  int
	parent *pathNode
}

// pathQueue orders by f-score with ties broken by insertion order, so
// equal-cost paths resolve the same way every run.
type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool {
	if pq[i].f != pq[j].f {
		return pq[i].f < pq[j].f
	}
	return pq[i].seq < pq[j].seq
}

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pathNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

var stepOrder = []grid.Direction{grid.Down, grid.Up, grid.Left, grid.Right}

// FindPath runs A* over the screen grid. The target cell may be a wall
// or sprite cell: the search is allowed to finish on it, but the
// returned steps stop beside it (StatusAdjacent). Any other wall or
// sprite cell is never entered, and tile-pair rules veto individual
// edges in both states.
func FindPath(req Request) Result {
	g := req.Grid
	if g == nil || !req.Start.InBounds() || !req.Target.InBounds() {
		return Result{Status: StatusFailed, Landing: req.Start, Target: req.Target, Note: "query out of bounds"}
	}
	if req.Start == req.Target {
		return Result{Status: StatusFound, Landing: req.Start, Target: req.Target}
	}

	seq := 0
	open := &pathQueue{}
	heap.Init(open)
	startNode := &pathNode{cell: req.Start, h: grid.Manhattan(req.Start, req.Target), seq: seq}
	startNode.f = startNode.h
	heap.Push(open, startNode)
	gScore := map[grid.Cell]int{req.Start: 0}
	closed := make(map[grid.Cell]struct{})

	best := startNode
	expanded := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		if _, seen := closed[current.cell]; seen {
			continue
		}
		closed[current.cell] = struct{}{}
		expanded++

		if current.h < best.h {
			best = current
		}
		if current.cell == req.Target {
			return finish(req, current, expanded)
		}

		for _, d := range stepOrder {
			next := grid.Step(current.cell, d)
			if !next.InBounds() {
				continue
			}
			isTarget := next == req.Target
			if !g.Walkable(next) && !isTarget {
				continue
			}
			if g.Occupied(next) && !isTarget {
				continue
			}
			if pairBlocked(req, g.Tile(current.cell), g.Tile(next)) {
				continue
			}
			if _, seen := closed[next]; seen {
				continue
			}
			tentative := current.g + 1
			if prev, ok := gScore[next]; ok && tentative >= prev {
				continue
			}
			gScore[next] = tentative
			seq++
			h := grid.Manhattan(next, req.Target)
			heap.Push(open, &pathNode{
				cell:   next,
				g:      tentative,
				h:      h,
				f:      tentative + h,
				seq:    seq,
				parent: current,
			})
		}
	}

	if expanded <= 1 {
		return Result{
			Status:   StatusFailed,
			Landing:  req.Start,
			Target:   req.Target,
			Expanded: expanded,
			Note:     "start cell is isolated",
		}
	}
	cells := reconstruct(best)
	return Result{
		Status:   StatusPartial,
		Steps:    toSteps(cells),
		Landing:  best.cell,
		Target:   req.Target,
		Expanded: expanded,
		Note:     fmt.Sprintf("target unreachable, closest cell %s at distance %d", best.cell, best.h),
	}
}

func pairBlocked(req Request, from, to byte) bool {
	for _, r := range req.Rules {
		if r.Blocks(req.Tileset, from, to) {
			return true
		}
	}
	return false
}

func finish(req Request, goal *pathNode, expanded int) Result {
	cells := reconstruct(goal)
	g := req.Grid
	if g.Walkable(req.Target) && !g.Occupied(req.Target) {
		return Result{
			Status:   StatusFound,
			Steps:    toSteps(cells),
			Landing:  req.Target,
			Target:   req.Target,
			Expanded: expanded,
		}
	}

	// Wall or sprite target: drop the final step so the walk ends on
	// the adjacent cell, facing the target.
	cells = cells[:len(cells)-1]
	landing := cells[len(cells)-1]
	return Result{
		Status:   StatusAdjacent,
		Steps:    toSteps(cells),
		Landing:  landing,
		Target:   req.Target,
		Expanded: expanded,
		Note:     fmt.Sprintf("target %s is not enterable, stopping at %s", req.Target, landing),
	}
}

func reconstruct(end *pathNode) []grid.Cell {
	if end == nil {
		return nil
	}
	cells := make([]grid.Cell, 0)
	for node := end; node != nil; node = node.parent {
		cells = append(cells, node.cell)
	}
	for i := 0; i < len(cells)/2; i++ {
		j := len(cells) - 1 - i
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells
}

func toSteps(cells []grid.Cell) []grid.Direction {
	if len(cells) < 2 {
		return nil
	}
	steps := make([]grid.Direction, 0, len(cells)-1)
	for i := 1; i < len(cells); i++ {
		d, err := grid.Toward(cells[i-1], cells[i])
		if err != nil {
			return steps
		}
		steps = append(steps, d)
	}
	return steps
}

// Replay walks a direction sequence from a start cell and returns the
// final cell. Tests use it to check that steps land where the result
// claims.
func Replay(start grid.Cell, steps []grid.Direction) grid.Cell {
	c := start
	for _, d := range steps {
		c = grid.Step(c, d)
	}
	return c
}
