package runner

import (
	"time"

	"github.com/jwebster45206/questline/internal/storage"
	"github.com/jwebster45206/questline/pkg/gamemap"
	"github.com/jwebster45206/questline/pkg/grid"
	"github.com/jwebster45206/questline/pkg/nav"
	"github.com/jwebster45206/questline/pkg/quest"
)

// Case defines a complete integration scenario: a simulated cartridge,
// the quest data to load into the agent, and the outcome to expect.
// Can either be a regular case with a World, or a sequence that
// references other case files.
type Case struct {
	Name      string                      `json:"name"`
	World     WorldSpec                   `json:"world,omitempty"`
	Quests    []quest.Quest               `json:"quests,omitempty"`
	Routes    map[string]*quest.Route     `json:"routes,omitempty"`
	TilePairs []nav.TilePairRule          `json:"tile_pairs,omitempty"`
	Warps     map[gamemap.ID][]grid.Point `json:"warp_allowances,omitempty"`
	Names     *storage.Names              `json:"names,omitempty"`
	Expect    Expectations                `json:"expect,omitempty"`
	Cases     []string                    `json:"cases,omitempty"` // Used for sequence cases (list of case files)
}

// IsSequence returns true if this case sequences other case files.
func (c *Case) IsSequence() bool {
	return len(c.Cases) > 0
}

// WorldSpec describes the simulated cartridge: its maps, the player's
// starting state, and the scripted interactions placed on tiles.
type WorldSpec struct {
	Maps  []MapSpec   `json:"maps"`
	Start StartSpec   `json:"start"`
	Party []MonSpec   `json:"party,omitempty"`
	Bag   []ItemSpec  `json:"bag,omitempty"`
	Money int         `json:"money,omitempty"`
	Flags []string    `json:"flags,omitempty"` // event flags set before the first tick
	Text  []EventSpec `json:"events,omitempty"`
}

// MapSpec is one map's geometry. Tiles default to walkable; Walls
// lists the blocked rectangles. Warps teleport the player on entry.
type MapSpec struct {
	ID     gamemap.ID `json:"id"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Walls  []RectSpec `json:"walls,omitempty"`
	Warps  []WarpSpec `json:"warps,omitempty"`
}

// RectSpec is an inclusive tile rectangle. W and H default to 1, so a
// bare {x, y} blocks a single tile.
type RectSpec struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w,omitempty"`
	H int `json:"h,omitempty"`
}

// Contains reports whether the rectangle covers the tile.
func (r RectSpec) Contains(x, y int) bool {
	w, h := r.W, r.H
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return x >= r.X && x < r.X+w && y >= r.Y && y < r.Y+h
}

// WarpSpec is one warp tile. Stepping onto (X, Y) moves the player to
// (ToX, ToY) on ToMap.
type WarpSpec struct {
	X     int        `json:"x"`
	Y     int        `json:"y"`
	ToMap gamemap.ID `json:"to_map"`
	ToX   int        `json:"to_x"`
	ToY   int        `json:"to_y"`
}

// StartSpec is the player's initial position.
type StartSpec struct {
	Map gamemap.ID `json:"map"`
	X   int        `json:"x"`
	Y   int        `json:"y"`
}

// MonSpec seeds one party member.
type MonSpec struct {
	Species int `json:"species"`
	Level   int `json:"level"`
	HP      int `json:"hp"`
	MaxHP   int `json:"max_hp"`
}

// ItemSpec seeds one bag slot.
type ItemSpec struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

// EventSpec is a scripted interaction: pressing A while standing on
// (X, Y) of Map plays the dialog pages and applies the grants. Each
// event fires once.
type EventSpec struct {
	Map      gamemap.ID `json:"map"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Dialog   []string   `json:"dialog,omitempty"`
	SetFlags []string   `json:"set_flags,omitempty"`
	Give     *MonSpec   `json:"give,omitempty"`
	GiveItem *ItemSpec  `json:"give_item,omitempty"`
}

// Expectations defines what to check after the agent runs.
type Expectations struct {
	Completed []string `json:"completed,omitempty"` // quests that must finish, in order
	FinalMap  *int     `json:"final_map,omitempty"` // map the player must end on
	MaxTicks  int      `json:"max_ticks,omitempty"` // tick budget, default 400
}

// Completion records when one expected quest finished.
type Completion struct {
	Quest string
	Tick  int
}

// CaseJob represents a loaded case ready to run.
type CaseJob struct {
	Name     string
	Case     Case
	CaseFile string
}

// CaseResult contains the outcome of running an entire case.
type CaseResult struct {
	Job         CaseJob
	Session     string
	Ticks       int
	Completions []Completion
	Error       error
	Duration    time.Duration
}
