package state

import "github.com/jwebster45206/questline/pkg/gamemap"

// historyDepth bounds the map history to the last distinct ids. Three
// is enough for every transition trigger: where the player is, where
// they came from, and where they were before that.
const historyDepth = 3

// MapHistory tracks the last distinct map ids visited, most recent
// last. Consecutive observations of the same map collapse into one
// entry, so the history only moves on real transitions.
type MapHistory struct {
	ids []gamemap.ID
}

func NewMapHistory() *MapHistory {
	return &MapHistory{ids: make([]gamemap.ID, 0, historyDepth)}
}

// Observe records the current map id and reports whether it differs
// from the previous observation.
func (h *MapHistory) Observe(id gamemap.ID) bool {
	n := len(h.ids)
	if n > 0 && h.ids[n-1] == id {
		return false
	}
	h.ids = append(h.ids, id)
	if len(h.ids) > historyDepth {
		h.ids = h.ids[len(h.ids)-historyDepth:]
	}
	return true
}

// Current returns the most recently observed map id.
func (h *MapHistory) Current() (gamemap.ID, bool) {
	if len(h.ids) == 0 {
		return 0, false
	}
	return h.ids[len(h.ids)-1], true
}

// Previous returns the map visited immediately before the current one.
func (h *MapHistory) Previous() (gamemap.ID, bool) {
	if len(h.ids) < 2 {
		return 0, false
	}
	return h.ids[len(h.ids)-2], true
}

// LastTransition returns the most recent map change as a (from, to)
// pair.
func (h *MapHistory) LastTransition() (from, to gamemap.ID, ok bool) {
	if len(h.ids) < 2 {
		return 0, 0, false
	}
	return h.ids[len(h.ids)-2], h.ids[len(h.ids)-1], true
}

// Recent returns a copy of the retained ids, oldest first.
func (h *MapHistory) Recent() []gamemap.ID {
	out := make([]gamemap.ID, len(h.ids))
	copy(out, h.ids)
	return out
}
