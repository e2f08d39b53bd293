package focus

import (
	"fmt"

	"github.com/1broseidon/spanwm/internal/platform"
)

// AboveSet holds the windows that are restacked above their siblings. Members
// are kept in insertion order so restacking is deterministic.
type AboveSet struct {
	order    []platform.WindowID
	members  map[platform.WindowID]struct{}
	capacity int
}

func NewAboveSet(capacity int) *AboveSet {
	return &AboveSet{
		members:  make(map[platform.WindowID]struct{}),
		capacity: capacity,
	}
}

// Add inserts w. It reports whether the set changed.
func (a *AboveSet) Add(w platform.WindowID) (bool, error) {
	if _, ok := a.members[w]; ok {
		return false, nil
	}
	if a.capacity > 0 && len(a.order) >= a.capacity {
		return false, fmt.Errorf("always-on-top %s: %w (%d windows)", w, ErrCapacity, a.capacity)
	}
	a.members[w] = struct{}{}
	a.order = append(a.order, w)
	return true, nil
}

// Remove deletes w. It reports whether w was a member.
func (a *AboveSet) Remove(w platform.WindowID) bool {
	if _, ok := a.members[w]; !ok {
		return false
	}
	delete(a.members, w)
	for i, cur := range a.order {
		if cur == w {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return true
}

// Toggle removes w if present, otherwise adds it. It returns the resulting
// membership.
func (a *AboveSet) Toggle(w platform.WindowID) (bool, error) {
	if a.Remove(w) {
		return false, nil
	}
	if _, err := a.Add(w); err != nil {
		return false, err
	}
	return true, nil
}

func (a *AboveSet) Contains(w platform.WindowID) bool {
	_, ok := a.members[w]
	return ok
}

func (a *AboveSet) Len() int { return len(a.order) }

// Windows returns the members in insertion order.
func (a *AboveSet) Windows() []platform.WindowID {
	out := make([]platform.WindowID, len(a.order))
	copy(out, a.order)
	return out
}
