// Package focus tracks focus history and the always-on-top window set.
package focus

import (
	"errors"
	"fmt"

	"github.com/1broseidon/spanwm/internal/platform"
)

// ErrCapacity is returned when a registry is full.
var ErrCapacity = errors.New("focus: capacity exceeded")

// Stack is an ordered, deduplicated focus history. The most recently focused
// window is last.
type Stack struct {
	windows  []platform.WindowID
	capacity int
}

// NewStack creates a stack holding at most capacity windows.
func NewStack(capacity int) *Stack {
	return &Stack{capacity: capacity}
}

// Push moves w to the top, inserting it if absent.
func (s *Stack) Push(w platform.WindowID) error {
	if w == platform.None {
		return nil
	}
	if s.Top() == w {
		return nil
	}
	if !s.Remove(w) && s.capacity > 0 && len(s.windows) >= s.capacity {
		return fmt.Errorf("push %s: %w (%d windows)", w, ErrCapacity, s.capacity)
	}
	s.windows = append(s.windows, w)
	return nil
}

// Remove deletes w, keeping the relative order of the rest. It reports
// whether w was present.
func (s *Stack) Remove(w platform.WindowID) bool {
	for i, cur := range s.windows {
		if cur == w {
			s.windows = append(s.windows[:i], s.windows[i+1:]...)
			return true
		}
	}
	return false
}

// Top returns the most recently focused window, or platform.None.
func (s *Stack) Top() platform.WindowID {
	if len(s.windows) == 0 {
		return platform.None
	}
	return s.windows[len(s.windows)-1]
}

func (s *Stack) Contains(w platform.WindowID) bool {
	for _, cur := range s.windows {
		if cur == w {
			return true
		}
	}
	return false
}

func (s *Stack) Len() int { return len(s.windows) }

// Windows returns a copy of the stack, bottom first.
func (s *Stack) Windows() []platform.WindowID {
	out := make([]platform.WindowID, len(s.windows))
	copy(out, s.windows)
	return out
}
