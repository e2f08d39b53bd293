package wm

import (
	"time"

	"github.com/1broseidon/spanwm/internal/fullscreen"
	"github.com/1broseidon/spanwm/internal/platform"
	"github.com/1broseidon/spanwm/internal/touch"
)

// State is a point-in-time copy of the manager's bookkeeping.
type State struct {
	Active     platform.WindowID
	Focus      []platform.WindowID
	Above      []platform.WindowID
	Fullscreen []fullscreen.Record
	Monitors   []platform.Monitor
	Width      int
	Height     int

	Settings  Settings
	LastTouch *touch.SyncResult
	Events    uint64
	Failures  uint64
	StartedAt time.Time
}

// State copies the current state. It must be called from the loop
// goroutine; other goroutines use Snapshot.
func (m *Manager) State() State {
	w, h := m.topo.Total()
	st := State{
		Active:     m.active,
		Focus:      m.focus.Windows(),
		Above:      m.above.Windows(),
		Fullscreen: m.fs.Records(),
		Monitors:   m.topo.Monitors(),
		Width:      w,
		Height:     h,
		Settings:   m.settings,
		Events:     m.events,
		Failures:   m.failures,
		StartedAt:  m.startedAt,
	}
	if m.lastTouch != nil {
		res := *m.lastTouch
		st.LastTouch = &res
	}
	return st
}
