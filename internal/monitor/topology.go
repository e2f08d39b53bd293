// Package monitor models the set of active outputs and keeps it in step
// with RandR hotplug notifications.
package monitor

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/platform"
)

// ErrNoMonitors is returned by Query when no controller drives a visible
// output. The previous layout is kept in that case.
var ErrNoMonitors = errors.New("monitor: no active monitors")

// RandR is the subset of the RandR extension the topology needs. Ids are the
// raw CRTC and output XIDs.
type RandR interface {
	Resources() (platform.ScreenResources, error)
	OutputInfo(output uint32) (platform.OutputInfo, error)
	CrtcInfo(crtc uint32) (platform.CrtcInfo, error)
	SetCrtcConfig(crtc uint32, cfg platform.CrtcConfig) error
	DisableCrtc(crtc uint32) error
	SetScreenSize(width, height, mmWidth, mmHeight int) error
}

// Topology holds the monitor list from the most recent successful query.
type Topology struct {
	randr       RandR
	log         zerolog.Logger
	maxMonitors int

	monitors []platform.Monitor
	width    int
	height   int
}

// New returns an empty topology. Call Query to populate it.
func New(r RandR, maxMonitors int, log zerolog.Logger) *Topology {
	return &Topology{
		randr:       r,
		log:         log.With().Str("component", "monitor").Logger(),
		maxMonitors: maxMonitors,
	}
}

// SetMaxMonitors changes the monitor bound used by later queries.
func (t *Topology) SetMaxMonitors(n int) { t.maxMonitors = n }

// Query rebuilds the monitor list from the active controllers, in controller
// enumeration order. When no controller is active the list is emptied but
// the last recorded totals are kept.
func (t *Topology) Query() error {
	res, err := t.randr.Resources()
	if err != nil {
		return fmt.Errorf("screen resources: %w", err)
	}

	var monitors []platform.Monitor
	for _, crtc := range res.Crtcs {
		info, err := t.randr.CrtcInfo(crtc)
		if err != nil {
			t.log.Warn().Err(err).Uint32("crtc", crtc).Msg("crtc info failed, skipping")
			continue
		}
		if !info.Active() {
			continue
		}
		if t.maxMonitors > 0 && len(monitors) >= t.maxMonitors {
			t.log.Warn().Uint32("crtc", crtc).Int("max_monitors", t.maxMonitors).Msg("monitor limit reached, dropping crtc")
			continue
		}
		monitors = append(monitors, platform.Monitor{
			Index:    len(monitors),
			Name:     t.crtcName(info),
			X:        info.X,
			Y:        info.Y,
			Width:    info.Width,
			Height:   info.Height,
			Rotation: info.Rotation,
		})
	}

	width, height := bounds(monitors)
	if width <= 0 || height <= 0 {
		t.monitors = nil
		t.log.Warn().Int("width", t.width).Int("height", t.height).Msg("query found no monitors, keeping last known size")
		return ErrNoMonitors
	}

	t.monitors = monitors
	t.width = width
	t.height = height
	t.log.Debug().Int("monitors", len(monitors)).Int("width", width).Int("height", height).Msg("topology updated")
	return nil
}

func (t *Topology) crtcName(info platform.CrtcInfo) string {
	if len(info.Outputs) == 0 {
		return fmt.Sprintf("crtc-%d", info.ID)
	}
	out, err := t.randr.OutputInfo(info.Outputs[0])
	if err != nil || out.Name == "" {
		return fmt.Sprintf("crtc-%d", info.ID)
	}
	return out.Name
}

// Monitors returns a copy of the current monitor list.
func (t *Topology) Monitors() []platform.Monitor {
	out := make([]platform.Monitor, len(t.monitors))
	copy(out, t.monitors)
	return out
}

// Total returns the size of the bounding virtual screen.
func (t *Topology) Total() (width, height int) { return t.width, t.height }

func (t *Topology) Len() int { return len(t.monitors) }

// Monitor returns the monitor at index i.
func (t *Topology) Monitor(i int) (platform.Monitor, bool) {
	if i < 0 || i >= len(t.monitors) {
		return platform.Monitor{}, false
	}
	return t.monitors[i], true
}

// Primary returns monitor 0.
func (t *Topology) Primary() (platform.Monitor, bool) { return t.Monitor(0) }

// ByName returns the monitor driving the named output.
func (t *Topology) ByName(name string) (platform.Monitor, bool) {
	for _, m := range t.monitors {
		if m.Name == name {
			return m, true
		}
	}
	return platform.Monitor{}, false
}

// Intersects reports whether r overlaps any monitor.
func (t *Topology) Intersects(r platform.Rect) bool {
	for _, m := range t.monitors {
		if m.Bounds().Intersects(r) {
			return true
		}
	}
	return false
}

// ClampToPrimary moves r to the origin of monitor 0 and shrinks it to fit.
// With no monitors r is returned unchanged.
func (t *Topology) ClampToPrimary(r platform.Rect) platform.Rect {
	m, ok := t.Primary()
	if !ok {
		return r
	}
	return platform.Rect{
		X:      m.X,
		Y:      m.Y,
		Width:  min(r.Width, m.Width),
		Height: min(r.Height, m.Height),
	}
}

func bounds(monitors []platform.Monitor) (width, height int) {
	for _, m := range monitors {
		width = max(width, m.X+m.Width)
		height = max(height, m.Y+m.Height)
	}
	return width, height
}
