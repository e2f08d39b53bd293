// Package wm is the window manager state machine. A Manager owns the focus
// history, the always-on-top set, the fullscreen registry and the monitor
// topology, and is driven one Event at a time from a single goroutine.
package wm

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/focus"
	"github.com/1broseidon/spanwm/internal/fullscreen"
	"github.com/1broseidon/spanwm/internal/monitor"
	"github.com/1broseidon/spanwm/internal/platform"
	"github.com/1broseidon/spanwm/internal/touch"
)

// DefaultName is written to windows mapped without a name.
const DefaultName = "Unnamed"

const touchTimeout = 5 * time.Second

// ErrStopped is returned by requests made after Run has returned.
var ErrStopped = errors.New("wm: manager stopped")

// Settings are the runtime options a reload may change.
type Settings struct {
	Wallpaper string
	// TouchEnabled turns transform syncing on.
	TouchEnabled bool
	// TouchReference names the output whose rotation drives touch
	// transforms. Empty means monitor 0.
	TouchReference string
	MaxMonitors    int
}

// Options configures a Manager.
type Options struct {
	Display  platform.Display
	Topology *monitor.Topology
	// Touch may be nil, which disables transform syncing.
	Touch      *touch.Syncer
	Logger     zerolog.Logger
	MaxWindows int
	Settings   Settings
}

type request struct {
	fn   func(context.Context, *Manager)
	done chan struct{}
}

// Manager routes events to the window registries. All fields are owned by
// the goroutine running Run.
type Manager struct {
	display  platform.Display
	topo     *monitor.Topology
	touch    *touch.Syncer
	log      zerolog.Logger
	settings Settings

	focus  *focus.Stack
	above  *focus.AboveSet
	fs     *fullscreen.Registry
	active platform.WindowID

	lastTouch *touch.SyncResult
	events    uint64
	failures  uint64
	startedAt time.Time

	requests chan request
	stopped  chan struct{}
}

// New builds a manager. It does not touch the display until Run or Start.
func New(opts Options) *Manager {
	return &Manager{
		display:  opts.Display,
		topo:     opts.Topology,
		touch:    opts.Touch,
		log:      opts.Logger.With().Str("component", "wm").Logger(),
		settings: opts.Settings,
		focus:    focus.NewStack(opts.MaxWindows),
		above:    focus.NewAboveSet(opts.MaxWindows),
		fs:       fullscreen.NewRegistry(opts.MaxWindows),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Start queries the initial topology, paints the background and syncs
// touch transforms.
func (m *Manager) Start(ctx context.Context) {
	m.startedAt = time.Now()
	if m.settings.MaxMonitors > 0 {
		m.topo.SetMaxMonitors(m.settings.MaxMonitors)
	}
	if err := m.topo.Query(); err != nil {
		m.log.Warn().Err(err).Msg("initial monitor query failed")
	}
	m.paintBackground()
	m.refreshTouch(ctx)
	m.display.Flush()

	w, h := m.topo.Total()
	m.log.Info().Int("monitors", m.topo.Len()).Int("width", w).Int("height", h).Msg("window manager started")
}

// Run starts the manager and processes events and requests in arrival
// order until ctx is cancelled or events is closed.
func (m *Manager) Run(ctx context.Context, events <-chan Event) error {
	defer close(m.stopped)
	m.Start(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			m.Handle(ctx, ev)
		case req := <-m.requests:
			req.fn(ctx, m)
			close(req.done)
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (m *Manager) do(ctx context.Context, fn func(context.Context, *Manager)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case m.requests <- req:
	case <-m.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the manager state, taken on the loop.
func (m *Manager) Snapshot(ctx context.Context) (State, error) {
	var st State
	err := m.do(ctx, func(_ context.Context, m *Manager) { st = m.State() })
	return st, err
}

// ApplySettings replaces the runtime settings and redraws what depends on
// them.
func (m *Manager) ApplySettings(ctx context.Context, s Settings) error {
	return m.do(ctx, func(ctx context.Context, m *Manager) {
		m.settings = s
		if s.MaxMonitors > 0 {
			m.topo.SetMaxMonitors(s.MaxMonitors)
		}
		m.paintBackground()
		m.refreshTouch(ctx)
		m.display.Flush()
		m.log.Info().Str("wallpaper", s.Wallpaper).Bool("touch", s.TouchEnabled).Msg("settings applied")
	})
}

// RefreshTouch pushes touch transforms now and returns the outcome.
func (m *Manager) RefreshTouch(ctx context.Context) (touch.SyncResult, error) {
	var res touch.SyncResult
	err := m.do(ctx, func(ctx context.Context, m *Manager) {
		m.refreshTouch(ctx)
		if m.lastTouch != nil {
			res = *m.lastTouch
		}
	})
	return res, err
}

// Handle processes one event to completion and flushes.
func (m *Manager) Handle(ctx context.Context, ev Event) {
	m.events++
	log := m.log.With().Str("event", ev.Kind()).Logger()

	var err error
	switch e := ev.(type) {
	case MapRequest:
		err = m.mapWindow(e.Window)
	case ConfigureRequest:
		err = m.display.Configure(e.Window, e.Changes)
	case DestroyNotify:
		m.destroy(e.Window)
	case StateMessage:
		err = m.state(e)
	case ActiveWindowMessage:
		err = m.activate(e.Window)
	case FullscreenMonitorsMessage:
		err = m.fullscreenMonitors(e.Window, e.Span)
	case FocusIn:
		if e.Mode == FocusNormal && (e.Detail == DetailPointer || e.Detail == DetailNone) {
			err = m.setFocus(e.Window)
		}
	case FocusOut:
		if e.Window != platform.None && e.Window == m.active {
			m.loseFocus(e.Window)
		}
	case TopologyChange:
		m.topologyChanged(ctx, e)
	case DeviceHierarchyChange:
		m.refreshTouch(ctx)
	case Expose:
		m.paintBackground()
	default:
		log.Debug().Msg("unhandled event")
	}
	if err != nil {
		m.failures++
		log.Error().Err(err).Msg("event handling failed")
	}
	m.display.Flush()
}

func (m *Manager) mapWindow(w platform.WindowID) error {
	if err := m.display.Manage(w); err != nil {
		return err
	}
	if err := m.display.EnsureHints(w, DefaultName); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("set default hints failed")
	}
	if err := m.setFocus(w); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("focus on map failed")
	}
	m.restackAbove()
	return nil
}

func (m *Manager) destroy(w platform.WindowID) {
	m.above.Remove(w)
	if rec, ok := m.fs.Clear(w); ok {
		if err := m.display.MoveResize(w, rec.Original); err != nil {
			m.log.Debug().Err(err).Stringer("window", w).Msg("restore on destroy failed")
		}
	}
	if w == m.active {
		m.loseFocus(w)
		return
	}
	m.focus.Remove(w)
}

// setFocus gives w input focus and makes it the active window.
func (m *Manager) setFocus(w platform.WindowID) error {
	if w == platform.None {
		return nil
	}
	if err := m.focus.Push(w); err != nil {
		return err
	}
	m.active = w
	if err := m.display.SetInputFocus(w); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("set input focus failed")
	}
	if err := m.display.SetActiveWindow(w); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("publish active window failed")
	}
	return nil
}

// loseFocus drops w from the history and focuses whatever is now on top,
// or nothing.
func (m *Manager) loseFocus(w platform.WindowID) {
	m.focus.Remove(w)
	if w != m.active {
		return
	}
	if next := m.focus.Top(); next != platform.None {
		if err := m.setFocus(next); err == nil {
			return
		}
	}
	m.active = platform.None
	if err := m.display.RevertFocus(); err != nil {
		m.log.Warn().Err(err).Msg("revert focus failed")
	}
	if err := m.display.ClearActiveWindow(); err != nil {
		m.log.Warn().Err(err).Msg("clear active window failed")
	}
}

func (m *Manager) activate(w platform.WindowID) error {
	if w == platform.None {
		return nil
	}
	if err := m.display.Restack(w, platform.StackAbove); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("raise failed")
	}
	return m.setFocus(w)
}

func (m *Manager) state(msg StateMessage) error {
	var errs []error
	if msg.Has(PropertyAbove) {
		errs = append(errs, m.stateAbove(msg.Window, msg.Action))
	}
	if msg.Has(PropertyFullscreen) {
		errs = append(errs, m.stateFullscreen(msg.Window, msg.Action))
	}
	return errors.Join(errs...)
}

func (m *Manager) stateAbove(w platform.WindowID, action StateAction) error {
	var err error
	switch action {
	case StateAdd:
		_, err = m.above.Add(w)
	case StateRemove:
		m.above.Remove(w)
	case StateToggle:
		_, err = m.above.Toggle(w)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	mode := platform.StackBelow
	if m.above.Contains(w) {
		mode = platform.StackAbove
	}
	return m.display.Restack(w, mode)
}

func (m *Manager) stateFullscreen(w platform.WindowID, action StateAction) error {
	if m.fs.Mode(w) == fullscreen.MonitorSpan {
		m.log.Debug().Stringer("window", w).Msg("ignoring fullscreen state change on spanning window")
		return nil
	}
	switch action {
	case StateAdd:
		return m.requestGeneral(w)
	case StateRemove:
		return m.clearFullscreen(w)
	case StateToggle:
		if m.fs.Contains(w) {
			return m.clearFullscreen(w)
		}
		return m.requestGeneral(w)
	}
	return nil
}

func (m *Manager) screen() fullscreen.Screen {
	w, h := m.topo.Total()
	return fullscreen.Screen{Monitors: m.topo.Monitors(), Width: w, Height: h}
}

func (m *Manager) geometryOf(w platform.WindowID) fullscreen.GeometryFunc {
	return func() (platform.Rect, error) { return m.display.Geometry(w) }
}

func (m *Manager) requestGeneral(w platform.WindowID) error {
	existed := m.fs.Contains(w)
	p, err := m.fs.RequestGeneral(w, m.geometryOf(w), m.screen())
	if err != nil {
		return err
	}
	if err := m.display.MoveResize(w, p.Rect); err != nil {
		if !existed {
			m.fs.Clear(w)
		}
		return err
	}
	if err := m.display.SetFullscreenState(w); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("set fullscreen state failed")
	}
	if _, err := m.above.Add(w); err != nil {
		return err
	}
	return m.display.Restack(w, platform.StackAbove)
}

func (m *Manager) clearFullscreen(w platform.WindowID) error {
	rec, ok := m.fs.Clear(w)
	if !ok {
		return nil
	}
	if err := m.display.ClearState(w); err != nil {
		m.log.Warn().Err(err).Stringer("window", w).Msg("clear state failed")
	}
	return m.display.MoveResize(w, rec.Original)
}

func (m *Manager) fullscreenMonitors(w platform.WindowID, span fullscreen.Span) error {
	p, err := m.fs.RequestSpan(w, span, m.geometryOf(w), m.screen())
	if err != nil {
		return err
	}
	if err := m.display.MoveResize(w, p.Rect); err != nil {
		return err
	}
	return m.display.SetFullscreenState(w)
}

func (m *Manager) restackAbove() {
	for _, w := range m.above.Windows() {
		if err := m.display.Restack(w, platform.StackAbove); err != nil {
			m.log.Warn().Err(err).Stringer("window", w).Msg("restack failed")
		}
	}
}

// topologyChanged is the one pass that revisits every window.
func (m *Manager) topologyChanged(ctx context.Context, ev TopologyChange) {
	m.log.Info().
		Int("width", ev.Width).
		Int("height", ev.Height).
		Int("rotation", int(ev.Rotation)).
		Msg("display changed")
	report := m.topo.Reconcile()
	for _, s := range report.Skipped {
		m.log.Warn().Str("reason", s).Msg("reconcile step skipped")
	}

	placements, err := m.fs.Recompute(m.screen())
	if err != nil {
		m.log.Warn().Err(err).Msg("fullscreen recompute skipped windows")
	}
	placed := make(map[platform.WindowID]struct{}, len(placements))
	for _, p := range placements {
		placed[p.Window] = struct{}{}
		if p.Renumbered {
			m.log.Warn().Stringer("window", p.Window).Msg("monitor indices now refer to different outputs")
		}
		if err := m.display.MoveResize(p.Window, p.Rect); err != nil {
			m.log.Warn().Err(err).Stringer("window", p.Window).Msg("fullscreen reapply failed")
		}
	}

	m.rescueOffscreen(placed)
	m.restackAbove()
	m.paintBackground()
	m.refreshTouch(ctx)
}

// rescueOffscreen moves windows that no longer overlap any monitor onto
// monitor 0. Windows in placed were already laid out by the fullscreen
// registry; span records whose monitors vanished are not in it.
func (m *Manager) rescueOffscreen(placed map[platform.WindowID]struct{}) {
	if m.topo.Len() == 0 {
		return
	}
	windows, err := m.display.TopLevel()
	if err != nil {
		m.log.Warn().Err(err).Msg("list top-level windows failed")
		return
	}
	for _, w := range windows {
		if _, ok := placed[w]; ok {
			continue
		}
		g, err := m.display.Geometry(w)
		if err != nil {
			m.log.Debug().Err(err).Stringer("window", w).Msg("geometry failed, skipping")
			continue
		}
		if g.Empty() || m.topo.Intersects(g) {
			continue
		}
		target := m.topo.ClampToPrimary(g)
		if err := m.display.MoveResize(w, target); err != nil {
			m.log.Warn().Err(err).Stringer("window", w).Msg("move on-screen failed")
			continue
		}
		m.log.Info().Stringer("window", w).Int("x", target.X).Int("y", target.Y).Msg("moved off-screen window")
	}
}

func (m *Manager) paintBackground() {
	if err := m.display.PaintBackground(m.settings.Wallpaper, m.topo.Monitors()); err != nil {
		m.log.Debug().Err(err).Str("wallpaper", m.settings.Wallpaper).Msg("wallpaper not drawn")
	}
}

// touchRotation picks the rotation of the configured reference output,
// falling back to monitor 0.
func (m *Manager) touchRotation() (platform.Rotation, bool) {
	if name := m.settings.TouchReference; name != "" {
		if mon, ok := m.topo.ByName(name); ok {
			return mon.Rotation, true
		}
		m.log.Debug().Str("output", name).Msg("touch reference output not active, using monitor 0")
	}
	mon, ok := m.topo.Primary()
	return mon.Rotation, ok
}

func (m *Manager) refreshTouch(ctx context.Context) {
	if m.touch == nil || !m.settings.TouchEnabled {
		return
	}
	rot, ok := m.touchRotation()
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, touchTimeout)
	defer cancel()
	res, err := m.touch.Sync(ctx, rot)
	if err != nil {
		m.log.Warn().Err(err).Msg("touch sync failed")
		return
	}
	m.lastTouch = &res
}
