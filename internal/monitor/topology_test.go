package monitor

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/platform"
)

// fakeRandR is an in-memory RandR server. Config changes are applied to the
// stored controllers and output bindings.
type fakeRandR struct {
	crtcOrder   []uint32
	outputOrder []uint32
	crtcs       map[uint32]platform.CrtcInfo
	outputs     map[uint32]platform.OutputInfo
	modes       []platform.ModeInfo

	failCrtc   map[uint32]bool
	failOutput map[uint32]bool
	screenW    int
	screenH    int
	sizeCalls  int
}

func newFake() *fakeRandR {
	return &fakeRandR{
		crtcs:      make(map[uint32]platform.CrtcInfo),
		outputs:    make(map[uint32]platform.OutputInfo),
		failCrtc:   make(map[uint32]bool),
		failOutput: make(map[uint32]bool),
		modes: []platform.ModeInfo{
			{ID: 100, Width: 1920, Height: 1080},
			{ID: 101, Width: 1280, Height: 1024},
			{ID: 102, Width: 2560, Height: 1440},
		},
	}
}

func (f *fakeRandR) addCrtc(c platform.CrtcInfo) {
	f.crtcOrder = append(f.crtcOrder, c.ID)
	f.crtcs[c.ID] = c
}

func (f *fakeRandR) addOutput(o platform.OutputInfo) {
	f.outputOrder = append(f.outputOrder, o.ID)
	f.outputs[o.ID] = o
}

func (f *fakeRandR) Resources() (platform.ScreenResources, error) {
	return platform.ScreenResources{Crtcs: f.crtcOrder, Outputs: f.outputOrder, Modes: f.modes}, nil
}

func (f *fakeRandR) OutputInfo(id uint32) (platform.OutputInfo, error) {
	if f.failOutput[id] {
		return platform.OutputInfo{}, errors.New("bad output")
	}
	o, ok := f.outputs[id]
	if !ok {
		return platform.OutputInfo{}, errors.New("no such output")
	}
	return o, nil
}

func (f *fakeRandR) CrtcInfo(id uint32) (platform.CrtcInfo, error) {
	if f.failCrtc[id] {
		return platform.CrtcInfo{}, errors.New("bad crtc")
	}
	c, ok := f.crtcs[id]
	if !ok {
		return platform.CrtcInfo{}, errors.New("no such crtc")
	}
	return c, nil
}

func (f *fakeRandR) SetCrtcConfig(id uint32, cfg platform.CrtcConfig) error {
	c := f.crtcs[id]
	var mode platform.ModeInfo
	for _, m := range f.modes {
		if m.ID == cfg.Mode {
			mode = m
		}
	}
	c.X, c.Y = cfg.X, cfg.Y
	c.Mode = cfg.Mode
	c.Rotation = cfg.Rotation
	c.Width, c.Height = mode.Width, mode.Height
	if cfg.Rotation.Quarter() {
		c.Width, c.Height = c.Height, c.Width
	}
	c.Outputs = cfg.Outputs
	f.crtcs[id] = c
	for _, out := range cfg.Outputs {
		o := f.outputs[out]
		o.Crtc = id
		f.outputs[out] = o
	}
	return nil
}

func (f *fakeRandR) DisableCrtc(id uint32) error {
	for _, out := range f.crtcs[id].Outputs {
		o := f.outputs[out]
		o.Crtc = 0
		f.outputs[out] = o
	}
	f.crtcs[id] = platform.CrtcInfo{ID: id}
	return nil
}

func (f *fakeRandR) SetScreenSize(w, h, _, _ int) error {
	f.screenW, f.screenH = w, h
	f.sizeCalls++
	return nil
}

// dualHead returns DP-1 (1920x1080 at 0,0) and HDMI-1 (1280x1024 at 1920,0)
// plus an idle controller.
func dualHead() *fakeRandR {
	f := newFake()
	f.addCrtc(platform.CrtcInfo{ID: 1, X: 0, Y: 0, Width: 1920, Height: 1080, Mode: 100, Outputs: []uint32{10}})
	f.addCrtc(platform.CrtcInfo{ID: 2, X: 1920, Y: 0, Width: 1280, Height: 1024, Mode: 101, Outputs: []uint32{11}})
	f.addCrtc(platform.CrtcInfo{ID: 3})
	f.addOutput(platform.OutputInfo{ID: 10, Name: "DP-1", Connection: platform.OutputConnected, Crtc: 1, Crtcs: []uint32{1, 2, 3}, Modes: []uint32{100}})
	f.addOutput(platform.OutputInfo{ID: 11, Name: "HDMI-1", Connection: platform.OutputConnected, Crtc: 2, Crtcs: []uint32{1, 2, 3}, Modes: []uint32{101}})
	return f
}

func newTopology(t *testing.T, r RandR) *Topology {
	t.Helper()
	return New(r, 32, zerolog.Nop())
}

func TestQuery_BuildsMonitorsAndTotals(t *testing.T) {
	topo := newTopology(t, dualHead())
	if err := topo.Query(); err != nil {
		t.Fatalf("Query: %v", err)
	}
	mons := topo.Monitors()
	if len(mons) != 2 {
		t.Fatalf("monitors = %+v", mons)
	}
	if mons[0].Name != "DP-1" || mons[1].Name != "HDMI-1" || mons[1].Index != 1 {
		t.Fatalf("monitors = %+v", mons)
	}
	if w, h := topo.Total(); w != 3200 || h != 1080 {
		t.Fatalf("total = %dx%d, want 3200x1080", w, h)
	}
}

func TestQuery_SkipsFailedCrtc(t *testing.T) {
	f := dualHead()
	f.failCrtc[1] = true
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if topo.Len() != 1 {
		t.Fatalf("len = %d, want 1", topo.Len())
	}
	if m, _ := topo.Primary(); m.Name != "HDMI-1" || m.Index != 0 {
		t.Fatalf("primary = %+v", m)
	}
}

func TestQuery_RespectsMonitorLimit(t *testing.T) {
	topo := New(dualHead(), 1, zerolog.Nop())
	if err := topo.Query(); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if topo.Len() != 1 {
		t.Fatalf("len = %d, want 1", topo.Len())
	}
	if w, h := topo.Total(); w != 1920 || h != 1080 {
		t.Fatalf("total = %dx%d", w, h)
	}
}

func TestQuery_KeepsLastKnownSize(t *testing.T) {
	f := dualHead()
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatalf("Query: %v", err)
	}
	f.crtcs[1] = platform.CrtcInfo{ID: 1}
	f.crtcs[2] = platform.CrtcInfo{ID: 2}
	if err := topo.Query(); !errors.Is(err, ErrNoMonitors) {
		t.Fatalf("Query err = %v, want ErrNoMonitors", err)
	}
	if w, h := topo.Total(); w != 3200 || h != 1080 {
		t.Fatalf("size collapsed: %dx%d", w, h)
	}
	if topo.Len() != 0 {
		t.Fatalf("len = %d, want 0", topo.Len())
	}
}

func TestReconcile_DisconnectedOutputIsDisabled(t *testing.T) {
	f := dualHead()
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatal(err)
	}
	o := f.outputs[11]
	o.Connection = platform.OutputDisconnected
	f.outputs[11] = o

	report := topo.Reconcile()

	if len(report.Disabled) != 1 || report.Disabled[0] != "HDMI-1" {
		t.Fatalf("disabled = %v", report.Disabled)
	}
	if c := f.crtcs[2]; c.Mode != 0 || c.Width != 0 || len(c.Outputs) != 0 {
		t.Fatalf("crtc 2 not cleared: %+v", c)
	}
	mons := topo.Monitors()
	if len(mons) != 1 || mons[0].Bounds() != (platform.Rect{Width: 1920, Height: 1080}) {
		t.Fatalf("monitors = %+v", mons)
	}
	if f.screenW != 1920 || f.screenH != 1080 || !report.Resized {
		t.Fatalf("screen size = %dx%d, resized=%v", f.screenW, f.screenH, report.Resized)
	}
}

func TestReconcile_NewOutputEnabledAtRightEdge(t *testing.T) {
	f := dualHead()
	f.addOutput(platform.OutputInfo{ID: 12, Name: "DP-2", Connection: platform.OutputConnected, Crtcs: []uint32{1, 3}, Modes: []uint32{102}})
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatal(err)
	}

	report := topo.Reconcile()

	if len(report.Enabled) != 1 || report.Enabled[0] != "DP-2" {
		t.Fatalf("enabled = %v, skipped = %v", report.Enabled, report.Skipped)
	}
	c := f.crtcs[3]
	if c.X != 3200 || c.Y != 0 || c.Mode != 102 {
		t.Fatalf("crtc 3 = %+v", c)
	}
	if w, h := topo.Total(); w != 5760 || h != 1440 {
		t.Fatalf("total = %dx%d", w, h)
	}
	if f.screenW != 5760 || f.screenH != 1440 {
		t.Fatalf("screen size = %dx%d", f.screenW, f.screenH)
	}
}

func TestReconcile_SkipsWithoutModeOrCrtc(t *testing.T) {
	f := dualHead()
	f.addOutput(platform.OutputInfo{ID: 12, Name: "DP-2", Connection: platform.OutputConnected, Crtcs: []uint32{1, 3}})
	f.addOutput(platform.OutputInfo{ID: 13, Name: "DP-3", Connection: platform.OutputConnected, Crtcs: []uint32{1, 2}, Modes: []uint32{100}})
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatal(err)
	}

	report := topo.Reconcile()

	if len(report.Enabled) != 0 || len(report.Skipped) != 2 {
		t.Fatalf("enabled = %v, skipped = %v", report.Enabled, report.Skipped)
	}
	if topo.Len() != 2 {
		t.Fatalf("len = %d", topo.Len())
	}
}

func TestReconcile_ForcedRepositionWhenPreviouslyEmpty(t *testing.T) {
	f := newFake()
	f.addCrtc(platform.CrtcInfo{ID: 1, X: 500, Y: 40, Width: 1920, Height: 1080, Mode: 100, Outputs: []uint32{10}})
	f.addCrtc(platform.CrtcInfo{ID: 2, X: 0, Y: 0, Width: 1280, Height: 1024, Mode: 101, Rotation: platform.Rotate0, Outputs: []uint32{11}})
	f.addOutput(platform.OutputInfo{ID: 10, Name: "DP-1", Connection: platform.OutputConnected, Crtc: 1, Crtcs: []uint32{1}, Modes: []uint32{100}})
	f.addOutput(platform.OutputInfo{ID: 11, Name: "HDMI-1", Connection: platform.OutputConnected, Crtc: 2, Crtcs: []uint32{2}, Modes: []uint32{101}})
	topo := newTopology(t, f)

	report := topo.Reconcile()

	if !report.Forced {
		t.Fatal("reconcile on empty topology not forced")
	}
	if f.crtcs[1].X != 0 || f.crtcs[1].Y != 0 || f.crtcs[2].X != 1920 {
		t.Fatalf("crtcs = %+v / %+v", f.crtcs[1], f.crtcs[2])
	}
	if len(report.Repositioned) != 2 {
		t.Fatalf("repositioned = %v", report.Repositioned)
	}
	if w, h := topo.Total(); w != 3200 || h != 1080 {
		t.Fatalf("total = %dx%d", w, h)
	}
}

func TestReconcile_ReplugAfterUnplugAllStartsAtOrigin(t *testing.T) {
	f := newFake()
	f.addCrtc(platform.CrtcInfo{ID: 1, X: 0, Y: 0, Width: 1920, Height: 1080, Mode: 100, Outputs: []uint32{10}})
	f.addCrtc(platform.CrtcInfo{ID: 2})
	f.addOutput(platform.OutputInfo{ID: 10, Name: "DP-1", Connection: platform.OutputConnected, Crtc: 1, Crtcs: []uint32{1, 2}, Modes: []uint32{100}})
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatal(err)
	}

	o := f.outputs[10]
	o.Connection = platform.OutputDisconnected
	f.outputs[10] = o
	report := topo.Reconcile()
	if len(report.Disabled) != 1 || topo.Len() != 0 {
		t.Fatalf("after unplug: disabled = %v, len = %d", report.Disabled, topo.Len())
	}
	if w, h := topo.Total(); w != 1920 || h != 1080 {
		t.Fatalf("after unplug: total = %dx%d", w, h)
	}

	o = f.outputs[10]
	o.Connection = platform.OutputConnected
	f.outputs[10] = o
	report = topo.Reconcile()

	if !report.Forced {
		t.Fatal("replug onto an empty topology not forced")
	}
	if len(report.Enabled) != 1 || report.Enabled[0] != "DP-1" {
		t.Fatalf("enabled = %v, skipped = %v", report.Enabled, report.Skipped)
	}
	mons := topo.Monitors()
	if len(mons) != 1 || mons[0].X != 0 || mons[0].Y != 0 {
		t.Fatalf("monitors = %+v", mons)
	}
	if w, h := topo.Total(); w != 1920 || h != 1080 {
		t.Fatalf("total = %dx%d", w, h)
	}
	if f.screenW != 1920 || f.screenH != 1080 {
		t.Fatalf("screen size = %dx%d", f.screenW, f.screenH)
	}
}

func TestReconcile_NoRepositionWhenNotForced(t *testing.T) {
	f := dualHead()
	c := f.crtcs[2]
	c.X = 2000
	f.crtcs[2] = c
	topo := newTopology(t, f)
	if err := topo.Query(); err != nil {
		t.Fatal(err)
	}
	report := topo.Reconcile()
	if report.Forced || len(report.Repositioned) != 0 || f.crtcs[2].X != 2000 {
		t.Fatalf("unexpected reposition: %+v", report)
	}
}

func TestIntersectsAndClamp(t *testing.T) {
	topo := newTopology(t, dualHead())
	if err := topo.Query(); err != nil {
		t.Fatal(err)
	}
	if !topo.Intersects(platform.Rect{X: 3000, Y: 1000, Width: 500, Height: 500}) {
		t.Fatal("window overlapping HDMI-1 reported off-screen")
	}
	off := platform.Rect{X: 4000, Y: 100, Width: 2500, Height: 600}
	if topo.Intersects(off) {
		t.Fatal("off-screen window reported visible")
	}
	if got := topo.ClampToPrimary(off); got != (platform.Rect{X: 0, Y: 0, Width: 1920, Height: 600}) {
		t.Fatalf("ClampToPrimary = %+v", got)
	}
}

func TestMillimetres(t *testing.T) {
	if got := millimetres(1920); got != 508 {
		t.Fatalf("millimetres(1920) = %d, want 508", got)
	}
}
