package monitor

import (
	"fmt"

	"github.com/1broseidon/spanwm/internal/platform"
)

// dpi is used to derive the physical screen size pushed with SetScreenSize.
const dpi = 96

// ReconcileReport summarizes one hotplug reconciliation.
type ReconcileReport struct {
	Disabled     []string
	Enabled      []string
	Repositioned []string
	// Skipped lists outputs or controllers that could not be handled, with
	// the reason.
	Skipped []string
	Forced  bool
	Resized bool
	Width   int
	Height  int
}

// Changed reports whether any output was reconfigured.
func (r ReconcileReport) Changed() bool {
	return len(r.Disabled) > 0 || len(r.Enabled) > 0 || len(r.Repositioned) > 0
}

// Reconcile brings the controllers in line with the connected outputs and
// re-queries the topology. It always runs to completion; failed sub-steps
// are logged and recorded in the report.
func (t *Topology) Reconcile() ReconcileReport {
	report := ReconcileReport{Forced: len(t.monitors) == 0}

	state, err := t.snapshot()
	if err != nil {
		t.log.Error().Err(err).Msg("reconcile: cannot read screen resources")
		report.Skipped = append(report.Skipped, err.Error())
	} else {
		t.disableDisconnected(state, &report)
		t.enableConnected(state, &report)
		if report.Forced {
			t.reposition(state, &report)
		}
	}

	if err := t.Query(); err != nil {
		t.log.Warn().Err(err).Msg("reconcile: query failed")
	}

	report.Width, report.Height = t.width, t.height
	if t.width > 0 && t.height > 0 {
		mmW, mmH := millimetres(t.width), millimetres(t.height)
		if err := t.randr.SetScreenSize(t.width, t.height, mmW, mmH); err != nil {
			t.log.Error().Err(err).Int("width", t.width).Int("height", t.height).Msg("reconcile: set screen size failed")
			report.Skipped = append(report.Skipped, fmt.Sprintf("screen size: %v", err))
		} else {
			report.Resized = true
		}
	}

	t.log.Info().
		Strs("disabled", report.Disabled).
		Strs("enabled", report.Enabled).
		Strs("repositioned", report.Repositioned).
		Int("width", report.Width).
		Int("height", report.Height).
		Msg("topology reconciled")
	return report
}

// randrState is one consistent read of outputs and controllers.
type randrState struct {
	res     platform.ScreenResources
	outputs []platform.OutputInfo
	crtcs   map[uint32]platform.CrtcInfo
}

func (t *Topology) snapshot() (*randrState, error) {
	res, err := t.randr.Resources()
	if err != nil {
		return nil, fmt.Errorf("screen resources: %w", err)
	}
	state := &randrState{res: res, crtcs: make(map[uint32]platform.CrtcInfo, len(res.Crtcs))}
	for _, id := range res.Crtcs {
		info, err := t.randr.CrtcInfo(id)
		if err != nil {
			t.log.Warn().Err(err).Uint32("crtc", id).Msg("crtc info failed, skipping")
			continue
		}
		state.crtcs[id] = info
	}
	for _, id := range res.Outputs {
		info, err := t.randr.OutputInfo(id)
		if err != nil {
			t.log.Warn().Err(err).Uint32("output", id).Msg("output info failed, skipping")
			continue
		}
		state.outputs = append(state.outputs, info)
	}
	return state, nil
}

func (t *Topology) disableDisconnected(state *randrState, report *ReconcileReport) {
	for i, out := range state.outputs {
		if out.Connection != platform.OutputDisconnected || out.Crtc == 0 {
			continue
		}
		if err := t.randr.DisableCrtc(out.Crtc); err != nil {
			t.log.Error().Err(err).Str("output", out.Name).Uint32("crtc", out.Crtc).Msg("disable crtc failed")
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: disable: %v", out.Name, err))
			continue
		}
		state.crtcs[out.Crtc] = platform.CrtcInfo{ID: out.Crtc}
		state.outputs[i].Crtc = 0
		report.Disabled = append(report.Disabled, out.Name)
	}
}

func (t *Topology) enableConnected(state *randrState, report *ReconcileReport) {
	edge, _ := bounds(t.monitors)
	for i, out := range state.outputs {
		if out.Connection != platform.OutputConnected || out.Crtc != 0 {
			continue
		}
		if len(out.Modes) == 0 {
			t.log.Warn().Str("output", out.Name).Msg("connected output has no modes, skipping")
			report.Skipped = append(report.Skipped, out.Name+": no modes")
			continue
		}
		crtc, ok := freeCrtc(state, out)
		if !ok {
			t.log.Warn().Str("output", out.Name).Msg("no free crtc, skipping")
			report.Skipped = append(report.Skipped, out.Name+": no free crtc")
			continue
		}
		mode, ok := state.res.Mode(out.Modes[0])
		if !ok {
			t.log.Warn().Str("output", out.Name).Uint32("mode", out.Modes[0]).Msg("unknown mode, skipping")
			report.Skipped = append(report.Skipped, out.Name+": unknown mode")
			continue
		}

		cfg := platform.CrtcConfig{X: edge, Y: 0, Mode: mode.ID, Rotation: platform.Rotate0, Outputs: []uint32{out.ID}}
		if err := t.randr.SetCrtcConfig(crtc, cfg); err != nil {
			t.log.Error().Err(err).Str("output", out.Name).Uint32("crtc", crtc).Msg("enable output failed")
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: enable: %v", out.Name, err))
			continue
		}
		state.crtcs[crtc] = platform.CrtcInfo{
			ID: crtc, X: edge, Width: mode.Width, Height: mode.Height,
			Mode: mode.ID, Rotation: platform.Rotate0, Outputs: []uint32{out.ID},
		}
		state.outputs[i].Crtc = crtc
		edge += mode.Width
		t.log.Info().Str("output", out.Name).Uint32("crtc", crtc).Int("x", cfg.X).Msg("output enabled")
		report.Enabled = append(report.Enabled, out.Name)
	}
}

// freeCrtc picks a controller with no outputs that out is able to drive.
func freeCrtc(state *randrState, out platform.OutputInfo) (uint32, bool) {
	for _, id := range out.Crtcs {
		info, ok := state.crtcs[id]
		if ok && len(info.Outputs) == 0 {
			return id, true
		}
	}
	return 0, false
}

// reposition lays connected outputs out left to right with no gaps.
func (t *Topology) reposition(state *randrState, report *ReconcileReport) {
	x := 0
	for _, out := range state.outputs {
		if out.Connection != platform.OutputConnected || out.Crtc == 0 {
			continue
		}
		info, ok := state.crtcs[out.Crtc]
		if !ok || !info.Active() {
			continue
		}
		if info.X != x || info.Y != 0 {
			cfg := platform.CrtcConfig{X: x, Y: 0, Mode: info.Mode, Rotation: info.Rotation, Outputs: info.Outputs}
			if err := t.randr.SetCrtcConfig(out.Crtc, cfg); err != nil {
				t.log.Error().Err(err).Str("output", out.Name).Msg("reposition failed")
				report.Skipped = append(report.Skipped, fmt.Sprintf("%s: reposition: %v", out.Name, err))
				x += info.Width
				continue
			}
			report.Repositioned = append(report.Repositioned, out.Name)
		}
		x += info.Width
	}
}

func millimetres(px int) int {
	return px * 254 / (dpi * 10)
}
