package x11

import (
	"context"
	"errors"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/spanwm/internal/fullscreen"
	"github.com/1broseidon/spanwm/internal/platform"
	"github.com/1broseidon/spanwm/internal/wm"
)

// ErrClosed is returned by Events when the server connection goes away.
var ErrClosed = errors.New("x11: connection closed")

// Events reads protocol events in server order and sends their
// translations on out until ctx is cancelled or the connection closes.
// Protocol errors for individual requests are logged and skipped.
func (c *Conn) Events(ctx context.Context, out chan<- wm.Event) error {
	tr := translator{atoms: c.atoms, root: c.Root}
	for {
		ev, xerr := c.XUtil.Conn().WaitForEvent()
		if ev == nil && xerr == nil {
			return ErrClosed
		}
		if xerr != nil {
			c.log.Debug().Str("error", xerr.Error()).Msg("protocol error")
			continue
		}
		wev, ok := tr.translate(ev)
		if !ok {
			continue
		}
		select {
		case out <- wev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// EventSource runs Events as a supervised service.
type EventSource struct {
	Conn *Conn
	Out  chan<- wm.Event
}

func (s *EventSource) Serve(ctx context.Context) error {
	return s.Conn.Events(ctx, s.Out)
}

func (s *EventSource) String() string { return "x11-events" }

type translator struct {
	atoms atoms
	root  xproto.Window
}

func (t translator) translate(ev xgb.Event) (wm.Event, bool) {
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		return wm.MapRequest{Window: platform.WindowID(e.Window)}, true
	case xproto.ConfigureRequestEvent:
		return wm.ConfigureRequest{Window: platform.WindowID(e.Window), Changes: windowChanges(e)}, true
	case xproto.DestroyNotifyEvent:
		return wm.DestroyNotify{Window: platform.WindowID(e.Window)}, true
	case xproto.ClientMessageEvent:
		return t.clientMessage(e)
	case xproto.FocusInEvent:
		return wm.FocusIn{
			Window: platform.WindowID(e.Event),
			Mode:   focusMode(e.Mode),
			Detail: focusDetail(e.Detail),
		}, true
	case xproto.FocusOutEvent:
		return wm.FocusOut{Window: platform.WindowID(e.Event)}, true
	case xproto.ExposeEvent:
		if e.Window != t.root || e.Count != 0 {
			return nil, false
		}
		return wm.Expose{Window: platform.WindowID(e.Window)}, true
	case randr.ScreenChangeNotifyEvent:
		return wm.TopologyChange{
			Width:    int(e.Width),
			Height:   int(e.Height),
			Rotation: rotationFromRandR(uint16(e.Rotation)),
		}, true
	case randr.NotifyEvent:
		if e.SubCode != randr.NotifyOutputChange {
			return nil, false
		}
		return wm.TopologyChange{}, true
	}
	return nil, false
}

func (t translator) clientMessage(e xproto.ClientMessageEvent) (wm.Event, bool) {
	if e.Format != 32 {
		return nil, false
	}
	data := e.Data.Data32
	w := platform.WindowID(e.Window)
	switch e.Type {
	case t.atoms.wmState:
		if len(data) < 3 {
			return nil, false
		}
		return wm.StateMessage{
			Window: w,
			Action: wm.StateAction(data[0]),
			Props:  [2]wm.StateProperty{t.stateProperty(data[1]), t.stateProperty(data[2])},
		}, true
	case t.atoms.activeWindow:
		return wm.ActiveWindowMessage{Window: w}, true
	case t.atoms.fullscreenMonitors:
		if len(data) < 4 {
			return nil, false
		}
		return wm.FullscreenMonitorsMessage{Window: w, Span: fullscreen.SpanFromWire(data)}, true
	}
	return nil, false
}

func (t translator) stateProperty(v uint32) wm.StateProperty {
	switch xproto.Atom(v) {
	case t.atoms.wmStateAbove:
		return wm.PropertyAbove
	case t.atoms.wmStateFullscreen:
		return wm.PropertyFullscreen
	}
	return wm.PropertyOther
}

func windowChanges(e xproto.ConfigureRequestEvent) platform.WindowChanges {
	return platform.WindowChanges{
		Mask:        platform.ConfigureMask(e.ValueMask),
		X:           int(e.X),
		Y:           int(e.Y),
		Width:       int(e.Width),
		Height:      int(e.Height),
		BorderWidth: int(e.BorderWidth),
		Sibling:     platform.WindowID(e.Sibling),
		StackMode:   int(e.StackMode),
	}
}

func focusMode(m byte) wm.FocusMode {
	switch m {
	case xproto.NotifyModeNormal:
		return wm.FocusNormal
	case xproto.NotifyModeGrab:
		return wm.FocusGrab
	case xproto.NotifyModeUngrab:
		return wm.FocusUngrab
	default:
		return wm.FocusWhileGrabbed
	}
}

func focusDetail(d byte) wm.FocusDetail {
	switch d {
	case xproto.NotifyDetailPointer:
		return wm.DetailPointer
	case xproto.NotifyDetailNone:
		return wm.DetailNone
	default:
		return wm.DetailOther
	}
}

func rotationFromRandR(r uint16) platform.Rotation {
	switch {
	case r&randr.RotationRotate90 != 0:
		return platform.Rotate90
	case r&randr.RotationRotate180 != 0:
		return platform.Rotate180
	case r&randr.RotationRotate270 != 0:
		return platform.Rotate270
	default:
		return platform.Rotate0
	}
}

func rotationToRandR(r platform.Rotation) uint16 {
	switch r {
	case platform.Rotate90:
		return randr.RotationRotate90
	case platform.Rotate180:
		return randr.RotationRotate180
	case platform.Rotate270:
		return randr.RotationRotate270
	default:
		return randr.RotationRotate0
	}
}
