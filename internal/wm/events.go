package wm

import (
	"github.com/1broseidon/spanwm/internal/fullscreen"
	"github.com/1broseidon/spanwm/internal/platform"
)

// Event is one protocol notification, already translated from the wire.
type Event interface {
	Kind() string
}

// MapRequest asks the manager to map a new top-level window.
type MapRequest struct {
	Window platform.WindowID
}

// ConfigureRequest carries the fields a client asked to change.
type ConfigureRequest struct {
	Window  platform.WindowID
	Changes platform.WindowChanges
}

// DestroyNotify reports that a window is gone.
type DestroyNotify struct {
	Window platform.WindowID
}

// StateAction is the action field of a _NET_WM_STATE message.
type StateAction int

const (
	StateRemove StateAction = 0
	StateAdd    StateAction = 1
	StateToggle StateAction = 2
)

func (a StateAction) String() string {
	switch a {
	case StateRemove:
		return "remove"
	case StateAdd:
		return "add"
	case StateToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// StateProperty is a _NET_WM_STATE atom the manager understands.
type StateProperty int

const (
	PropertyOther StateProperty = iota
	PropertyAbove
	PropertyFullscreen
)

// StateMessage is a _NET_WM_STATE client message.
type StateMessage struct {
	Window platform.WindowID
	Action StateAction
	Props  [2]StateProperty
}

// Has reports whether either property slot names p.
func (m StateMessage) Has(p StateProperty) bool {
	return m.Props[0] == p || m.Props[1] == p
}

// ActiveWindowMessage is a _NET_ACTIVE_WINDOW client message.
type ActiveWindowMessage struct {
	Window platform.WindowID
}

// FullscreenMonitorsMessage is a _NET_WM_FULLSCREEN_MONITORS client message.
type FullscreenMonitorsMessage struct {
	Window platform.WindowID
	Span   fullscreen.Span
}

// FocusMode mirrors the X notify mode of a focus event.
type FocusMode int

const (
	FocusNormal FocusMode = iota
	FocusGrab
	FocusUngrab
	FocusWhileGrabbed
)

// FocusDetail mirrors the X notify detail of a focus event.
type FocusDetail int

const (
	DetailOther FocusDetail = iota
	DetailPointer
	DetailNone
)

type FocusIn struct {
	Window platform.WindowID
	Mode   FocusMode
	Detail FocusDetail
}

type FocusOut struct {
	Window platform.WindowID
}

// TopologyChange reports a RandR screen, output or crtc change.
type TopologyChange struct {
	Width    int
	Height   int
	Rotation platform.Rotation
}

// DeviceHierarchyChange reports that input devices came or went.
type DeviceHierarchyChange struct{}

// Expose asks for the root background to be redrawn.
type Expose struct {
	Window platform.WindowID
}

func (MapRequest) Kind() string                { return "map-request" }
func (ConfigureRequest) Kind() string          { return "configure-request" }
func (DestroyNotify) Kind() string             { return "destroy-notify" }
func (StateMessage) Kind() string              { return "wm-state" }
func (ActiveWindowMessage) Kind() string       { return "active-window" }
func (FullscreenMonitorsMessage) Kind() string { return "fullscreen-monitors" }
func (FocusIn) Kind() string                   { return "focus-in" }
func (FocusOut) Kind() string                  { return "focus-out" }
func (TopologyChange) Kind() string            { return "topology-change" }
func (DeviceHierarchyChange) Kind() string     { return "device-hierarchy" }
func (Expose) Kind() string                    { return "expose" }
