package platform

import "fmt"

// WindowID is a platform-neutral window identifier. Zero means "no window".
type WindowID uint32

// None is the absent window.
const None WindowID = 0

func (w WindowID) String() string {
	return fmt.Sprintf("0x%08x", uint32(w))
}

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return max(r.X, o.X) < min(r.Right(), o.Right()) &&
		max(r.Y, o.Y) < min(r.Bottom(), o.Bottom())
}

// Rotation is a monitor rotation in degrees.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Quarter reports whether the rotation swaps width and height.
func (r Rotation) Quarter() bool {
	return r == Rotate90 || r == Rotate270
}

// Monitor describes one active output as seen by the last topology query.
type Monitor struct {
	Index    int
	Name     string
	X        int
	Y        int
	Width    int
	Height   int
	Rotation Rotation
}

// Bounds returns the monitor rectangle.
func (m Monitor) Bounds() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// StackMode selects how a window is restacked relative to its siblings.
type StackMode int

const (
	StackAbove StackMode = iota
	StackBelow
)

// ConfigureMask selects which fields of a ConfigureRequest are applied.
type ConfigureMask uint16

const (
	ConfigureX ConfigureMask = 1 << iota
	ConfigureY
	ConfigureWidth
	ConfigureHeight
	ConfigureBorderWidth
	ConfigureSibling
	ConfigureStackMode
)

// WindowChanges carries the values of a configure request. Only the fields
// named by Mask are meaningful.
type WindowChanges struct {
	Mask        ConfigureMask
	X           int
	Y           int
	Width       int
	Height      int
	BorderWidth int
	Sibling     WindowID
	StackMode   int
}

// Display abstracts the window-system operations the window manager core
// issues. Implementations perform synchronous round-trips where a reply is
// needed; everything else is queued until Flush.
type Display interface {
	// Geometry returns the window's current position and size.
	Geometry(w WindowID) (Rect, error)
	// TopLevel lists the children of the root window in stacking order.
	TopLevel() ([]WindowID, error)

	MoveResize(w WindowID, r Rect) error
	Move(w WindowID, x, y int) error
	Configure(w WindowID, ch WindowChanges) error
	Restack(w WindowID, mode StackMode) error

	// Manage selects the default event interests on w and maps it.
	Manage(w WindowID) error
	// EnsureHints sets WM_PROTOCOLS and fills empty name hints with name.
	EnsureHints(w WindowID, name string) error

	SetInputFocus(w WindowID) error
	// RevertFocus returns input focus to the root window.
	RevertFocus() error
	SetActiveWindow(w WindowID) error
	ClearActiveWindow() error

	SetFullscreenState(w WindowID) error
	ClearState(w WindowID) error

	// PaintBackground draws the image at path once per monitor. An empty
	// path clears the background.
	PaintBackground(path string, monitors []Monitor) error

	Flush()
}

// OutputConnection is the connection state RandR reports for an output.
type OutputConnection int

const (
	OutputConnected OutputConnection = iota
	OutputDisconnected
	OutputUnknown
)

// ModeInfo is a display mode advertised by the server.
type ModeInfo struct {
	ID     uint32
	Width  int
	Height int
}

// ScreenResources is the result of enumerating RandR resources.
type ScreenResources struct {
	Crtcs   []uint32
	Outputs []uint32
	Modes   []ModeInfo
}

// Mode looks up a mode by id.
func (r ScreenResources) Mode(id uint32) (ModeInfo, bool) {
	for _, m := range r.Modes {
		if m.ID == id {
			return m, true
		}
	}
	return ModeInfo{}, false
}

// OutputInfo describes one RandR output.
type OutputInfo struct {
	ID         uint32
	Name       string
	Connection OutputConnection
	Crtc       uint32
	Crtcs      []uint32
	Modes      []uint32
}

// CrtcInfo describes one RandR controller.
type CrtcInfo struct {
	ID       uint32
	X        int
	Y        int
	Width    int
	Height   int
	Mode     uint32
	Rotation Rotation
	Outputs  []uint32
}

// Active reports whether the controller is driving something visible.
func (c CrtcInfo) Active() bool {
	return c.Mode != 0 && c.Width > 0 && c.Height > 0
}

// CrtcConfig is the desired state of a controller.
type CrtcConfig struct {
	X        int
	Y        int
	Mode     uint32
	Rotation Rotation
	Outputs  []uint32
}
