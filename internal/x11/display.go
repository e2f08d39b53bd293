package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/spanwm/internal/platform"
)

var _ platform.Display = (*Conn)(nil)

func xwin(w platform.WindowID) xproto.Window { return xproto.Window(w) }

// Geometry returns the window rectangle relative to its parent.
func (c *Conn) Geometry(w platform.WindowID) (platform.Rect, error) {
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(w)).Reply()
	if err != nil {
		return platform.Rect{}, fmt.Errorf("get geometry of %s: %w", w, err)
	}
	return platform.Rect{X: int(g.X), Y: int(g.Y), Width: int(g.Width), Height: int(g.Height)}, nil
}

// TopLevel lists the root's children bottom to top.
func (c *Conn) TopLevel() ([]platform.WindowID, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}
	out := make([]platform.WindowID, 0, len(tree.Children))
	for _, child := range tree.Children {
		out = append(out, platform.WindowID(child))
	}
	return out, nil
}

func (c *Conn) MoveResize(w platform.WindowID, r platform.Rect) error {
	xwindow.New(c.XUtil, xwin(w)).MoveResize(r.X, r.Y, r.Width, r.Height)
	return nil
}

func (c *Conn) Move(w platform.WindowID, x, y int) error {
	xwindow.New(c.XUtil, xwin(w)).Move(x, y)
	return nil
}

// Configure applies exactly the fields named by ch.Mask, in protocol order.
func (c *Conn) Configure(w platform.WindowID, ch platform.WindowChanges) error {
	var values []uint32
	fields := []struct {
		bit platform.ConfigureMask
		val uint32
	}{
		{platform.ConfigureX, uint32(int32(ch.X))},
		{platform.ConfigureY, uint32(int32(ch.Y))},
		{platform.ConfigureWidth, uint32(ch.Width)},
		{platform.ConfigureHeight, uint32(ch.Height)},
		{platform.ConfigureBorderWidth, uint32(ch.BorderWidth)},
		{platform.ConfigureSibling, uint32(ch.Sibling)},
		{platform.ConfigureStackMode, uint32(ch.StackMode)},
	}
	var mask platform.ConfigureMask
	for _, f := range fields {
		if ch.Mask&f.bit != 0 {
			mask |= f.bit
			values = append(values, f.val)
		}
	}
	if mask == 0 {
		return nil
	}
	xproto.ConfigureWindow(c.XUtil.Conn(), xwin(w), uint16(mask), values)
	return nil
}

func (c *Conn) Restack(w platform.WindowID, mode platform.StackMode) error {
	stack := byte(xproto.StackModeAbove)
	if mode == platform.StackBelow {
		stack = xproto.StackModeBelow
	}
	xwindow.New(c.XUtil, xwin(w)).Stack(stack)
	return nil
}

// Manage selects property and focus events on w and maps it.
func (c *Conn) Manage(w platform.WindowID) error {
	win := xwindow.New(c.XUtil, xwin(w))
	if err := win.Listen(xproto.EventMaskPropertyChange, xproto.EventMaskFocusChange); err != nil {
		return fmt.Errorf("listen on %s: %w", w, err)
	}
	win.Map()
	return nil
}

// EnsureHints advertises WM_DELETE_WINDOW and fills in missing names.
func (c *Conn) EnsureHints(w platform.WindowID, name string) error {
	if err := icccm.WmProtocolsSet(c.XUtil, xwin(w), []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("set WM_PROTOCOLS on %s: %w", w, err)
	}
	if cur, err := icccm.WmNameGet(c.XUtil, xwin(w)); err != nil || cur == "" {
		if err := icccm.WmNameSet(c.XUtil, xwin(w), name); err != nil {
			return fmt.Errorf("set WM_NAME on %s: %w", w, err)
		}
	}
	if cur, err := ewmh.WmNameGet(c.XUtil, xwin(w)); err != nil || cur == "" {
		if err := ewmh.WmNameSet(c.XUtil, xwin(w), name); err != nil {
			return fmt.Errorf("set _NET_WM_NAME on %s: %w", w, err)
		}
	}
	return nil
}

func (c *Conn) SetInputFocus(w platform.WindowID) error {
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, xwin(w), xproto.TimeCurrentTime)
	return nil
}

func (c *Conn) RevertFocus() error {
	xproto.SetInputFocus(c.XUtil.Conn(), xproto.InputFocusPointerRoot, c.Root, xproto.TimeCurrentTime)
	return nil
}

func (c *Conn) SetActiveWindow(w platform.WindowID) error {
	return ewmh.ActiveWindowSet(c.XUtil, xwin(w))
}

func (c *Conn) ClearActiveWindow() error {
	xproto.DeleteProperty(c.XUtil.Conn(), c.Root, c.atoms.activeWindow)
	return nil
}

func (c *Conn) SetFullscreenState(w platform.WindowID) error {
	return ewmh.WmStateSet(c.XUtil, xwin(w), []string{"_NET_WM_STATE_FULLSCREEN"})
}

func (c *Conn) ClearState(w platform.WindowID) error {
	xproto.DeleteProperty(c.XUtil.Conn(), xwin(w), c.atoms.wmState)
	return nil
}

// Flush waits until the server has processed every request sent so far.
func (c *Conn) Flush() {
	c.XUtil.Sync()
}
