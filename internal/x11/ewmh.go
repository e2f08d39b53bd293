package x11

import (
	"fmt"

	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WMName is published on the supporting check window.
const WMName = "spanwm"

// Advertise creates the _NET_SUPPORTING_WM_CHECK window, names it and
// publishes the supported hint list.
func (c *Conn) Advertise() error {
	check, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return fmt.Errorf("generate check window id: %w", err)
	}
	if err := check.CreateChecked(c.Root, -1, -1, 1, 1, 0); err != nil {
		return fmt.Errorf("create check window: %w", err)
	}

	if err := ewmh.SupportingWmCheckSet(c.XUtil, c.Root, check.Id); err != nil {
		return fmt.Errorf("set _NET_SUPPORTING_WM_CHECK on root: %w", err)
	}
	if err := ewmh.SupportingWmCheckSet(c.XUtil, check.Id, check.Id); err != nil {
		return fmt.Errorf("set _NET_SUPPORTING_WM_CHECK on check window: %w", err)
	}
	if err := ewmh.SupportedSet(c.XUtil, supportedHints); err != nil {
		return fmt.Errorf("set _NET_SUPPORTED: %w", err)
	}
	if err := icccm.WmNameSet(c.XUtil, check.Id, WMName); err != nil {
		return fmt.Errorf("set WM_NAME: %w", err)
	}
	if err := ewmh.WmNameSet(c.XUtil, check.Id, WMName); err != nil {
		return fmt.Errorf("set _NET_WM_NAME: %w", err)
	}
	if err := icccm.WmClassSet(c.XUtil, check.Id, &icccm.WmClass{Instance: WMName, Class: "SpanWM"}); err != nil {
		return fmt.Errorf("set WM_CLASS: %w", err)
	}
	if err := icccm.WmProtocolsSet(c.XUtil, check.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("set WM_PROTOCOLS: %w", err)
	}
	c.log.Debug().Uint32("window", uint32(check.Id)).Msg("supporting check window created")
	return nil
}
