package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xprop"
)

// supportedHints is advertised in _NET_SUPPORTED.
var supportedHints = []string{
	"_NET_WM_STATE",
	"_NET_WM_STATE_ABOVE",
	"_NET_WM_STATE_FULLSCREEN",
	"_NET_ACTIVE_WINDOW",
	"_NET_WM_FULLSCREEN_MONITORS",
	"_NET_WM_NAME",
}

// atoms are the identifiers event translation compares against.
type atoms struct {
	wmState            xproto.Atom
	wmStateAbove       xproto.Atom
	wmStateFullscreen  xproto.Atom
	activeWindow       xproto.Atom
	fullscreenMonitors xproto.Atom
}

func (a *atoms) intern(xu *xgbutil.XUtil) error {
	for _, item := range []struct {
		name string
		dst  *xproto.Atom
	}{
		{"_NET_WM_STATE", &a.wmState},
		{"_NET_WM_STATE_ABOVE", &a.wmStateAbove},
		{"_NET_WM_STATE_FULLSCREEN", &a.wmStateFullscreen},
		{"_NET_ACTIVE_WINDOW", &a.activeWindow},
		{"_NET_WM_FULLSCREEN_MONITORS", &a.fullscreenMonitors},
	} {
		atom, err := xprop.Atm(xu, item.name)
		if err != nil {
			return fmt.Errorf("intern %s: %w", item.name, err)
		}
		*item.dst = atom
	}
	return nil
}
