// Package x11 connects spanwm to an X server: it takes the window manager
// selection, translates protocol events and implements the display and
// RandR operations the core issues.
package x11

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/rs/zerolog"
)

var (
	// ErrAnotherWM means some other client already redirects the root.
	ErrAnotherWM = errors.New("x11: another window manager is running")
	// ErrNoRandR means the server lacks the RandR extension.
	ErrNoRandR = errors.New("x11: RandR extension not available")
)

// rootMask is what the window manager listens for on the root window.
const rootMask = xproto.EventMaskSubstructureRedirect |
	xproto.EventMaskSubstructureNotify |
	xproto.EventMaskFocusChange |
	xproto.EventMaskPropertyChange |
	xproto.EventMaskExposure

// Conn is a window manager connection to one X screen.
type Conn struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	atoms atoms
	log   zerolog.Logger

	// wallpaper is the image currently installed as root background.
	wallpaper *xgraphics.Image
	source    *sourceImage
	closeOnce sync.Once
}

// Connect opens display (empty means $DISPLAY), becomes the window manager
// and enables RandR notifications.
func Connect(display string, log zerolog.Logger) (*Conn, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	c := &Conn{
		XUtil: xu,
		Root:  xu.RootWin(),
		log:   log.With().Str("component", "x11").Logger(),
	}

	if err := c.becomeWM(); err != nil {
		c.Close()
		return nil, err
	}
	if err := randr.Init(xu.Conn()); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoRandR, err)
	}
	mask := uint16(randr.NotifyMaskScreenChange | randr.NotifyMaskOutputChange)
	if err := randr.SelectInputChecked(xu.Conn(), c.Root, mask).Check(); err != nil {
		c.Close()
		return nil, fmt.Errorf("select RandR input: %w", err)
	}
	if err := c.atoms.intern(xu); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Conn) becomeWM() error {
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root,
		xproto.CwEventMask, []uint32{rootMask}).Check()
	if err == nil {
		return nil
	}
	var access xproto.AccessError
	if errors.As(err, &access) {
		return ErrAnotherWM
	}
	return fmt.Errorf("select root events: %w", err)
}

// Close disconnects from the X server. Later calls do nothing.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		if c.wallpaper != nil {
			c.wallpaper.Destroy()
			c.wallpaper = nil
		}
		c.XUtil.Conn().Close()
	})
}
