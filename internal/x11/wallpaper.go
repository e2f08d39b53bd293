package x11

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xgraphics"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/1broseidon/spanwm/internal/platform"
)

// sourceImage caches the decoded wallpaper so repaints on expose do not
// re-read the file.
type sourceImage struct {
	path    string
	modTime time.Time
	img     *xgraphics.Image
}

func (c *Conn) loadWallpaper(path string) (*xgraphics.Image, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if c.source != nil && c.source.path == path && c.source.modTime.Equal(st.ModTime()) {
		return c.source.img, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	ximg := xgraphics.NewConvert(c.XUtil, img)
	c.source = &sourceImage{path: path, modTime: st.ModTime(), img: ximg}
	c.log.Debug().Str("path", path).Str("format", format).Int("width", img.Bounds().Dx()).Int("height", img.Bounds().Dy()).Msg("wallpaper loaded")
	return ximg, nil
}

// PaintBackground composes one centred copy of the image per monitor and
// installs the result as the root background.
func (c *Conn) PaintBackground(path string, monitors []platform.Monitor) error {
	if path == "" || len(monitors) == 0 {
		c.clearBackground()
		return nil
	}
	src, err := c.loadWallpaper(path)
	if err != nil {
		c.clearBackground()
		return err
	}

	var width, height int
	for _, m := range monitors {
		width = max(width, m.X+m.Width)
		height = max(height, m.Y+m.Height)
	}
	canvas := xgraphics.New(c.XUtil, image.Rect(0, 0, width, height))
	canvas.For(func(x, y int) xgraphics.BGRA { return xgraphics.BGRA{A: 0xff} })
	for _, m := range monitors {
		dst, sp := placeCentred(src.Bounds(), m.Bounds())
		if dst.Empty() {
			continue
		}
		draw.Draw(canvas, dst, src, sp, draw.Src)
	}

	if err := canvas.XSurfaceSet(c.Root); err != nil {
		canvas.Destroy()
		return fmt.Errorf("create background pixmap: %w", err)
	}
	canvas.XDraw()
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), c.Root, xproto.CwBackPixmap, []uint32{uint32(canvas.Pixmap)})
	xproto.ClearArea(c.XUtil.Conn(), false, c.Root, 0, 0, 0, 0)

	if c.wallpaper != nil {
		c.wallpaper.Destroy()
	}
	c.wallpaper = canvas
	return nil
}

func (c *Conn) clearBackground() {
	xproto.ChangeWindowAttributes(c.XUtil.Conn(), c.Root, xproto.CwBackPixmap, []uint32{xproto.BackPixmapNone})
	xproto.ClearArea(c.XUtil.Conn(), false, c.Root, 0, 0, 0, 0)
	if c.wallpaper != nil {
		c.wallpaper.Destroy()
		c.wallpaper = nil
	}
}

// placeCentred centres an image of size img on monitor mon. The top-left
// corner never moves above or left of the monitor origin, and the result is
// clipped to the monitor. It returns the destination rectangle and the
// matching source point.
func placeCentred(img image.Rectangle, mon platform.Rect) (image.Rectangle, image.Point) {
	x := max(mon.X+(mon.Width-img.Dx())/2, mon.X)
	y := max(mon.Y+(mon.Height-img.Dy())/2, mon.Y)
	full := image.Rect(x, y, x+img.Dx(), y+img.Dy())
	clip := image.Rect(mon.X, mon.Y, mon.Right(), mon.Bottom())
	dst := full.Intersect(clip)
	sp := img.Min.Add(dst.Min.Sub(full.Min))
	return dst, sp
}
