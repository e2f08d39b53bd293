package fullscreen

import (
	"errors"
	"fmt"

	"github.com/1broseidon/spanwm/internal/platform"
)

// ErrInvalidSpan is returned when a span references a monitor index outside
// the current monitor list.
var ErrInvalidSpan = errors.New("fullscreen: invalid monitor span")

// Span names the monitors whose edges bound a fullscreen rectangle, in the
// order of the _NET_WM_FULLSCREEN_MONITORS message.
type Span struct {
	Top    int
	Bottom int
	Left   int
	Right  int
}

// WholeScreen is the canonical sentinel span. Any span with a -1 index is
// treated the same way.
var WholeScreen = Span{Top: -1, Bottom: -1, Left: -1, Right: -1}

// SpanFromWire decodes the four signed indices carried by a client message.
func SpanFromWire(data []uint32) Span {
	if len(data) < 4 {
		return WholeScreen
	}
	return Span{
		Top:    int(int32(data[0])),
		Bottom: int(int32(data[1])),
		Left:   int(int32(data[2])),
		Right:  int(int32(data[3])),
	}
}

// IsWholeScreen reports whether the span asks for the entire virtual screen.
func (s Span) IsWholeScreen() bool {
	return s.Top == -1 || s.Bottom == -1 || s.Left == -1 || s.Right == -1
}

func (s Span) indices() [4]int {
	return [4]int{s.Top, s.Bottom, s.Left, s.Right}
}

func (s Span) String() string {
	return fmt.Sprintf("[top=%d bottom=%d left=%d right=%d]", s.Top, s.Bottom, s.Left, s.Right)
}

// Screen is the monitor layout a geometry is computed against.
type Screen struct {
	Monitors []platform.Monitor
	Width    int
	Height   int
}

// Geometry maps a span to a pixel rectangle. The sentinel yields the full
// virtual screen; any index outside the monitor list is rejected.
func Geometry(span Span, screen Screen) (platform.Rect, error) {
	if span.IsWholeScreen() {
		return platform.Rect{X: 0, Y: 0, Width: screen.Width, Height: screen.Height}, nil
	}
	n := len(screen.Monitors)
	for _, idx := range span.indices() {
		if idx < 0 || idx >= n {
			return platform.Rect{}, fmt.Errorf("%w: %s with %d monitors", ErrInvalidSpan, span, n)
		}
	}

	top := screen.Monitors[span.Top]
	bottom := screen.Monitors[span.Bottom]
	left := screen.Monitors[span.Left]
	right := screen.Monitors[span.Right]

	x1, y1 := left.X, top.Y
	x2, y2 := right.X+right.Width, bottom.Y+bottom.Height
	return platform.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, nil
}

// RotateRect swaps width and height for quarter-turn rotations.
func RotateRect(r platform.Rect, rot platform.Rotation) platform.Rect {
	if rot.Quarter() {
		r.Width, r.Height = r.Height, r.Width
	}
	return r
}

// generalTarget is the full virtual screen, oriented like the primary monitor.
func generalTarget(screen Screen) platform.Rect {
	r := platform.Rect{Width: screen.Width, Height: screen.Height}
	if len(screen.Monitors) > 0 {
		r = RotateRect(r, screen.Monitors[0].Rotation)
	}
	return r
}

// spanTarget applies Geometry and orients the result like the monitor the
// span starts from.
func spanTarget(span Span, screen Screen) (platform.Rect, error) {
	r, err := Geometry(span, screen)
	if err != nil {
		return platform.Rect{}, err
	}
	ref := 0
	if !span.IsWholeScreen() {
		ref = span.Left
	}
	if ref < len(screen.Monitors) {
		r = RotateRect(r, screen.Monitors[ref].Rotation)
	}
	return r, nil
}
