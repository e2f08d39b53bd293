package x11

import (
	"image"
	"testing"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/spanwm/internal/fullscreen"
	"github.com/1broseidon/spanwm/internal/platform"
	"github.com/1broseidon/spanwm/internal/wm"
)

func testTranslator() translator {
	return translator{
		root: 1,
		atoms: atoms{
			wmState:            100,
			wmStateAbove:       101,
			wmStateFullscreen:  102,
			activeWindow:       103,
			fullscreenMonitors: 104,
		},
	}
}

func clientMessage(typ xproto.Atom, w xproto.Window, data ...uint32) xproto.ClientMessageEvent {
	buf := make([]uint32, 5)
	copy(buf, data)
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: w,
		Type:   typ,
		Data:   xproto.ClientMessageDataUnionData32New(buf),
	}
}

func TestTranslate_StateMessage(t *testing.T) {
	got, ok := testTranslator().translate(clientMessage(100, 42, 2, 0, 102))
	if !ok {
		t.Fatal("state message dropped")
	}
	want := wm.StateMessage{Window: 42, Action: wm.StateToggle, Props: [2]wm.StateProperty{wm.PropertyOther, wm.PropertyFullscreen}}
	if got != want {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestTranslate_FullscreenMonitorsSigned(t *testing.T) {
	neg := uint32(0xffffffff)
	got, ok := testTranslator().translate(clientMessage(104, 7, neg, neg, neg, neg))
	if !ok {
		t.Fatal("message dropped")
	}
	msg := got.(wm.FullscreenMonitorsMessage)
	if msg.Window != 7 || msg.Span != fullscreen.WholeScreen {
		t.Fatalf("got %#v", msg)
	}
}

func TestTranslate_IgnoresUnknown(t *testing.T) {
	tr := testTranslator()
	if _, ok := tr.translate(clientMessage(999, 7, 1)); ok {
		t.Fatal("unknown client message translated")
	}
	if _, ok := tr.translate(xproto.ExposeEvent{Window: 5, Count: 0}); ok {
		t.Fatal("expose of a client window translated")
	}
	if _, ok := tr.translate(xproto.ExposeEvent{Window: 1, Count: 2}); ok {
		t.Fatal("non-final expose translated")
	}
	if _, ok := tr.translate(randr.NotifyEvent{SubCode: randr.NotifyCrtcChange}); ok {
		t.Fatal("crtc change translated")
	}
}

func TestTranslate_CoreEvents(t *testing.T) {
	tr := testTranslator()
	tests := []struct {
		in   xgb.Event
		want wm.Event
	}{
		{xproto.MapRequestEvent{Window: 9}, wm.MapRequest{Window: 9}},
		{xproto.DestroyNotifyEvent{Window: 9}, wm.DestroyNotify{Window: 9}},
		{xproto.FocusInEvent{Event: 9, Mode: xproto.NotifyModeNormal, Detail: xproto.NotifyDetailPointer}, wm.FocusIn{Window: 9, Mode: wm.FocusNormal, Detail: wm.DetailPointer}},
		{xproto.FocusOutEvent{Event: 9}, wm.FocusOut{Window: 9}},
		{xproto.ExposeEvent{Window: 1}, wm.Expose{Window: 1}},
		{randr.ScreenChangeNotifyEvent{Width: 1080, Height: 1920, Rotation: randr.RotationRotate90}, wm.TopologyChange{Width: 1080, Height: 1920, Rotation: platform.Rotate90}},
		{randr.NotifyEvent{SubCode: randr.NotifyOutputChange}, wm.TopologyChange{}},
	}
	for _, tt := range tests {
		got, ok := tr.translate(tt.in)
		if !ok || got != tt.want {
			t.Errorf("translate(%T) = %#v, %v; want %#v", tt.in, got, ok, tt.want)
		}
	}
}

func TestTranslate_ConfigureRequestKeepsMask(t *testing.T) {
	ev := xproto.ConfigureRequestEvent{
		Window:    3,
		X:         -20,
		Width:     640,
		StackMode: xproto.StackModeBelow,
		ValueMask: xproto.ConfigWindowX | xproto.ConfigWindowWidth | xproto.ConfigWindowStackMode,
	}
	got, _ := testTranslator().translate(ev)
	req := got.(wm.ConfigureRequest)
	wantMask := platform.ConfigureX | platform.ConfigureWidth | platform.ConfigureStackMode
	if req.Changes.Mask != wantMask || req.Changes.X != -20 || req.Changes.Width != 640 || req.Changes.StackMode != xproto.StackModeBelow {
		t.Fatalf("changes = %+v", req.Changes)
	}
}

func TestRotationRoundTrip(t *testing.T) {
	for _, r := range []platform.Rotation{platform.Rotate0, platform.Rotate90, platform.Rotate180, platform.Rotate270} {
		if got := rotationFromRandR(rotationToRandR(r)); got != r {
			t.Errorf("rotation %d came back as %d", r, got)
		}
	}
	// Reflection bits do not change the rotation.
	if got := rotationFromRandR(randr.RotationRotate180 | randr.RotationReflectX); got != platform.Rotate180 {
		t.Errorf("reflected rotation = %d", got)
	}
}

func TestPlaceCentred(t *testing.T) {
	tests := []struct {
		name   string
		img    image.Rectangle
		mon    platform.Rect
		dst    image.Rectangle
		srcMin image.Point
	}{
		{
			name: "smaller image centred",
			img:  image.Rect(0, 0, 800, 600),
			mon:  platform.Rect{X: 1920, Y: 0, Width: 1280, Height: 1024},
			dst:  image.Rect(2160, 212, 2960, 812),
		},
		{
			name:   "larger image clamped to origin and clipped",
			img:    image.Rect(0, 0, 4000, 3000),
			mon:    platform.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			dst:    image.Rect(0, 0, 1920, 1080),
			srcMin: image.Pt(0, 0),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst, sp := placeCentred(tt.img, tt.mon)
			if dst != tt.dst || sp != tt.srcMin {
				t.Fatalf("placeCentred = %v, %v; want %v, %v", dst, sp, tt.dst, tt.srcMin)
			}
		})
	}
}
