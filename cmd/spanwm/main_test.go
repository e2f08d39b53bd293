package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1broseidon/spanwm/internal/config"
	"github.com/1broseidon/spanwm/internal/ipc"
)

func TestFormatSource(t *testing.T) {
	tests := []struct {
		name string
		src  config.Source
		want string
	}{
		{"file with position", config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{"file without position", config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{"bare file", config.Source{Kind: config.SourceFile}, "file"},
		{"named default", config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{"default", config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSource(tt.src); got != tt.want {
				t.Fatalf("formatSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintMonitors(t *testing.T) {
	var buf bytes.Buffer
	err := printMonitors(&buf, &ipc.MonitorsData{
		Monitors: []ipc.MonitorInfo{
			{ID: 0, Name: "DP-1", Width: 1920, Height: 1080},
			{ID: 1, Name: "HDMI-1", X: 1920, Width: 1280, Height: 1024, Rotation: 1},
		},
		ScreenWidth:  3200,
		ScreenHeight: 1080,
	})
	if err != nil {
		t.Fatalf("printMonitors: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"INDEX", "DP-1", "1920x1080+0+0", "1280x1024+1920+0", "screen: 3200x1080"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintWindows(t *testing.T) {
	var buf bytes.Buffer
	err := printWindows(&buf, &ipc.WindowsData{
		Active: "0x400001",
		Focus:  []string{"0x400001", "0x400002"},
		Fullscreen: []ipc.FullscreenInfo{{
			Window:   "0x400002",
			Mode:     "monitor-span",
			Original: ipc.RectInfo{X: 10, Y: 20, Width: 640, Height: 480},
			Span:     []int{0, 0, 0, 1},
			Outputs:  []string{"DP-1", "HDMI-1"},
		}},
	})
	if err != nil {
		t.Fatalf("printWindows: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"active: 0x400001", "focus:  0x400001 0x400002", "above:  -", "monitor-span", "DP-1,HDMI-1", "640x480+10+20"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintWindowsEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := printWindows(&buf, &ipc.WindowsData{}); err != nil {
		t.Fatalf("printWindows: %v", err)
	}
	want := "active: -\nfocus:  -\nabove:  -\nfullscreen: -\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &ipc.StatusData{
		DaemonRunning: true,
		UptimeSeconds: 90,
		Monitors:      2,
		ScreenWidth:   3840,
		ScreenHeight:  1080,
		Windows:       3,
		Above:         1,
	})
	out := buf.String()
	for _, want := range []string{"daemon_running: true", "uptime:         1m30s", "3840x1080 on 2 monitor(s)", "active_window:  -", "windows:        3 (above 1, fullscreen 0)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "last_touch") {
		t.Errorf("last_touch printed without a sync result:\n%s", out)
	}
}

func TestWantJSONFlag(t *testing.T) {
	if !wantJSON(true) {
		t.Fatal("--json must force JSON output")
	}
}
