package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Limits.MaxWindows != DefaultMaxWindows || cfg.Limits.MaxMonitors != DefaultMaxMonitors {
		t.Fatalf("unexpected default limits %+v", cfg.Limits)
	}
	if !cfg.Touch.Enabled || cfg.Touch.DeviceDir != "/dev/input" {
		t.Fatalf("unexpected default touch config %+v", cfg.Touch)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Logging.Level != "info" {
		t.Fatalf("expected default level info, got %q", res.Config.Logging.Level)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Limits.MaxWindows != DefaultMaxWindows {
		t.Fatalf("expected default max_windows, got %d", res.Config.Limits.MaxWindows)
	}
}

func TestLoadFromPath_OverridesAndExplainSource(t *testing.T) {
	data := strings.Join([]string{
		`display: ":1"`,
		"logging:",
		"  level: debug",
		"touch:",
		"  reference_output: eDP-1",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("expected display :1, got %q", res.Config.Display)
	}
	if res.Config.Logging.Level != "debug" {
		t.Fatalf("expected level debug, got %q", res.Config.Logging.Level)
	}
	if res.Config.Touch.ReferenceOutput != "eDP-1" {
		t.Fatalf("expected reference output eDP-1, got %q", res.Config.Touch.ReferenceOutput)
	}
	// Sibling keys keep their defaults.
	if !res.Config.Touch.Enabled || res.Config.Touch.XInputPath != "xinput" {
		t.Fatalf("expected touch defaults to survive, got %+v", res.Config.Touch)
	}

	val, src, err := Explain(res, "display")
	if err != nil {
		t.Fatalf("explain display: %v", err)
	}
	if val != ":1" {
		t.Fatalf("expected explain display :1, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected display source file line 1, got %#v", src)
	}

	val, src, err = Explain(res, "limits.max_monitors")
	if err != nil {
		t.Fatalf("explain limits: %v", err)
	}
	if val != DefaultMaxMonitors || src.Kind != SourceDefault {
		t.Fatalf("expected default max_monitors, got %#v from %#v", val, src)
	}

	if _, _, err := Explain(res, "touch.bogus"); err == nil {
		t.Fatalf("expected unknown path error")
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "unknown_key: 1\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "unknown_key") && !strings.Contains(err.Error(), "field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	data := strings.Join([]string{
		"limits:",
		"  max_windows: 0",
		"",
	}, "\n")
	path := writeConfig(t, t.TempDir(), "config.yaml", data)

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if verr.Path != "limits.max_windows" {
		t.Fatalf("expected path limits.max_windows, got %q", verr.Path)
	}
	if verr.Source.Line != 2 {
		t.Fatalf("expected source line 2, got %d", verr.Source.Line)
	}
	if !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"zero monitors", func(c *Config) { c.Limits.MaxMonitors = 0 }, "limits.max_monitors"},
		{"touch without dir", func(c *Config) { c.Touch.DeviceDir = " " }, "touch.device_dir"},
		{"touch without xinput", func(c *Config) { c.Touch.XInputPath = "" }, "touch.xinput_path"},
		{"display whitespace", func(c *Config) { c.Display = ": 1" }, "display"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Touch.Enabled = false
	cfg.Touch.DeviceDir = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled touch should not require a device dir: %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()

	// config.d loaded first, in sorted order.
	configD := filepath.Join(dir, "config.d")
	if err := os.MkdirAll(configD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, configD, "10-base.yaml", "limits:\n  max_windows: 5\n  max_monitors: 4\n")
	writeConfig(t, configD, "20-override.yaml", "limits:\n  max_windows: 6\n")

	// Main file overrides includes.
	main := strings.Join([]string{
		"include:",
		"  - config.d",
		"limits:",
		"  max_windows: 7",
		"",
	}, "\n")
	path := writeConfig(t, dir, "config.yaml", main)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Limits.MaxWindows != 7 {
		t.Fatalf("expected max_windows to be 7, got %d", res.Config.Limits.MaxWindows)
	}
	if res.Config.Limits.MaxMonitors != 4 {
		t.Fatalf("expected max_monitors from include to be 4, got %d", res.Config.Limits.MaxMonitors)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files loaded, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "config.yaml", "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.yaml", "include: b.yaml\n")
	writeConfig(t, dir, "b.yaml", "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestWallpaperPath_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	want := filepath.Join(home, ".config", "spanwm", "wallpaper.png")
	if got := cfg.WallpaperPath(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	cfg.Wallpaper = "/srv/bg.jpg"
	if got := cfg.WallpaperPath(); got != "/srv/bg.jpg" {
		t.Fatalf("expected absolute path untouched, got %q", got)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath: %v", err)
	}
	if path != filepath.Join(home, ".config", "spanwm", "config.yaml") {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestLoadFromPath_ResolvesPathsAgainstSettingFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, sub, "paths.yaml", "wallpaper: bg.png\nlogging:\n  file: logs/spanwm.log\n")
	path := writeConfig(t, dir, "config.yaml", "include: sub/paths.yaml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	canonSub, err := canonicalPath(sub)
	if err != nil {
		t.Fatalf("canonicalPath: %v", err)
	}
	if want := filepath.Join(canonSub, "bg.png"); res.Config.Wallpaper != want {
		t.Fatalf("wallpaper = %q, want %q", res.Config.Wallpaper, want)
	}
	if want := filepath.Join(canonSub, "logs", "spanwm.log"); res.Config.Logging.File != want {
		t.Fatalf("logging.file = %q, want %q", res.Config.Logging.File, want)
	}

	path = writeConfig(t, dir, "home.yaml", "wallpaper: ~/pics/bg.png\n")
	res, err = LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if want := filepath.Join(home, "pics", "bg.png"); res.Config.WallpaperPath() != want {
		t.Fatalf("wallpaper = %q, want %q", res.Config.WallpaperPath(), want)
	}
}

func TestLoadFromPath_DeviceDirMustExist(t *testing.T) {
	dir := t.TempDir()
	devices := filepath.Join(dir, "input")
	if err := os.MkdirAll(devices, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, dir, "plain-file", "x")

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"existing directory", "touch:\n  device_dir: input\n", false},
		{"missing directory", "touch:\n  device_dir: nope\n", true},
		{"regular file", "touch:\n  device_dir: plain-file\n", true},
		{"touch disabled", "touch:\n  enabled: false\n  device_dir: nope\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, dir, "config.yaml", tt.data)
			_, err := LoadFromPath(path)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("load: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != "touch.device_dir" || verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
				t.Fatalf("unexpected error %#v", verr)
			}
		})
	}
}

func TestLoadFromPath_IncludeGlob(t *testing.T) {
	dir := t.TempDir()
	confD := filepath.Join(dir, "conf.d")
	if err := os.MkdirAll(confD, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeConfig(t, confD, "b.yml", "limits:\n  max_windows: 9\n")
	writeConfig(t, confD, "a.yml", "limits:\n  max_windows: 8\n  max_monitors: 3\n")
	writeConfig(t, confD, "ignored.txt", "not: yaml\n")
	path := writeConfig(t, dir, "config.yaml", "include: conf.d/*.yml\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Limits.MaxWindows != 9 || res.Config.Limits.MaxMonitors != 3 {
		t.Fatalf("limits = %+v", res.Config.Limits)
	}
	_, src, err := Explain(res, "limits.max_windows")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if filepath.Base(src.File) != "b.yml" {
		t.Fatalf("max_windows source = %#v", src)
	}

	path = writeConfig(t, dir, "empty-glob.yaml", "include: conf.d/*.json\n")
	if _, err := LoadFromPath(path); err == nil || !strings.Contains(err.Error(), "no yaml files match") {
		t.Fatalf("expected empty glob error, got %v", err)
	}
}
