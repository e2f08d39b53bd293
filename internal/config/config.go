package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultMaxWindows  = 128
	DefaultMaxMonitors = 32
)

// LoggingConfig configures the daemon log.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level"`
	// File is an optional extra log destination, written without colour.
	File string `yaml:"file,omitempty"`
}

// Limits bounds the window and monitor registries.
type Limits struct {
	MaxWindows  int `yaml:"max_windows"`
	MaxMonitors int `yaml:"max_monitors"`
}

// TouchConfig controls the touchscreen transform sync.
type TouchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	DeviceDir string `yaml:"device_dir"`
	// ReferenceOutput names the output whose rotation drives the transform.
	// Empty means monitor 0.
	ReferenceOutput string `yaml:"reference_output,omitempty"`
	XInputPath      string `yaml:"xinput_path"`
}

type IPCConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config holds the application configuration.
type Config struct {
	Display   string        `yaml:"display,omitempty"`
	Wallpaper string        `yaml:"wallpaper"`
	Logging   LoggingConfig `yaml:"logging"`
	Limits    Limits        `yaml:"limits"`
	Touch     TouchConfig   `yaml:"touch"`
	IPC       IPCConfig     `yaml:"ipc"`
}

func DefaultConfig() *Config {
	return &Config{
		Wallpaper: "~/.config/spanwm/wallpaper.png",
		Logging: LoggingConfig{
			Level: "info",
		},
		Limits: Limits{
			MaxWindows:  DefaultMaxWindows,
			MaxMonitors: DefaultMaxMonitors,
		},
		Touch: TouchConfig{
			Enabled:    true,
			DeviceDir:  "/dev/input",
			XInputPath: "xinput",
		},
		IPC: IPCConfig{
			Enabled: true,
		},
	}
}

// WallpaperPath returns the wallpaper path with a leading ~ expanded.
func (c *Config) WallpaperPath() string {
	return expandHome(c.Wallpaper)
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "logging.level", Err: fmt.Errorf("level must be one of: debug, info, warn, error")}
	}
	if c.Limits.MaxWindows <= 0 {
		return &ValidationError{Path: "limits.max_windows", Err: fmt.Errorf("max_windows must be > 0")}
	}
	if c.Limits.MaxMonitors <= 0 {
		return &ValidationError{Path: "limits.max_monitors", Err: fmt.Errorf("max_monitors must be > 0")}
	}
	if c.Touch.Enabled {
		if strings.TrimSpace(c.Touch.DeviceDir) == "" {
			return &ValidationError{Path: "touch.device_dir", Err: fmt.Errorf("device_dir is required when touch is enabled")}
		}
		if strings.TrimSpace(c.Touch.XInputPath) == "" {
			return &ValidationError{Path: "touch.xinput_path", Err: fmt.Errorf("xinput_path is required when touch is enabled")}
		}
	}
	if strings.ContainsAny(c.Display, " \t\n") {
		return &ValidationError{Path: "display", Err: fmt.Errorf("display must not contain whitespace")}
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
