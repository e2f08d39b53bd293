package config

import (
	"fmt"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BuildEffectiveConfig applies a merged raw config on top of the defaults.
func BuildEffectiveConfig(raw RawConfig) *Config {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.Wallpaper != nil {
		cfg.Wallpaper = *raw.Wallpaper
	}
	if raw.Logging != nil {
		cfg.Logging.Level = derefString(raw.Logging.Level, cfg.Logging.Level)
		cfg.Logging.File = derefString(raw.Logging.File, cfg.Logging.File)
	}
	if raw.Limits != nil {
		cfg.Limits.MaxWindows = derefInt(raw.Limits.MaxWindows, cfg.Limits.MaxWindows)
		cfg.Limits.MaxMonitors = derefInt(raw.Limits.MaxMonitors, cfg.Limits.MaxMonitors)
	}
	if raw.Touch != nil {
		cfg.Touch.Enabled = derefBool(raw.Touch.Enabled, cfg.Touch.Enabled)
		cfg.Touch.DeviceDir = derefString(raw.Touch.DeviceDir, cfg.Touch.DeviceDir)
		cfg.Touch.ReferenceOutput = derefString(raw.Touch.ReferenceOutput, cfg.Touch.ReferenceOutput)
		cfg.Touch.XInputPath = derefString(raw.Touch.XInputPath, cfg.Touch.XInputPath)
	}
	if raw.IPC != nil {
		cfg.IPC.Enabled = derefBool(raw.IPC.Enabled, cfg.IPC.Enabled)
	}

	return cfg
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
