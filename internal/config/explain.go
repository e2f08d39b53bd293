package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths include:
//
//	display
//	wallpaper
//	logging.level
//	limits.max_windows
//	touch.reference_output
//	ipc.enabled
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	unknown := fmt.Errorf("unknown path: %s", path)

	switch parts[0] {
	case "display":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.Display, nil
	case "wallpaper":
		if len(parts) != 1 {
			return nil, unknown
		}
		return cfg.Wallpaper, nil
	case "logging":
		if len(parts) == 1 {
			return cfg.Logging, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "level":
			return cfg.Logging.Level, nil
		case "file":
			return cfg.Logging.File, nil
		}
	case "limits":
		if len(parts) == 1 {
			return cfg.Limits, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "max_windows":
			return cfg.Limits.MaxWindows, nil
		case "max_monitors":
			return cfg.Limits.MaxMonitors, nil
		}
	case "touch":
		if len(parts) == 1 {
			return cfg.Touch, nil
		}
		if len(parts) != 2 {
			return nil, unknown
		}
		switch parts[1] {
		case "enabled":
			return cfg.Touch.Enabled, nil
		case "device_dir":
			return cfg.Touch.DeviceDir, nil
		case "reference_output":
			return cfg.Touch.ReferenceOutput, nil
		case "xinput_path":
			return cfg.Touch.XInputPath, nil
		}
	case "ipc":
		if len(parts) == 1 {
			return cfg.IPC, nil
		}
		if len(parts) == 2 && parts[1] == "enabled" {
			return cfg.IPC.Enabled, nil
		}
	}
	return nil, unknown
}
