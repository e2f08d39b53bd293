package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawLoggingConfig struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type RawLimits struct {
	MaxWindows  *int `yaml:"max_windows"`
	MaxMonitors *int `yaml:"max_monitors"`
}

type RawTouchConfig struct {
	Enabled         *bool   `yaml:"enabled"`
	DeviceDir       *string `yaml:"device_dir"`
	ReferenceOutput *string `yaml:"reference_output"`
	XInputPath      *string `yaml:"xinput_path"`
}

type RawIPCConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// RawConfig is one file's view of the configuration. Nil fields were not
// set and leave the lower layer untouched.
type RawConfig struct {
	Include   IncludeList       `yaml:"include"`
	Display   *string           `yaml:"display"`
	Wallpaper *string           `yaml:"wallpaper"`
	Logging   *RawLoggingConfig `yaml:"logging"`
	Limits    *RawLimits        `yaml:"limits"`
	Touch     *RawTouchConfig   `yaml:"touch"`
	IPC       *RawIPCConfig     `yaml:"ipc"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.Wallpaper != nil {
		out.Wallpaper = overlay.Wallpaper
	}

	if overlay.Logging != nil {
		logging := RawLoggingConfig{}
		if out.Logging != nil {
			logging = *out.Logging
		}
		if overlay.Logging.Level != nil {
			logging.Level = overlay.Logging.Level
		}
		if overlay.Logging.File != nil {
			logging.File = overlay.Logging.File
		}
		out.Logging = &logging
	}

	if overlay.Limits != nil {
		limits := RawLimits{}
		if out.Limits != nil {
			limits = *out.Limits
		}
		if overlay.Limits.MaxWindows != nil {
			limits.MaxWindows = overlay.Limits.MaxWindows
		}
		if overlay.Limits.MaxMonitors != nil {
			limits.MaxMonitors = overlay.Limits.MaxMonitors
		}
		out.Limits = &limits
	}

	if overlay.Touch != nil {
		touch := RawTouchConfig{}
		if out.Touch != nil {
			touch = *out.Touch
		}
		if overlay.Touch.Enabled != nil {
			touch.Enabled = overlay.Touch.Enabled
		}
		if overlay.Touch.DeviceDir != nil {
			touch.DeviceDir = overlay.Touch.DeviceDir
		}
		if overlay.Touch.ReferenceOutput != nil {
			touch.ReferenceOutput = overlay.Touch.ReferenceOutput
		}
		if overlay.Touch.XInputPath != nil {
			touch.XInputPath = overlay.Touch.XInputPath
		}
		out.Touch = &touch
	}

	if overlay.IPC != nil {
		ipc := RawIPCConfig{}
		if out.IPC != nil {
			ipc = *out.IPC
		}
		if overlay.IPC.Enabled != nil {
			ipc.Enabled = overlay.IPC.Enabled
		}
		out.IPC = &ipc
	}

	return out
}
