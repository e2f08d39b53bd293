package mcp

import "github.com/1broseidon/spanwm/internal/ipc"

// GetStatusInput is the input for the get_status tool.
type GetStatusInput struct{}

// ListMonitorsInput is the input for the list_monitors tool.
type ListMonitorsInput struct{}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	FullscreenOnly bool `json:"fullscreen_only,omitempty" jsonschema:"When true, return only fullscreen-managed windows"`
}

// RefreshTouchInput is the input for the refresh_touch tool.
type RefreshTouchInput struct{}

// ListWindowsOutput mirrors the daemon's window registries.
type ListWindowsOutput struct {
	Active     string               `json:"active,omitempty"`
	Focus      []string             `json:"focus"`
	Above      []string             `json:"above"`
	Fullscreen []ipc.FullscreenInfo `json:"fullscreen"`
}
