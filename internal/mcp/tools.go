package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/spanwm/internal/ipc"
	"github.com/1broseidon/spanwm/internal/touch"
)

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetStatusInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, fmt.Errorf("get_status: %w", err)
	}
	return nil, *status, nil
}

func (s *Server) handleListMonitors(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListMonitorsInput) (*mcpsdk.CallToolResult, ipc.MonitorsData, error) {
	monitors, err := s.daemon.GetMonitors()
	if err != nil {
		return nil, ipc.MonitorsData{}, fmt.Errorf("list_monitors: %w", err)
	}
	if monitors.Monitors == nil {
		monitors.Monitors = []ipc.MonitorInfo{}
	}
	return nil, *monitors, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.daemon.GetWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list_windows: %w", err)
	}

	out := ListWindowsOutput{
		Active:     windows.Active,
		Focus:      nonNil(windows.Focus),
		Above:      nonNil(windows.Above),
		Fullscreen: windows.Fullscreen,
	}
	if out.Fullscreen == nil {
		out.Fullscreen = []ipc.FullscreenInfo{}
	}
	if args.FullscreenOnly {
		out.Focus = []string{}
		out.Above = []string{}
	}
	return nil, out, nil
}

func (s *Server) handleRefreshTouch(_ context.Context, _ *mcpsdk.CallToolRequest, _ RefreshTouchInput) (*mcpsdk.CallToolResult, touch.SyncResult, error) {
	res, err := s.daemon.RefreshTouch()
	if err != nil {
		return nil, touch.SyncResult{}, fmt.Errorf("refresh_touch: %w", err)
	}
	return nil, *res, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
