// Package mcp exposes the running window manager's state as MCP tools over
// stdio. Every tool is a thin wrapper over one IPC request.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/spanwm/internal/ipc"
	"github.com/1broseidon/spanwm/internal/touch"
)

const (
	ServerName    = "spanwm"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools read from.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	GetWindows() (*ipc.WindowsData, error)
	RefreshTouch() (*touch.SyncResult, error)
}

// Server is the MCP server for spanwm introspection.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
}

// NewServer creates a new MCP server backed by the daemon's IPC socket.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report whether the spanwm daemon is running, its uptime, window and monitor counts, the wallpaper path and the last touchscreen sync.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_monitors",
		Description: "List active monitors in index order with their position, size and rotation. Monitor indices are the ones _NET_WM_FULLSCREEN_MONITORS refers to.",
	}, s.handleListMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List managed windows: the focus history (most recent first), the always-on-top set and fullscreen windows with their mode, span and original geometry.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "refresh_touch",
		Description: "Re-apply the touchscreen coordinate transform for the current rotation and report how many devices were updated.",
	}, s.handleRefreshTouch)
}
