package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/spanwm/internal/fullscreen"
	"github.com/1broseidon/spanwm/internal/platform"
	"github.com/1broseidon/spanwm/internal/touch"
	"github.com/1broseidon/spanwm/internal/wm"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload       CommandType = "RELOAD"
	CommandGetStatus    CommandType = "GET_STATUS"
	CommandGetMonitors  CommandType = "GET_MONITORS"
	CommandGetWindows   CommandType = "GET_WINDOWS"
	CommandRefreshTouch CommandType = "REFRESH_TOUCH"
)

const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning  bool              `json:"daemon_running"`
	UptimeSeconds  int64             `json:"uptime_seconds"`
	ActiveWindow   string            `json:"active_window,omitempty"`
	Windows        int               `json:"windows"`
	Above          int               `json:"above"`
	Fullscreen     int               `json:"fullscreen"`
	Monitors       int               `json:"monitors"`
	ScreenWidth    int               `json:"screen_width"`
	ScreenHeight   int               `json:"screen_height"`
	Events         uint64            `json:"events"`
	Failures       uint64            `json:"failures"`
	Wallpaper      string            `json:"wallpaper,omitempty"`
	TouchEnabled   bool              `json:"touch_enabled"`
	TouchReference string            `json:"touch_reference,omitempty"`
	LastTouch      *touch.SyncResult `json:"last_touch,omitempty"`
}

// MonitorInfo represents information about a single monitor
type MonitorInfo struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Rotation int    `json:"rotation"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors     []MonitorInfo `json:"monitors"`
	ScreenWidth  int           `json:"screen_width"`
	ScreenHeight int           `json:"screen_height"`
}

type RectInfo struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FullscreenInfo describes one fullscreen-managed window. Span and Outputs
// are set for monitor-span windows only.
type FullscreenInfo struct {
	Window   string   `json:"window"`
	Mode     string   `json:"mode"`
	Original RectInfo `json:"original"`
	Span     []int    `json:"span,omitempty"`
	Outputs  []string `json:"outputs,omitempty"`
}

// WindowsData represents the data returned by GET_WINDOWS. Focus is
// ordered most recent first.
type WindowsData struct {
	Active     string           `json:"active,omitempty"`
	Focus      []string         `json:"focus"`
	Above      []string         `json:"above"`
	Fullscreen []FullscreenInfo `json:"fullscreen"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: StatusOK,
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: StatusError,
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func windowString(w platform.WindowID) string {
	if w == platform.None {
		return ""
	}
	return w.String()
}

func windowStrings(ws []platform.WindowID) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}

// NewStatusData summarizes a manager snapshot.
func NewStatusData(st wm.State, uptime int64) StatusData {
	return StatusData{
		DaemonRunning:  true,
		UptimeSeconds:  uptime,
		ActiveWindow:   windowString(st.Active),
		Windows:        len(st.Focus),
		Above:          len(st.Above),
		Fullscreen:     len(st.Fullscreen),
		Monitors:       len(st.Monitors),
		ScreenWidth:    st.Width,
		ScreenHeight:   st.Height,
		Events:         st.Events,
		Failures:       st.Failures,
		Wallpaper:      st.Settings.Wallpaper,
		TouchEnabled:   st.Settings.TouchEnabled,
		TouchReference: st.Settings.TouchReference,
		LastTouch:      st.LastTouch,
	}
}

func NewMonitorsData(st wm.State) MonitorsData {
	infos := make([]MonitorInfo, len(st.Monitors))
	for i, m := range st.Monitors {
		infos[i] = MonitorInfo{
			ID:       m.Index,
			Name:     m.Name,
			X:        m.X,
			Y:        m.Y,
			Width:    m.Width,
			Height:   m.Height,
			Rotation: int(m.Rotation),
		}
	}
	return MonitorsData{Monitors: infos, ScreenWidth: st.Width, ScreenHeight: st.Height}
}

func NewWindowsData(st wm.State) WindowsData {
	// Focus is stored bottom to top.
	focus := windowStrings(st.Focus)
	for i, j := 0, len(focus)-1; i < j; i, j = i+1, j-1 {
		focus[i], focus[j] = focus[j], focus[i]
	}

	fs := make([]FullscreenInfo, len(st.Fullscreen))
	for i, rec := range st.Fullscreen {
		info := FullscreenInfo{
			Window: rec.Window.String(),
			Mode:   rec.Mode.String(),
			Original: RectInfo{
				X: rec.Original.X, Y: rec.Original.Y,
				Width: rec.Original.Width, Height: rec.Original.Height,
			},
		}
		if rec.Mode == fullscreen.MonitorSpan {
			info.Span = []int{rec.Span.Top, rec.Span.Bottom, rec.Span.Left, rec.Span.Right}
			info.Outputs = append([]string(nil), rec.Outputs[:]...)
		}
		fs[i] = info
	}

	return WindowsData{
		Active:     windowString(st.Active),
		Focus:      focus,
		Above:      windowStrings(st.Above),
		Fullscreen: fs,
	}
}
