package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/touch"
	"github.com/1broseidon/spanwm/internal/wm"
)

const requestTimeout = 5 * time.Second

// Controller is the window manager surface the server reports on.
type Controller interface {
	Snapshot(ctx context.Context) (wm.State, error)
	RefreshTouch(ctx context.Context) (touch.SyncResult, error)
}

// ReloadFunc re-reads configuration and applies it.
type ReloadFunc func(ctx context.Context) error

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	ctrl       Controller
	reload     ReloadFunc
	log        zerolog.Logger
	startTime  time.Time

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new IPC server listening on socketPath once served.
func NewServer(socketPath string, ctrl Controller, reload ReloadFunc, log zerolog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		reload:     reload,
		log:        log.With().Str("component", "ipc").Logger(),
		startTime:  time.Now(),
	}
}

// Serve listens until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	// Remove a stale socket from a previous run.
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	defer os.Remove(s.socketPath)

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Info().Str("socket", s.socketPath).Msg("IPC server listening")

	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("IPC listener closed: %w", err)
			}
			s.log.Warn().Err(err).Msg("IPC accept error")
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

// Addr returns the socket path while the server is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.socketPath
}

func (s *Server) String() string { return "ipc-server" }

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn().Err(err).Msg("IPC read error")
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	s.sendResponse(conn, s.handleCommand(ctx, req))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.log.Debug().Str("command", string(req.Command)).Msg("IPC request")

	switch req.Command {
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return s.handleSnapshot(ctx, func(st wm.State) any {
			return NewStatusData(st, int64(time.Since(s.startTime).Seconds()))
		})
	case CommandGetMonitors:
		return s.handleSnapshot(ctx, func(st wm.State) any { return NewMonitorsData(st) })
	case CommandGetWindows:
		return s.handleSnapshot(ctx, func(st wm.State) any { return NewWindowsData(st) })
	case CommandRefreshTouch:
		return s.handleRefreshTouch(ctx)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload(ctx context.Context) *Response {
	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(ctx); err != nil {
		s.log.Error().Err(err).Msg("IPC reload failed")
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.log.Info().Msg("config reloaded via IPC")
	return s.ok(nil)
}

func (s *Server) handleSnapshot(ctx context.Context, build func(wm.State) any) *Response {
	st, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to read state: %v", err))
	}
	return s.ok(build(st))
}

func (s *Server) handleRefreshTouch(ctx context.Context) *Response {
	res, err := s.ctrl.RefreshTouch(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to refresh touch: %v", err))
	}
	return s.ok(res)
}

func (s *Server) ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendResponse(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal response")
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.log.Warn().Err(err).Msg("failed to send response")
	}
}
