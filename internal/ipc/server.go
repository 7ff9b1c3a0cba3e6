package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/taskbarwidget/internal/platform"
	"github.com/1broseidon/taskbarwidget/internal/runtimepath"
	"github.com/1broseidon/taskbarwidget/internal/widget"
)

const requestTimeout = 5 * time.Second

// Backend is the daemon side of the control socket. Implementations run each
// call on the widget's execution context.
type Backend interface {
	UpdateContent(ctx context.Context, c widget.Content) error
	UpdateTimeline(ctx context.Context, tl widget.Timeline) error
	Status(ctx context.Context) (widget.Status, error)
	Reload(ctx context.Context) error
	// Monitors returns the enumeration and the configured selection index.
	Monitors(ctx context.Context) ([]platform.Monitor, int, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	backend      Backend
	startTime    time.Time
	now          func() time.Time
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
	wg           sync.WaitGroup
}

// NewServer creates a new IPC server. An empty socketPath uses the runtime
// directory default.
func NewServer(socketPath string, backend Backend, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		backend:    backend,
		startTime:  time.Now(),
		now:        time.Now,
		logger:     logger.With("component", "ipc"),
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "path", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection serves one JSON line request and closes the connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * requestTimeout))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.writeResponse(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s.writeResponse(conn, s.handleCommand(ctx, req))
}

func (s *Server) writeResponse(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandUpdateContent:
		return s.handleUpdateContent(ctx, req.Payload)
	case CommandUpdateTimeline:
		return s.handleUpdateTimeline(ctx, req.Payload)
	case CommandReload:
		return s.handleReload(ctx)
	case CommandGetStatus:
		return s.handleGetStatus(ctx)
	case CommandGetMonitors:
		return s.handleGetMonitors(ctx)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func validStatus(st widget.PlaybackStatus) bool {
	switch st {
	case widget.StatusClosed, widget.StatusOpened, widget.StatusChanging,
		widget.StatusStopped, widget.StatusPlaying, widget.StatusPaused:
		return true
	}
	return false
}

func (s *Server) handleUpdateContent(ctx context.Context, payload json.RawMessage) *Response {
	var p ContentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid content payload: %v", err))
	}
	if !validStatus(p.Status) {
		return NewErrorResponse(fmt.Sprintf("Unknown playback status: %q", p.Status))
	}
	if p.Timeline != nil && (p.Timeline.PositionMS < 0 || p.Timeline.DurationMS < 0) {
		return NewErrorResponse("timeline values must be >= 0")
	}

	if err := s.backend.UpdateContent(ctx, p.Content(s.now())); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to update content: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleUpdateTimeline(ctx context.Context, payload json.RawMessage) *Response {
	var p TimelinePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid timeline payload: %v", err))
	}
	if p.PositionMS < 0 || p.DurationMS < 0 {
		return NewErrorResponse("timeline values must be >= 0")
	}

	if err := s.backend.UpdateTimeline(ctx, p.Timeline(s.now())); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to update timeline: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleReload(ctx context.Context) *Response {
	s.logger.Info("received RELOAD command")
	if err := s.backend.Reload(ctx); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus(ctx context.Context) *Response {
	st, err := s.backend.Status(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get status: %v", err))
	}
	resp, err := NewOKResponse(StatusData{
		Status:        st,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetMonitors(ctx context.Context) *Response {
	monitors, selected, err := s.backend.Monitors(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}
	resp, err := NewOKResponse(NewMonitorsData(monitors, selected))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
		s.wg.Wait()
	}
	os.Remove(s.socketPath)
}
