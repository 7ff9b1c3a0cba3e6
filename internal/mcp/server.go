// Package mcp exposes the running widget as MCP tools over the daemon's
// control socket.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/taskbarwidget/internal/ipc"
)

const (
	ServerName    = "taskbarwidget"
	ServerVersion = "0.1.0"
)

// Controller is the daemon control surface. *ipc.Client implements it.
type Controller interface {
	UpdateContent(p ipc.ContentPayload) error
	UpdateTimeline(p ipc.TimelinePayload) error
	Reload() error
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
}

var _ Controller = (*ipc.Client)(nil)

// Server is the MCP server for the taskbar widget.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
}

// NewServer creates a new MCP server that forwards to ctl. A nil ctl uses
// the default control socket.
func NewServer(ctl Controller) *Server {
	if ctl == nil {
		ctl = ipc.NewClient()
	}
	s := &Server{ctl: ctl}
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
		Name:        "widget_status",
		Description: "Report the taskbar widget's state: whether it is embedded and visible, which taskbar hosts it, the current track and the surface recovery counters.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "widget_monitors",
		Description: "List monitors in the order the widget.monitor setting indexes them.",
	}, s.handleMonitors)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "widget_update_content",
		Description: "Push the now-playing track to the widget. Use title and artist \"-\" to signal that nothing is playing. Any status other than playing shows the widget as paused.",
	}, s.handleUpdateContent)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "widget_update_timeline",
		Description: "Refresh only the playback position. The readout is shown when show_time is enabled and the duration is at least one second.",
	}, s.handleUpdateTimeline)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "widget_reload",
		Description: "Re-read the widget config file. Invalid files are rejected and the running settings are kept.",
	}, s.handleReload)
}
