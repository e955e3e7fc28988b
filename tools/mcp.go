package tools

import (
	"context"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teranos/smolassistant/logger"
	"github.com/teranos/smolassistant/version"
)

// ServerName identifies this server to MCP clients
const ServerName = "smolassistant"

// MCPServer exposes the reminder and history tools via Model Context Protocol
type MCPServer struct {
	reminders *Reminders
	history   *History
	server    *server.MCPServer
	log       *zap.SugaredLogger
}

// NewMCPServer creates an MCP server with all tools registered
func NewMCPServer(reminders *Reminders, hist *History, log *zap.SugaredLogger) *MCPServer {
	if log == nil {
		log = logger.Logger
	}

	s := &MCPServer{
		reminders: reminders,
		history:   hist,
		log:       log,
	}

	// Create MCP server with tool and logging capabilities
	s.server = server.NewMCPServer(
		ServerName,
		version.Short(),
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	s.registerTools()
	return s
}

// Server returns the underlying mcp-go server
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// registerTools registers all MCP tools
func (s *MCPServer) registerTools() {
	setReminderTool := mcp.NewTool("set_reminder",
		mcp.WithDescription("Set a one-time reminder for a specific future time. "+
			"All reminders are routed back to the agent, which decides whether to notify the user."),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The reminder message, including its target (the user or the agent)"),
		),
		mcp.WithString("due_time",
			mcp.Required(),
			mcp.Description("When the reminder should trigger, in ISO format (YYYY-MM-DD HH:MM:SS), optionally with a +HH:MM or -HH:MM offset"),
		),
	)
	s.server.AddTool(setReminderTool, s.handleSetReminder)

	setRecurringTool := mcp.NewTool("set_recurring_reminder",
		mcp.WithDescription("Set a reminder that repeats based on the specified interval and time"),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The reminder message, including its target (the user or the agent)"),
		),
		mcp.WithString("interval",
			mcp.Required(),
			mcp.Description("'second', 'minute', 'hour', 'day', a weekday such as 'monday', or 'X seconds|minutes|hours|days|weeks'"),
		),
		mcp.WithString("time_spec",
			mcp.Description("'HH:MM' for day and weekdays, ':MM' for hour, ':SS' for minute; leave empty otherwise"),
		),
	)
	s.server.AddTool(setRecurringTool, s.handleSetRecurringReminder)

	getRemindersTool := mcp.NewTool("get_reminders",
		mcp.WithDescription("Get all pending reminders"),
	)
	s.server.AddTool(getRemindersTool, s.handleGetReminders)

	cancelTool := mcp.NewTool("cancel_reminder",
		mcp.WithDescription("Cancel a reminder by its ID"),
		mcp.WithString("reminder_id",
			mcp.Required(),
			mcp.Description("The ID of the reminder to cancel"),
		),
	)
	s.server.AddTool(cancelTool, s.handleCancelReminder)

	historyTool := mcp.NewTool("get_message_history",
		mcp.WithDescription("Get the history of recent messages between you and the user"),
	)
	s.server.AddTool(historyTool, s.handleGetMessageHistory)
}

// handleSetReminder handles set_reminder tool calls
func (s *MCPServer) handleSetReminder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	dueTime, err := request.RequireString("due_time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.reminders.SetReminder(ctx, message, dueTime)), nil
}

// handleSetRecurringReminder handles set_recurring_reminder tool calls
func (s *MCPServer) handleSetRecurringReminder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	iv, err := request.RequireString("interval")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	timeSpec := request.GetString("time_spec", "")

	return mcp.NewToolResultText(s.reminders.SetRecurringReminder(ctx, message, iv, timeSpec)), nil
}

// handleGetReminders handles get_reminders tool calls
func (s *MCPServer) handleGetReminders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.reminders.GetReminders()), nil
}

// handleCancelReminder handles cancel_reminder tool calls
func (s *MCPServer) handleCancelReminder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("reminder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.reminders.CancelReminder(ctx, id)), nil
}

// handleGetMessageHistory handles get_message_history tool calls
func (s *MCPServer) handleGetMessageHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.history.GetMessageHistory()), nil
}

// Notify forwards a delivered reminder to every connected client as a log
// notification, which is how the agent on the other end learns it fired.
func (s *MCPServer) Notify(text string) {
	s.server.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  "info",
		"logger": ServerName,
		"data":   text,
	})
}

// Serve speaks MCP over in/out until ctx is cancelled or in reaches EOF
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.server)
	stdio.SetErrorLogger(zap.NewStdLog(s.log.Desugar()))

	s.log.Infow("MCP server listening on stdio", "name", ServerName, "version", version.Short())
	return stdio.Listen(ctx, in, out)
}
