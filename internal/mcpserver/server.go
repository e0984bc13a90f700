// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the notebook to LLM tooling via stdio transport. All tools are
// read-only: agents observe the session, they never mutate it.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/raido/internal/index"
	"github.com/starford/raido/internal/session"
)

// Server wraps the MCP server with Raido tools.
type Server struct {
	mcp  *server.MCPServer
	sess *session.Session
	db   *index.DB
}

// New creates a new MCP server with all Raido tools registered.
func New(sess *session.Session, db *index.DB) *Server {
	s := &Server{sess: sess, db: db}

	s.mcp = server.NewMCPServer(
		"Raido",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List all notebook items with their type and open-window state."),
	), s.listItems)

	s.mcp.AddTool(mcp.NewTool("read_item",
		mcp.WithDescription("Read the current text of a notebook item (live text when its window is open)."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Item name, e.g. 'Console 1'")),
	), s.readItem)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Full-text search through item content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Report the session state: notebook path, dirty and untitled flags, open windows."),
	), s.sessionStatus)

	// Resource: item format contract.
	s.mcp.AddResource(
		mcp.NewResource("raido://item-format", "Item Format Contract",
			mcp.WithResourceDescription("The three notebook item types and their text conventions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readItemFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listItems(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items := s.sess.Items()
	var lines []string
	for _, it := range items {
		state := "closed"
		if it.Open {
			state = "open"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", it.Name, it.Type, state))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("notebook is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := s.sess.ItemText(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) searchItems(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) sessionStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.sess.Status(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readItemFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "raido://item-format",
			MIMEType: "text/markdown",
			Text:     ItemFormatContract,
		},
	}, nil
}
