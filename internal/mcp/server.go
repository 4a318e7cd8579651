// ABOUTME: MCP server initialization and configuration for postbox.
// ABOUTME: Sets up server with post feed tools for AI agent access.
package mcp

import (
	"context"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/postbox/internal/feed"
)

// Server wraps the MCP server with a post feed session.
type Server struct {
	mcp    *gomcp.Server
	state  *feed.PostsState
	logger *slog.Logger
}

// ServerOption configures optional Server dependencies.
type ServerOption func(*Server)

// WithLogger sets the logger used for tool calls.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server exposing the feed held by state.
func NewServer(state *feed.PostsState, opts ...ServerOption) (*Server, error) {
	if state == nil {
		return nil, fmt.Errorf("posts state is required")
	}

	mcpServer := gomcp.NewServer(
		&gomcp.Implementation{
			Name:    "postbox",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcp:    mcpServer,
		state:  state,
		logger: slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.registerPostTools()

	return s, nil
}

// Serve starts the MCP server in stdio mode.
func (s *Server) Serve(ctx context.Context) error {
	return s.mcp.Run(ctx, &gomcp.StdioTransport{})
}
