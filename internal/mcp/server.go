// Package mcp exposes the OpenAlex and Zotero clients as Model Context
// Protocol tools. Tools are generated from the endpoint table, so every
// collection gets list, get and autocomplete tools according to its
// capabilities.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/papers-cli/papers/internal/constants"
	"github.com/papers-cli/papers/internal/selection"
	"github.com/papers-cli/papers/pkg/papers"
)

// ServerName is reported to MCP clients.
const ServerName = "papers"

// Server holds the clients tools call into.
type Server struct {
	openalex   papers.OpenAlexClient
	zotero     papers.ZoteroClient
	selections *selection.Store
	logger     papers.Logger
	version    string
	pageSize   int
}

// Option configures a Server.
type Option func(*Server)

// WithZotero adds the Zotero tools.
func WithZotero(zotero papers.ZoteroClient) Option {
	return func(s *Server) {
		s.zotero = zotero
	}
}

// WithLogger logs every tool call at debug level and failures at warn level.
func WithLogger(logger papers.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// WithPageSize sets the default page size of list tools.
func WithPageSize(pageSize int) Option {
	return func(s *Server) {
		if pageSize > 0 {
			s.pageSize = pageSize
		}
	}
}

// NewServer creates a tool server backed by openalex.
func NewServer(openalex papers.OpenAlexClient, opts ...Option) *Server {
	s := &Server{
		openalex: openalex,
		version:  "dev",
		pageSize: constants.MCPDefaultPageSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Tools returns every tool with its handler.
func (s *Server) Tools() []server.ServerTool {
	var tools []server.ServerTool

	for _, endpoint := range papers.OpenAlexEndpoints() {
		tools = append(tools, s.entityTools(endpoint)...)
	}

	tools = append(tools, server.ServerTool{Tool: findWorksTool(), Handler: s.handleFindWorks})

	if s.zotero != nil {
		tools = append(tools, s.zoteroTools()...)
	}

	if s.selections != nil {
		tools = append(tools, s.selectionTools()...)
	}

	return tools
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer(ServerName, s.version, server.WithToolCapabilities(true))
	srv.AddTools(s.Tools()...)

	return srv
}

// ServeStdio serves MCP over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		return fmt.Errorf("serving stdio: %w", err)
	}

	return nil
}

// NewSSEServer returns an SSE transport for the tool server.
func (s *Server) NewSSEServer(baseURL string) *server.SSEServer {
	return server.NewSSEServer(s.MCPServer(), server.WithBaseURL(baseURL), server.WithKeepAlive(true))
}

// result turns a client outcome into a tool result. Pipeline errors are
// reported to the model as tool errors rather than protocol failures.
func (s *Server) result(tool string, value interface{}, fallback string, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("tool call failed", map[string]interface{}{"tool": tool, "error": err.Error()})
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.logger != nil {
		s.logger.Debug("tool call", map[string]interface{}{"tool": tool})
	}

	return mcp.NewToolResultStructured(value, fallback), nil
}
