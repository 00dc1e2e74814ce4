// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the configured storage backend as tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/checksum"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// Server wraps the MCP server with storage tools.
type Server struct {
	mcp     *server.MCPServer
	backend storage.Backend
	notify  func(kind, path string)
}

// Option configures a Server.
type Option func(*Server)

// WithNotify registers a callback invoked after every successful write.
func WithNotify(fn func(kind, path string)) Option {
	return func(s *Server) { s.notify = fn }
}

// New creates a new MCP server with all storage tools registered.
func New(backend storage.Backend, opts ...Option) *Server {
	s := &Server{backend: backend}
	for _, o := range opts {
		o(s)
	}

	s.mcp = server.NewMCPServer(
		"filedock",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_folder",
		mcp.WithDescription("List the entries of a folder in the "+storage.Describe(backend)+" storage. "+
			"Entries keep the backend's order; hierarchical backends start non-root listings with \"..\"."),
		mcp.WithString("path", mcp.Description("Folder path such as /docs (empty for the root)")),
	), s.listFolder)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read the full text content of a file."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path such as /docs/b.txt")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("write_file",
		mcp.WithDescription("Create or overwrite a file. The parent folder must already exist. "+
			"Read the path rules first via get_path_contract or the filedock://path-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path such as /docs/b.txt")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full text content")),
	), s.writeFile)

	s.mcp.AddTool(mcp.NewTool("get_path_contract",
		mcp.WithDescription("Returns the path rules every storage backend enforces."),
	), s.getPathContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Path Format Contract",
			mcp.WithResourceDescription("Rules for paths accepted by the storage tools."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPathContractResource,
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

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", apperr.Kind(err), err))
}

func (s *Server) listFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := models.ParsePath(req.GetString("path", ""))
	if err := s.backend.GetAccess(ctx); err != nil {
		return toolError(err), nil
	}
	entries, err := s.backend.ReadFolder(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	data, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.backend.GetAccess(ctx); err != nil {
		return toolError(err), nil
	}
	content, err := s.backend.ReadFile(ctx, models.ParsePath(raw))
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) writeFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := models.ParsePath(raw)
	if err := s.backend.GetAccess(ctx); err != nil {
		return toolError(err), nil
	}
	if err := s.backend.WriteFile(ctx, path, content); err != nil {
		return toolError(err), nil
	}
	if s.notify != nil {
		s.notify("updated", path.String())
	}
	return mcp.NewToolResultText(fmt.Sprintf("written: %s (%s)", path, checksum.Of(content))), nil
}

func (s *Server) getPathContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PathContract), nil
}

func (s *Server) readPathContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     PathContract,
		},
	}, nil
}
