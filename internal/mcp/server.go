// Package mcp exposes the hover daemon to MCP clients over stdio.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jcdickinson/ferrishover/internal/daemon"
	"github.com/jcdickinson/ferrishover/internal/rpc"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	client    *daemon.Client
}

func NewServer(socketPath string) (*Server, error) {
	client, err := daemon.ConnectOrSpawn(socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}

	s := &Server{client: client}

	mcpServer := server.NewMCPServer(
		"ferrishover",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("add_crates",
			mcp.WithDescription("Fetch, parse, and index Rust crate documentation from docs.rs. Synchronous — returns when complete. Version defaults to \"latest\"."),
			addCratesSchema,
		),
		s.handleAddCrates,
	)

	mcpServer.AddTool(
		mcp.NewTool("hover",
			mcp.WithDescription("Render hover documentation (signature plus doc comment, HTML) for a fully-qualified Rust item path."),
			itemArgs,
		),
		s.handleHover,
	)

	mcpServer.AddTool(
		mcp.NewTool("quick_nav",
			mcp.WithDescription("One-line quick-navigation summary for a fully-qualified Rust item path."),
			itemArgs,
		),
		s.handleNav,
	)

	mcpServer.AddTool(
		mcp.NewTool("doc_urls",
			mcp.WithDescription("Validated external documentation URLs (doc.rust-lang.org / docs.rs) for a fully-qualified Rust item path."),
			itemArgs,
		),
		s.handleURLs,
	)

	mcpServer.AddTool(
		mcp.NewTool("resolve_link",
			mcp.WithDescription("Resolve an intra-doc reference (e.g. \"Vec\", \"crate::module::Item\") to its canonical item path."),
			mcp.WithString("crate",
				mcp.Description("Crate to resolve within"),
				mcp.Required(),
			),
			mcp.WithString("reference",
				mcp.Description("The reference text to resolve"),
				mcp.Required(),
			),
			mcp.WithString("context",
				mcp.Description("Optional path of the item the reference appears on"),
			),
			mcp.WithString("version",
				mcp.Description("Version (default: \"latest\")"),
			),
		),
		s.handleResolve,
	)

	mcpServer.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("List indexed crates with version and item counts."),
		),
		s.handleStatus,
	)
}

func addCratesSchema(t *mcp.Tool) {
	t.InputSchema.Required = append(t.InputSchema.Required, "crates")
	t.InputSchema.Properties["crates"] = map[string]any{
		"type":        "array",
		"description": "List of crates to index",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{
					"type":        "string",
					"description": "Crate name (e.g., \"serde\")",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version (default: \"latest\")",
				},
			},
			"required": []string{"name"},
		},
	}
}

// itemArgs is the shared crate/path/version argument set for item queries.
func itemArgs(t *mcp.Tool) {
	mcp.WithString("crate",
		mcp.Description("Crate the item lives in"),
		mcp.Required(),
	)(t)
	mcp.WithString("path",
		mcp.Description("Fully-qualified item path (e.g. \"serde::Deserialize\")"),
		mcp.Required(),
	)(t)
	mcp.WithString("version",
		mcp.Description("Version (default: \"latest\")"),
	)(t)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"rsdoc://{crate}/{version}/{path}",
			"Rust hover documentation",
			mcp.WithTemplateDescription("Read the rendered hover documentation for a specific Rust item."),
			mcp.WithTemplateMIMEType("text/html"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleAddCrates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	cratesRaw, ok := args["crates"]
	if !ok {
		return mcp.NewToolResultError("missing required parameter: crates"), nil
	}

	cratesJSON, err := json.Marshal(cratesRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates parameter: %v", err)), nil
	}

	var specs []rpc.CrateSpec
	if err := json.Unmarshal(cratesJSON, &specs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid crates format: %v", err)), nil
	}

	resp, err := s.client.AddCrates(ctx, specs, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add crates: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(resp.Results, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func itemRequest(req mcp.CallToolRequest) (rpc.HoverRequest, error) {
	args := req.GetArguments()
	crate, _ := args["crate"].(string)
	path, _ := args["path"].(string)
	if crate == "" || path == "" {
		return rpc.HoverRequest{}, fmt.Errorf("missing required parameters: crate, path")
	}
	version, _ := args["version"].(string)
	return rpc.HoverRequest{Crate: crate, Version: version, Path: path}, nil
}

func (s *Server) handleHover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hreq, err := itemRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.client.Hover(ctx, hreq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("hover failed: %v", err)), nil
	}
	if !resp.Found {
		return mcp.NewToolResultText("no hover documentation for " + hreq.Path), nil
	}
	return mcp.NewToolResultText(resp.HTML), nil
}

func (s *Server) handleNav(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hreq, err := itemRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.client.Nav(ctx, hreq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("quick-nav failed: %v", err)), nil
	}
	if !resp.Found {
		return mcp.NewToolResultText("no summary for " + hreq.Path), nil
	}
	return mcp.NewToolResultText(resp.Summary), nil
}

func (s *Server) handleURLs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hreq, err := itemRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.client.URLs(ctx, hreq)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("doc-urls failed: %v", err)), nil
	}
	if len(resp.URLs) == 0 {
		return mcp.NewToolResultText("no reachable documentation URLs for " + hreq.Path), nil
	}
	return mcp.NewToolResultText(strings.Join(resp.URLs, "\n")), nil
}

func (s *Server) handleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	crate, _ := args["crate"].(string)
	reference, _ := args["reference"].(string)
	if crate == "" || reference == "" {
		return mcp.NewToolResultError("missing required parameters: crate, reference"), nil
	}
	version, _ := args["version"].(string)
	context_, _ := args["context"].(string)

	resp, err := s.client.Resolve(ctx, rpc.ResolveRequest{
		Crate:     crate,
		Version:   version,
		Reference: reference,
		Context:   context_,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolve failed: %v", err)), nil
	}
	if !resp.Found {
		return mcp.NewToolResultText("unresolved: " + reference), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s", resp.Kind, resp.Path)), nil
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.client.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("status failed: %v", err)), nil
	}
	resultJSON, _ := json.MarshalIndent(resp.Crates, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "rsdoc://")
	parts := strings.SplitN(trimmed, "/", 3)
	if len(parts) < 3 {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	resp, err := s.client.Hover(ctx, rpc.HoverRequest{
		Crate:   parts[0],
		Version: parts[1],
		Path:    parts[2],
	})
	if err != nil {
		return nil, fmt.Errorf("getting hover doc: %w", err)
	}
	if !resp.Found {
		return nil, fmt.Errorf("no documentation for %s", parts[2])
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/html",
			Text:     resp.HTML,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
