package form

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/formgrid/formgrid/kit"
)

// RegisterMCP registers all formgrid tools on an MCP server.
func (svc *Service) RegisterMCP(srv *mcp.Server) {
	svc.registerIngest(srv)
	svc.registerRetrieve(srv)
	svc.registerRules(srv)
}

// toolMiddleware is the shared wrapper for every tool endpoint: panic
// containment (an escaped panic kills a stdio server with the process) and
// invocation logging tagged with the transport the call arrived on.
func toolMiddleware(logger *slog.Logger, name string) kit.Middleware {
	return kit.Chain(recoverCalls(logger, name), logCalls(logger, name))
}

func logCalls(logger *slog.Logger, name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			start := time.Now()
			out, err := next(ctx, req)
			if err != nil {
				logger.Warn("tool call failed",
					"tool", name,
					"transport", kit.GetTransport(ctx),
					"duration_ms", time.Since(start).Milliseconds(),
					"error", err)
				return out, err
			}
			logger.Info("tool call",
				"tool", name,
				"transport", kit.GetTransport(ctx),
				"duration_ms", time.Since(start).Milliseconds())
			return out, err
		}
	}
}

func recoverCalls(logger *slog.Logger, name string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (out any, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("tool call panicked", "tool", name, "panic", r)
					err = fmt.Errorf("%s: internal error", name)
				}
			}()
			return next(ctx, req)
		}
	}
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func (svc *Service) registerIngest(srv *mcp.Server) {
	type req struct {
		Path         string `json:"path"`
		Kind         string `json:"kind"`
		TemplateName string `json:"template_name"`
	}

	tool := &mcp.Tool{
		Name:        "formgrid_ingest",
		Description: "Ingest a document file: detect its sections, synthesize the template and store the decomposed content",
		InputSchema: inputSchema(map[string]any{
			"path":          map[string]any{"type": "string", "description": "Path to the document file"},
			"kind":          map[string]any{"type": "string", "description": "Document kind: spreadsheet, word-processor"},
			"template_name": map[string]any{"type": "string", "description": "Template name to synthesize under"},
		}, []string{"path", "kind", "template_name"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		buf, err := os.ReadFile(p.Path)
		if err != nil {
			return nil, err
		}
		return svc.Ingest(ctx, buf, filepath.Base(p.Path), p.Kind, p.TemplateName)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, toolMiddleware(svc.logger, tool.Name)(endpoint), decode)
}

func (svc *Service) registerRetrieve(srv *mcp.Server) {
	type req struct {
		DocumentID string `json:"document_id"`
	}

	tool := &mcp.Tool{
		Name:        "formgrid_retrieve",
		Description: "Retrieve an ingested document reassembled for display",
		InputSchema: inputSchema(map[string]any{
			"document_id": map[string]any{"type": "string", "description": "Document ID"},
		}, []string{"document_id"}),
	}

	endpoint := func(ctx context.Context, r any) (any, error) {
		p := r.(*req)
		return svc.Retrieve(ctx, p.DocumentID)
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, toolMiddleware(svc.logger, tool.Name)(endpoint), decode)
}

func (svc *Service) registerRules(srv *mcp.Server) {
	type req struct{}

	tool := &mcp.Tool{
		Name:        "formgrid_rules",
		Description: "List the active ordered section classification rules",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(_ context.Context, _ any) (any, error) {
		return svc.Rules(), nil
	}

	decode := func(r *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var p req
		if len(r.Params.Arguments) > 0 {
			if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
				return nil, err
			}
		}
		return &kit.MCPDecodeResult{Request: &p}, nil
	}

	kit.RegisterMCPTool(srv, tool, toolMiddleware(svc.logger, tool.Name)(endpoint), decode)
}
