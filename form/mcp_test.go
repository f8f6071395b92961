package form_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/formgrid/formgrid/form"
)

var testMCPImpl = &mcp.Implementation{Name: "formgrid-test", Version: "0.1.0"}

func mcpSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	svc := newTestService(t)
	srv := mcp.NewServer(testMCPImpl, nil)
	svc.RegisterMCP(srv)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	client := mcp.NewClient(testMCPImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func mcpCallTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if result.IsError {
		t.Fatalf("CallTool(%s) tool error: %+v", name, result.Content)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text
}

func TestMCP_IngestAndRetrieve(t *testing.T) {
	session := mcpSession(t)

	path := filepath.Join(t.TempDir(), "syllabus.html")
	if err := os.WriteFile(path, []byte(syllabusHTML), 0o644); err != nil {
		t.Fatal(err)
	}

	text := mcpCallTool(t, session, "formgrid_ingest", map[string]any{
		"path":          path,
		"kind":          "word-processor",
		"template_name": "course guide",
	})
	var ingest form.IngestResult
	if err := json.Unmarshal([]byte(text), &ingest); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ingest.DocumentID == "" || ingest.TemplateID == "" {
		t.Fatalf("ingest = %+v", ingest)
	}
	if len(ingest.Sections) != 2 {
		t.Errorf("expected 2 sections, got %+v", ingest.Sections)
	}

	text = mcpCallTool(t, session, "formgrid_retrieve", map[string]any{
		"document_id": ingest.DocumentID,
	})
	var doc form.RetrieveResult
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !doc.HasRelationalContent || len(doc.Sections) != 2 {
		t.Errorf("retrieve = %+v", doc)
	}
}

func TestMCP_Rules(t *testing.T) {
	session := mcpSession(t)

	text := mcpCallTool(t, session, "formgrid_rules", map[string]any{})

	var rules []form.RuleView
	if err := json.Unmarshal([]byte(text), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rules) == 0 {
		t.Error("expected rules")
	}
}

func TestMCP_RetrieveUnknown(t *testing.T) {
	session := mcpSession(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "formgrid_retrieve",
		Arguments: map[string]any{"document_id": "doc_none"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for unknown document")
	}
}
