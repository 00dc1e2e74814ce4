package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/testutil"
)

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_folder":
		result, err = srv.listFolder(ctx, req)
	case "read_file":
		result, err = srv.readFile(ctx, req)
	case "write_file":
		result, err = srv.writeFile(ctx, req)
	case "get_path_contract":
		result, err = srv.getPathContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestWriteAndReadFile(t *testing.T) {
	var notified []string
	srv := New(testutil.ScenarioTree(), WithNotify(func(kind, path string) {
		notified = append(notified, kind+":"+path)
	}))

	r := callTool(t, srv, "write_file", map[string]interface{}{
		"path":    "/docs/new.txt",
		"content": "line one\nline two",
	})
	if r.IsError || !strings.HasPrefix(resultText(r), "written: /docs/new.txt") {
		t.Fatalf("write result = %q", resultText(r))
	}
	if len(notified) != 1 || notified[0] != "updated:/docs/new.txt" {
		t.Errorf("notified = %v", notified)
	}

	r = callTool(t, srv, "read_file", map[string]interface{}{"path": "docs/new.txt"})
	if text := resultText(r); text != "line one\nline two" {
		t.Errorf("read result = %q", text)
	}
}

func TestListFolder(t *testing.T) {
	srv := New(testutil.ScenarioTree())

	r := callTool(t, srv, "list_folder", map[string]interface{}{})
	var root []models.Entry
	if err := json.Unmarshal([]byte(resultText(r)), &root); err != nil {
		t.Fatal(err)
	}
	if len(root) != 2 || root[0].Name != "a.txt" || root[1].Name != "docs" || !root[1].IsFolder() {
		t.Errorf("root = %+v", root)
	}

	r = callTool(t, srv, "list_folder", map[string]interface{}{"path": "/docs"})
	var docs []models.Entry
	if err := json.Unmarshal([]byte(resultText(r)), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].Name != models.ParentMarker || docs[1].Name != "b.txt" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestReadFileMissing(t *testing.T) {
	srv := New(testutil.ScenarioTree())
	r := callTool(t, srv, "read_file", map[string]interface{}{"path": "nope.txt"})
	if !r.IsError {
		t.Fatal("expected error for missing file")
	}
	if !strings.HasPrefix(resultText(r), "not_found:") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestFlatBackendRejectsFolders(t *testing.T) {
	srv := New(testutil.TestLocal(t))

	r := callTool(t, srv, "list_folder", map[string]interface{}{"path": "/docs"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "invalid_path:") {
		t.Errorf("list result = %q", resultText(r))
	}
	r = callTool(t, srv, "write_file", map[string]interface{}{"path": "/docs/x.txt", "content": "x"})
	if !r.IsError {
		t.Error("expected error for nested write on flat backend")
	}
}

func TestMissingArguments(t *testing.T) {
	srv := New(testutil.ScenarioTree())
	if r := callTool(t, srv, "read_file", map[string]interface{}{}); !r.IsError {
		t.Error("read_file without path should fail")
	}
	if r := callTool(t, srv, "write_file", map[string]interface{}{"path": "a.txt"}); !r.IsError {
		t.Error("write_file without content should fail")
	}
}

func TestPathContract(t *testing.T) {
	srv := New(testutil.ScenarioTree())
	r := callTool(t, srv, "get_path_contract", nil)
	if !strings.Contains(resultText(r), "Path Format Contract") {
		t.Errorf("contract = %q", resultText(r))
	}
}
