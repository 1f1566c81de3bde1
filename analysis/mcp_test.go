package analysis

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testMCPImpl = &mcp.Implementation{Name: "veridict-test", Version: "0.1.0"}

func mcpSession(t *testing.T, a *Analyzer) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testMCPImpl, nil)
	a.RegisterMCP(srv)

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
		t.Fatalf("call %s: %v", name, err)
	}
	if result.IsError {
		t.Fatalf("call %s: tool error: %+v", name, result.Content)
	}
	txt, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("call %s: unexpected content %T", name, result.Content[0])
	}
	return txt.Text
}

func TestMCPAnalyzeText(t *testing.T) {
	// WHAT: The analyze_text tool returns the same envelope as the HTTP path.
	// WHY: Agent clients and HTTP clients must see one contract.
	inv := &recordingInvoker{}
	session := mcpSession(t, newTestAnalyzer(inv))

	out := mcpCallTool(t, session, "analyze_text", map[string]any{
		"content": "act now to claim your free prize",
	})

	var res map[string]any
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["type"] != "text" {
		t.Errorf("type: %v", res["type"])
	}
	if res["judgement"] == nil {
		t.Error("judgement missing")
	}
	if inv.calls != 1 {
		t.Errorf("provider calls: %d", inv.calls)
	}
}

func TestMCPAnalyzeURL_Invalid(t *testing.T) {
	// WHAT: An invalid URL comes back as an error envelope, not a tool error.
	// WHY: Analysis diagnostics are data, reserved tool errors are transport.
	session := mcpSession(t, newTestAnalyzer(&recordingInvoker{}))

	out := mcpCallTool(t, session, "analyze_url", map[string]any{
		"url": "https:///nothing",
	})
	if !strings.Contains(out, "no domain found") {
		t.Errorf("output: %s", out)
	}
}

func TestMCPToolList(t *testing.T) {
	// WHAT: Both tools are listed on the server.
	// WHY: Clients discover capabilities through tools/list.
	session := mcpSession(t, newTestAnalyzer(&recordingInvoker{}))

	tools, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	names := map[string]bool{}
	for _, tl := range tools.Tools {
		names[tl.Name] = true
	}
	if !names["analyze_text"] || !names["analyze_url"] {
		t.Errorf("tools: %v", names)
	}
}
