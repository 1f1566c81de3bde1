package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the analyzer's tools on an MCP server, so agent
// clients can request judgements over the same pipeline as the HTTP API.
func (a *Analyzer) RegisterMCP(srv *mcp.Server) {
	a.registerTextTool(srv)
	a.registerURLTool(srv)
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

func toolResult(res Result) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(res)
	if err != nil {
		var out mcp.CallToolResult
		out.SetError(fmt.Errorf("marshal: %w", err))
		return &out, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

type textToolReq struct {
	Content string `json:"content"`
}

func (a *Analyzer) registerTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "analyze_text",
		Description: "Judge whether a piece of text is fake, spam, phishing, or AI-generated.",
		InputSchema: inputSchema(map[string]any{
			"content": map[string]any{"type": "string", "description": "Text to analyze"},
		}, []string{"content"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r textToolReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			var out mcp.CallToolResult
			out.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &out, nil
		}
		return toolResult(a.AnalyzeText(ctx, r.Content))
	})
}

type urlToolReq struct {
	URL string `json:"url"`
}

func (a *Analyzer) registerURLTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "analyze_url",
		Description: "Fetch a URL and judge whether its content is fake, spam, phishing, or AI-generated.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "URL to fetch and analyze"},
		}, []string{"url"}),
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r urlToolReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			var out mcp.CallToolResult
			out.SetError(fmt.Errorf("invalid arguments: %w", err))
			return &out, nil
		}
		return toolResult(a.AnalyzeURL(ctx, r.URL))
	})
}
