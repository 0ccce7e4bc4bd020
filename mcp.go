package copymd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/copymd/kit"
)

// RegisterMCP exposes the engine as MCP tools: copymd_convert_html and
// copymd_convert_url. Both return the Markdown as text.
func RegisterMCP(srv *mcp.Server, e *Engine, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	convert := e.ConvertEndpoint()
	markdownOnly := func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, req any) (any, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return nil, err
			}
			return resp.(*ConvertResponse).Markdown, nil
		}
	}

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name: "copymd_convert_html",
		Description: "Convert an HTML document to Markdown. Elements hidden by inline styles, " +
			"scripts and styles are dropped, code blocks keep their language and relative " +
			"links are made absolute against base_url. selector picks one element instead of the body.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"html":     map[string]any{"type": "string", "description": "Full document or fragment"},
				"base_url": map[string]any{"type": "string", "description": "URL the HTML was taken from"},
				"selector": map[string]any{"type": "string", "description": "CSS selector of the element to convert"},
			},
			"required": []string{"html"},
		},
	}, kit.Chain(kit.Recover(), kit.Logging(logger, "copymd_convert_html"), markdownOnly)(convert),
		func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			var args struct {
				HTML     string `json:"html"`
				BaseURL  string `json:"base_url"`
				Selector string `json:"selector"`
			}
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, fmt.Errorf("decode: %w", err)
			}
			return &kit.MCPDecodeResult{Request: &ConvertRequest{
				HTML:     args.HTML,
				BaseURL:  args.BaseURL,
				Selector: args.Selector,
			}}, nil
		})

	kit.RegisterMCPTool(srv, &mcp.Tool{
		Name: "copymd_convert_url",
		Description: "Fetch a web page and convert it, or the element matching selector, to Markdown. " +
			"Set browser to render the page in Chrome first, for pages built by scripts.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":      map[string]any{"type": "string", "description": "Page URL"},
				"selector": map[string]any{"type": "string", "description": "CSS selector of the element to convert"},
				"browser":  map[string]any{"type": "boolean", "description": "Render with Chrome before converting"},
			},
			"required": []string{"url"},
		},
	}, kit.Chain(kit.Recover(), kit.Logging(logger, "copymd_convert_url"), markdownOnly)(convert),
		func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
			var args struct {
				URL      string `json:"url"`
				Selector string `json:"selector"`
				Browser  bool   `json:"browser"`
			}
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return nil, fmt.Errorf("decode: %w", err)
			}
			return &kit.MCPDecodeResult{Request: &ConvertRequest{
				URL:      args.URL,
				Selector: args.Selector,
				Browser:  args.Browser,
			}}, nil
		})
}
