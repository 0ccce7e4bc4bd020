package copymd

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connectMCP(t *testing.T, e *Engine) *mcp.ClientSession {
	t.Helper()
	impl := &mcp.Implementation{Name: "copymd-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)
	RegisterMCP(srv, e, nil)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()
	session, err := mcp.NewClient(impl, nil).Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callText(t *testing.T, s *mcp.ClientSession, tool string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := s.CallTool(context.Background(), &mcp.CallToolParams{Name: tool, Arguments: args})
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	return res.Content[0].(*mcp.TextContent).Text, res.IsError
}

func TestMCP_ConvertHTML(t *testing.T) {
	s := connectMCP(t, NewEngine(EngineConfig{}))

	md, isErr := callText(t, s, "copymd_convert_html", map[string]any{
		"html":     page,
		"base_url": "https://example.com/blog/post",
		"selector": "#post",
	})
	require.False(t, isErr, md)
	assert.Contains(t, md, "# Title")
	assert.Contains(t, md, "```go")
	assert.NotContains(t, md, "hidden text")

	msg, isErr := callText(t, s, "copymd_convert_html", map[string]any{"html": ""})
	assert.True(t, isErr)
	assert.Contains(t, msg, "html or url is required")
}

func TestMCP_ConvertURL(t *testing.T) {
	pages := newPageServer(t)
	s := connectMCP(t, NewEngine(EngineConfig{}))

	md, isErr := callText(t, s, "copymd_convert_url", map[string]any{"url": pages.URL + "/blog/post", "selector": "h1"})
	require.False(t, isErr, md)
	assert.Equal(t, "# Title", md)

	msg, isErr := callText(t, s, "copymd_convert_url", map[string]any{"url": pages.URL + "/blog/post", "browser": true})
	assert.True(t, isErr)
	assert.Contains(t, msg, "no browser configured")
}

func TestMCP_ListTools(t *testing.T) {
	s := connectMCP(t, NewEngine(EngineConfig{}))
	res, err := s.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"copymd_convert_html", "copymd_convert_url"}, names)
}
