package kit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Endpoint) Endpoint {
			return func(ctx context.Context, req any) (any, error) {
				order = append(order, name+"_before")
				resp, err := next(ctx, req)
				order = append(order, name+"_after")
				return resp, err
			}
		}
	}
	base := func(context.Context, any) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	}

	resp, err := Chain(mw("a"), mw("b"), mw("c"))(base)(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, []string{"a_before", "b_before", "c_before", "endpoint", "c_after", "b_after", "a_after"}, order)
}

func TestRecover(t *testing.T) {
	ep := Recover()(func(context.Context, any) (any, error) { panic("boom") })
	resp, err := ep(context.Background(), nil)
	assert.Nil(t, resp)
	assert.EqualError(t, err, "kit: panic: boom")
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fail := errors.New("nope")
	ep := Logging(logger, "convert")(func(context.Context, any) (any, error) { return nil, fail })

	ctx := WithRequestID(WithTransport(context.Background(), "cli"), "req_1")
	_, err := ep(ctx, nil)
	assert.ErrorIs(t, err, fail)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kit: endpoint failed", line["msg"])
	assert.Equal(t, "convert", line["endpoint"])
	assert.Equal(t, "cli", line["transport"])
	assert.Equal(t, "req_1", line["request_id"])
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "http", GetTransport(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetPageID(ctx))

	ctx = WithPageID(WithRequestID(WithTransport(ctx, "mcp"), "req_x"), "pg_1")
	assert.Equal(t, "mcp", GetTransport(ctx))
	assert.Equal(t, "req_x", GetRequestID(ctx))
	assert.Equal(t, "pg_1", GetPageID(ctx))
}

type echoReq struct {
	Text string `json:"text"`
}

func TestRegisterMCPTool(t *testing.T) {
	impl := &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}
	srv := mcp.NewServer(impl, nil)
	tool := &mcp.Tool{
		Name:        "echo",
		Description: "echo text",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"text": map[string]any{"type": "string"}},
		},
	}
	RegisterMCPTool(srv, tool, func(ctx context.Context, req any) (any, error) {
		r := req.(*echoReq)
		if r.Text == "" {
			return nil, errors.New("empty")
		}
		return map[string]string{"text": r.Text, "transport": GetTransport(ctx)}, nil
	}, func(req *mcp.CallToolRequest) (*MCPDecodeResult, error) {
		var r echoReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &MCPDecodeResult{Request: &r}, nil
	})

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()
	session, err := mcp.NewClient(impl, nil).Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "hi"}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.JSONEq(t, `{"text":"hi","transport":"mcp"}`, res.Content[0].(*mcp.TextContent).Text)

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{}})
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
