package openapi2mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/thetadata/thetadata-mcp/pkg/client"
	"github.com/thetadata/thetadata-mcp/pkg/spec"
)

const registerTestDoc = `
openapi: 3.0.3
info: {title: Test, version: 1.0.0}
paths:
  /stock/snapshot/quote:
    x-min-subscription: value
    get:
      summary: Quote snapshot
      parameters:
        - name: symbol
          in: query
          required: true
          schema: {type: string}
        - name: interval
          in: query
          schema: {type: integer}
      responses:
        "200": {description: ok}
  /calendar/expirations/{symbol}:
    x-min-subscription: value
    get:
      summary: Upcoming expirations
      parameters:
        - name: symbol
          in: path
          required: true
          schema: {type: string}
      responses:
        "200": {description: ok}
`

func testHandler(t *testing.T, name string, c *client.Client) mcp.ToolHandler {
	t.Helper()
	doc, err := spec.Parse(context.Background(), []byte(registerTestDoc))
	require.NoError(t, err)
	ops, err := ExtractOperations(doc)
	require.NoError(t, err)
	for _, op := range ops {
		if op.Name != name {
			continue
		}
		schema := BuildInputSchema(op.Parameters, op.RequestBody)
		validator, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
		require.NoError(t, err)
		return newToolHandler(op, validator, c, zap.NewNop())
	}
	t.Fatalf("operation %s not found", name)
	return nil
}

func callTool(t *testing.T, h mcp.ToolHandler, args string) *mcp.CallToolResult {
	t.Helper()
	res, err := h(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)},
	})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandlerForwardsAndPassesBodyThrough(t *testing.T) {
	const payload = `{"header":{"format":["bid","ask"]},"response":[[170.1,170.2]]}`
	var gotQuery atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(upstream.Close)

	c := client.New(upstream.URL, time.Second, nil)
	h := testHandler(t, "stock_snapshot_quote", c)

	res := callTool(t, h, `{"symbol":"AAPL","interval":60000}`)
	require.False(t, res.IsError)
	require.Equal(t, payload, resultText(t, res))
	require.Contains(t, gotQuery.Load().(string), "symbol=AAPL")
	require.Contains(t, gotQuery.Load().(string), "interval=60000")
}

func TestHandlerRejectsMissingRequiredBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	c := client.New(upstream.URL, time.Second, nil)
	h := testHandler(t, "stock_snapshot_quote", c)

	res := callTool(t, h, `{"interval":60000}`)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "symbol")
	require.Zero(t, hits.Load(), "validation failure must not reach the network")
}

func TestHandlerRejectsWrongTypeBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(upstream.Close)

	c := client.New(upstream.URL, time.Second, nil)
	h := testHandler(t, "stock_snapshot_quote", c)

	res := callTool(t, h, `{"symbol":"AAPL","interval":"sixty"}`)
	require.True(t, res.IsError)
	require.Zero(t, hits.Load())
}

func TestHandlerExpandsPathParameters(t *testing.T) {
	var gotPath atomic.Value
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(upstream.Close)

	c := client.New(upstream.URL, time.Second, nil)
	h := testHandler(t, "calendar_expirations_symbol", c)

	res := callTool(t, h, `{"symbol":"SPXW"}`)
	require.False(t, res.IsError)
	require.Equal(t, "/calendar/expirations/SPXW", gotPath.Load())
}

func TestHandlerSurfacesUpstreamHTTPError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(472)
		_, _ = w.Write([]byte("SUBSCRIPTION REQUIRED"))
	}))
	t.Cleanup(upstream.Close)

	c := client.New(upstream.URL, time.Second, nil)
	h := testHandler(t, "stock_snapshot_quote", c)

	res := callTool(t, h, `{"symbol":"AAPL"}`)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "472")
	require.Contains(t, resultText(t, res), "SUBSCRIPTION REQUIRED")
}

func TestHandlerSurfacesTimeout(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(upstream.Close)

	c := client.New(upstream.URL, 20*time.Millisecond, nil)
	h := testHandler(t, "stock_snapshot_quote", c)

	res := callTool(t, h, `{"symbol":"AAPL"}`)
	require.True(t, res.IsError)
	require.Contains(t, resultText(t, res), "timeout")
}

func TestRegisterToolsDecoratesDescriptions(t *testing.T) {
	doc, err := spec.Parse(context.Background(), []byte(registerTestDoc))
	require.NoError(t, err)
	ops, err := ExtractOperations(doc)
	require.NoError(t, err)

	srv := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0.0.1"}, &mcp.ServerOptions{HasTools: true})
	c := client.New("http://127.0.0.1:25503/v3", time.Second, nil)
	require.NoError(t, RegisterTools(srv, ops, c, zap.NewNop()))

	for _, op := range ops {
		require.Contains(t, describe(op), "[VALUE]")
		require.Contains(t, describe(op), op.Path)
	}
}
