package openapi2mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/thetadata/thetadata-mcp/pkg/client"
)

// RegisterTools adds one tool per operation to the MCP server. Tool
// descriptions carry the minimum subscription tier as a "[TIER]" prefix so
// assistants can steer around endpoints the user's plan does not cover.
func RegisterTools(srv *mcp.Server, ops []Operation, c *client.Client, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("registry")

	for _, op := range ops {
		inputSchema := BuildInputSchema(op.Parameters, op.RequestBody)
		validator, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(inputSchema))
		if err != nil {
			return fmt.Errorf("tool %s: compile input schema: %w", op.Name, err)
		}

		tool := &mcp.Tool{
			Name:        op.Name,
			Description: describe(op),
			InputSchema: inputSchema,
		}
		if strings.EqualFold(op.Method, "GET") {
			tool.Annotations = &mcp.ToolAnnotations{ReadOnlyHint: true}
		}

		srv.AddTool(tool, newToolHandler(op, validator, c, logger))
		logger.Debug("registered tool",
			zap.String("tool", op.Name),
			zap.String("method", op.Method),
			zap.String("path", op.Path),
			zap.String("tier", op.Tier.String()))
	}

	logger.Info("tool registration complete", zap.Int("tools", len(ops)))
	return nil
}

// describe renders the advertised tool description: tier prefix, display
// name, and the upstream route.
func describe(op Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", strings.ToUpper(op.Tier.String()))
	if name := op.DisplayName(); name != "" {
		b.WriteByte(' ')
		b.WriteString(name)
	}
	fmt.Fprintf(&b, " (%s %s)", op.Method, op.Path)
	return b.String()
}

// newToolHandler builds the forwarding handler for one operation:
// validate arguments, split them into path/query/body per the declared
// parameter locations, issue the single upstream request, and return the
// body verbatim. Validation failures never reach the network.
func newToolHandler(op Operation, validator *gojsonschema.Schema, c *client.Client, logger *zap.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := json.RawMessage(req.Params.Arguments)
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}

		result, err := validator.Validate(gojsonschema.NewBytesLoader(args))
		if err != nil {
			return errorResult("invalid arguments: %v", err), nil
		}
		if !result.Valid() {
			msgs := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				msgs = append(msgs, desc.String())
			}
			return errorResult("validation failed for %s: %s", op.Name, strings.Join(msgs, "; ")), nil
		}

		upstreamReq, err := buildRequest(op, args)
		if err != nil {
			return errorResult("%v", err), nil
		}

		id := uuid.NewString()
		logger.Debug("tool invocation",
			zap.String("tool", op.Name),
			zap.String("invocation_id", id))

		resp, err := c.Do(ctx, upstreamReq)
		if err != nil {
			logger.Warn("upstream call failed",
				zap.String("tool", op.Name),
				zap.String("invocation_id", id),
				zap.String("kind", string(client.KindOf(err))),
				zap.Error(err))
			return errorResult("%v", err), nil
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return errorResult("upstream HTTP %s: %s", resp.Status, string(resp.Body)), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(resp.Body)}},
		}, nil
	}
}

// buildRequest routes each argument to its declared location. Arguments
// not declared as parameters are dropped; "requestBody" becomes the JSON
// body.
func buildRequest(op Operation, args json.RawMessage) (client.Request, error) {
	var decoded map[string]any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return client.Request{}, client.Wrap(err, client.KindValidation, "arguments must be a JSON object")
	}

	req := client.Request{
		Method:     op.Method,
		Path:       op.Path,
		PathParams: map[string]any{},
		Query:      map[string]any{},
	}

	for _, ref := range op.Parameters {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		val, ok := decoded[p.Name]
		if !ok {
			continue
		}
		switch p.In {
		case openapi3.ParameterInPath:
			req.PathParams[p.Name] = val
		case openapi3.ParameterInQuery:
			req.Query[p.Name] = val
		default:
			return client.Request{}, client.NewError(client.KindValidation,
				fmt.Sprintf("parameter %q uses unsupported location %q", p.Name, p.In))
		}
	}

	if body, ok := decoded["requestBody"]; ok && op.RequestBody != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return client.Request{}, client.Wrap(err, client.KindValidation, "encode request body")
		}
		req.Body = raw
	}

	return req, nil
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
	}
}
