// Package openapi2mcp turns the Theta Data OpenAPI document into MCP tools.
//
// Every operation in the document becomes one named tool with a JSON
// Schema input derived from its declared parameters. Invocations are
// validated against that schema and then forwarded one-to-one to the
// upstream API; the response body passes through unchanged.
package openapi2mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/thetadata/thetadata-mcp/pkg/subscription"
)

// Operation is one endpoint descriptor: an upstream path+method pair plus
// everything needed to expose it as a tool.
type Operation struct {
	Name        string
	Method      string
	Path        string
	OperationID string
	Summary     string
	Description string
	Tier        subscription.Tier
	Parameters  openapi3.Parameters
	RequestBody *openapi3.RequestBodyRef
}

// Category returns the resource category, the first path segment
// (e.g. "stock" for /stock/history/eod).
func (op Operation) Category() string {
	segs := strings.SplitN(strings.Trim(op.Path, "/"), "/", 2)
	return segs[0]
}

// DisplayName returns the human-readable name for documentation: the
// summary, or the first line of the description capped at 80 characters.
func (op Operation) DisplayName() string {
	if op.Summary != "" {
		return op.Summary
	}
	desc := strings.TrimSpace(op.Description)
	if desc == "" {
		return ""
	}
	line := desc
	if idx := strings.IndexByte(desc, '\n'); idx >= 0 {
		line = desc[:idx]
	}
	if len(line) > 80 {
		line = line[:80]
	}
	return line
}

// ExtractOperations walks the document and builds one Operation per
// path+method, sorted by tool name for deterministic registration. An
// endpoint without a tier annotation or a tool name collision is an error.
func ExtractOperations(doc *openapi3.T) ([]Operation, error) {
	if doc.Paths == nil {
		return nil, fmt.Errorf("spec declares no paths")
	}

	var ops []Operation
	seen := make(map[string]string)

	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			tier, err := subscription.FromOperation(path, item, op)
			if err != nil {
				return nil, err
			}

			name := ToolName(method, path)
			if prev, ok := seen[name]; ok {
				return nil, fmt.Errorf("tool name %q derived from both %s and %s %s", name, prev, method, path)
			}
			seen[name] = method + " " + path

			params := append(openapi3.Parameters{}, item.Parameters...)
			params = append(params, op.Parameters...)

			ops = append(ops, Operation{
				Name:        name,
				Method:      method,
				Path:        path,
				OperationID: op.OperationID,
				Summary:     op.Summary,
				Description: op.Description,
				Tier:        tier,
				Parameters:  params,
				RequestBody: op.RequestBody,
			})
		}
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops, nil
}

// ToolName derives a deterministic tool name from a path template:
// segments joined with underscores, placeholder braces stripped
// ("/stock/history/eod" -> "stock_history_eod"). Non-GET methods get a
// method suffix so a path shared across methods stays unambiguous.
func ToolName(method, path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segs {
		seg = strings.TrimPrefix(seg, "{")
		seg = strings.TrimSuffix(seg, "}")
		segs[i] = strings.ToLower(seg)
	}
	name := strings.Join(segs, "_")
	if !strings.EqualFold(method, "GET") {
		name += "_" + strings.ToLower(method)
	}
	return name
}
