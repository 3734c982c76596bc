package openapi2mcp

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildInputSchema converts an operation's parameters and request body
// into a single JSON Schema object used both for tool advertisement and
// pre-flight argument validation. Query and path parameters become
// top-level properties; a JSON request body, if declared, becomes a
// "requestBody" property.
func BuildInputSchema(params openapi3.Parameters, requestBody *openapi3.RequestBodyRef) map[string]any {
	properties := map[string]any{}
	var required []string

	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		prop := schemaProperty(p.Schema)
		if prop == nil {
			prop = map[string]any{}
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	if requestBody != nil && requestBody.Value != nil {
		if mt := jsonMediaType(requestBody.Value.Content); mt != nil && mt.Schema != nil {
			prop := schemaProperty(mt.Schema)
			if prop == nil {
				prop = map[string]any{}
			}
			prop["description"] = "The JSON request body."
			properties["requestBody"] = prop
			if requestBody.Value.Required {
				required = append(required, "requestBody")
			}
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// jsonMediaType picks the JSON media type from a content map, tolerating
// parameters like "; charset=utf-8".
func jsonMediaType(content openapi3.Content) *openapi3.MediaType {
	for name, mt := range content {
		base := name
		if idx := strings.IndexByte(name, ';'); idx > 0 {
			base = strings.TrimSpace(name[:idx])
		}
		if base == "application/json" {
			return mt
		}
	}
	return nil
}

// schemaProperty recursively converts an OpenAPI schema into a JSON Schema
// fragment. allOf subschemas are merged; object properties and array items
// recurse; type, format, enum, default, and example carry over.
func schemaProperty(ref *openapi3.SchemaRef) map[string]any {
	if ref == nil || ref.Value == nil {
		return nil
	}
	val := ref.Value
	prop := map[string]any{}

	for _, sub := range val.AllOf {
		for k, v := range schemaProperty(sub) {
			prop[k] = v
		}
	}

	if val.Type != nil && len(*val.Type) > 0 {
		prop["type"] = (*val.Type)[0]
	}
	if val.Format != "" {
		prop["format"] = val.Format
	}
	if val.Description != "" {
		prop["description"] = val.Description
	}
	if len(val.Enum) > 0 {
		prop["enum"] = val.Enum
	}
	if val.Default != nil {
		prop["default"] = val.Default
	}
	if val.Example != nil {
		prop["example"] = val.Example
	}

	if val.Type != nil && val.Type.Is("object") && val.Properties != nil {
		objProps := map[string]any{}
		for name, sub := range val.Properties {
			if p := schemaProperty(sub); p != nil {
				objProps[name] = p
			}
		}
		prop["properties"] = objProps
		if len(val.Required) > 0 {
			prop["required"] = val.Required
		}
	}
	if val.Type != nil && val.Type.Is("array") && val.Items != nil {
		if items := schemaProperty(val.Items); items != nil {
			prop["items"] = items
		}
	}
	return prop
}
