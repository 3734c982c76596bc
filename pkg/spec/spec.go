// Package spec loads and validates the Theta Data OpenAPI document. The
// canonical document ships inside the binary; a file path may be supplied
// to override it.
package spec

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapiv3.yaml
var embedded []byte

// Load parses and validates the OpenAPI document. An empty path selects
// the embedded document.
func Load(ctx context.Context, path string) (*openapi3.T, error) {
	data := embedded
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read spec %s: %w", path, err)
		}
	}
	return Parse(ctx, data)
}

// Parse parses and validates raw OpenAPI document bytes (JSON or YAML).
func Parse(ctx context.Context, data []byte) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse OpenAPI spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("OpenAPI spec validation failed: %w", err)
	}
	return doc, nil
}
