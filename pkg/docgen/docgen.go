// Package docgen generates the per-subscription-tier endpoint listings
// from the OpenAPI document. One markdown file per tier, each containing
// the cumulative set of endpoints available at that tier, grouped by
// resource category and sorted by path. Generation is all-or-nothing: the
// documents are rendered in memory first and nothing is written if any
// endpoint is missing its tier annotation.
package docgen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/thetadata/thetadata-mcp/pkg/openapi2mcp"
	"github.com/thetadata/thetadata-mcp/pkg/subscription"
)

// categoryOrder fixes the section order in every generated document.
// Categories outside this list render afterwards, alphabetically.
var categoryOrder = []string{"Stock", "Option", "Index", "Calendar"}

// Generator writes one endpoints_<tier>.md file per requested tier into
// OutputDir, overwriting any previous version.
type Generator struct {
	OutputDir string
	Tiers     []subscription.Tier
}

// Run renders and writes the tier documents. It returns the cumulative
// endpoint count per generated tier.
func (g *Generator) Run(doc *openapi3.T) (map[subscription.Tier]int, error) {
	ops, err := openapi2mcp.ExtractOperations(doc)
	if err != nil {
		return nil, fmt.Errorf("docgen: %w", err)
	}

	tiers := g.Tiers
	if len(tiers) == 0 {
		tiers = subscription.Tiers()
	}

	// Render everything before touching the filesystem.
	rendered := make(map[subscription.Tier]string, len(tiers))
	counts := make(map[subscription.Tier]int, len(tiers))
	for _, tier := range tiers {
		cumulative := cumulativeSet(ops, tier)
		rendered[tier] = Render(tier, cumulative)
		counts[tier] = len(cumulative)
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("docgen: create output dir: %w", err)
	}
	for _, tier := range tiers {
		name := filepath.Join(g.OutputDir, FileName(tier))
		if err := os.WriteFile(name, []byte(rendered[tier]), 0o644); err != nil {
			return nil, fmt.Errorf("docgen: write %s: %w", name, err)
		}
	}
	return counts, nil
}

// FileName returns the output file name for a tier.
func FileName(tier subscription.Tier) string {
	return fmt.Sprintf("endpoints_%s.md", tier)
}

// cumulativeSet returns every operation available at the given tier, i.e.
// all operations whose minimum tier is at or below it.
func cumulativeSet(ops []openapi2mcp.Operation, tier subscription.Tier) []openapi2mcp.Operation {
	var out []openapi2mcp.Operation
	for _, op := range ops {
		if tier.Includes(op.Tier) {
			out = append(out, op)
		}
	}
	return out
}

// Render produces the markdown document for one tier from its cumulative
// endpoint set. Output is deterministic: fixed category order, paths
// sorted lexicographically within each category.
func Render(tier subscription.Tier, ops []openapi2mcp.Operation) string {
	byCategory := make(map[string][]openapi2mcp.Operation)
	for _, op := range ops {
		cat := capitalize(op.Category())
		byCategory[cat] = append(byCategory[cat], op)
	}

	categories := make([]string, 0, len(byCategory))
	for _, cat := range categoryOrder {
		if _, ok := byCategory[cat]; ok {
			categories = append(categories, cat)
		}
	}
	var extra []string
	for cat := range byCategory {
		if !contains(categoryOrder, cat) {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	categories = append(categories, extra...)

	var b strings.Builder
	fmt.Fprintf(&b, "# API Endpoints %s Tier\n\n", capitalize(tier.String()))

	for _, cat := range categories {
		fmt.Fprintf(&b, "#### %s Endpoints\n\n", cat)

		entries := byCategory[cat]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

		for _, op := range entries {
			if name := op.DisplayName(); name != "" {
				fmt.Fprintf(&b, "- `%s` - %s\n", op.Path, name)
			} else {
				fmt.Fprintf(&b, "- `%s`\n", op.Path)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
