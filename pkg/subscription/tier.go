// Package subscription models the Theta Data subscription tiers that gate
// access to API endpoints. Tiers form a total order and membership is
// cumulative: an endpoint requiring tier T is available at every tier >= T.
package subscription

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ExtensionKey is the OpenAPI extension carrying an endpoint's minimum
// subscription tier. It may appear at the path level (applying to all
// methods) or at the operation level (overriding the path value).
const ExtensionKey = "x-min-subscription"

// Tier is a subscription level, ordered from cheapest to most expensive.
type Tier int

const (
	Free Tier = iota
	Value
	Standard
	Professional
)

var tierNames = [...]string{"free", "value", "standard", "professional"}

// Tiers returns all tiers in ascending order.
func Tiers() []Tier {
	return []Tier{Free, Value, Standard, Professional}
}

func (t Tier) String() string {
	if t < Free || t > Professional {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Tag returns the tool tag form of the tier, e.g. "tier:free".
func (t Tier) Tag() string {
	return "tier:" + t.String()
}

// Includes reports whether an endpoint with minimum tier min is available
// to a subscriber at tier t.
func (t Tier) Includes(min Tier) bool {
	return min <= t
}

// Parse converts a tier name from the spec into a Tier. Unknown names are
// an error, never defaulted.
func Parse(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free":
		return Free, nil
	case "value":
		return Value, nil
	case "standard":
		return Standard, nil
	case "professional":
		return Professional, nil
	default:
		return 0, fmt.Errorf("unknown subscription tier %q", s)
	}
}

// FromOperation resolves the minimum tier for one operation, preferring an
// operation-level x-min-subscription over the path-level one. A missing
// annotation is a data error in the spec, not an implicit free tier.
func FromOperation(path string, item *openapi3.PathItem, op *openapi3.Operation) (Tier, error) {
	if op != nil {
		if raw, ok := op.Extensions[ExtensionKey]; ok {
			return parseExtension(path, raw)
		}
	}
	if item != nil {
		if raw, ok := item.Extensions[ExtensionKey]; ok {
			return parseExtension(path, raw)
		}
	}
	return 0, fmt.Errorf("endpoint %s: missing %s annotation", path, ExtensionKey)
}

func parseExtension(path string, raw any) (Tier, error) {
	s, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("endpoint %s: %s must be a string, got %T", path, ExtensionKey, raw)
	}
	tier, err := Parse(s)
	if err != nil {
		return 0, fmt.Errorf("endpoint %s: %w", path, err)
	}
	return tier, nil
}
