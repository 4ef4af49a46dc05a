// Package catalog holds the product catalog backends: an in-memory table
// loaded from CSV and a Neo4j product graph.
package catalog

import (
	"context"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

// Store is the query capability shared by every catalog backend.
// Implementations are read-only after construction and safe for concurrent use.
type Store interface {
	// Filter returns products matching f, cheapest first when the backend can
	// sort, capped at f.Limit when it is positive. No match is an empty slice.
	Filter(ctx context.Context, f model.Filter) ([]model.Product, error)

	// LookupByIDs returns the products with the given ids in request order.
	// Unknown ids are skipped.
	LookupByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// LookupByNames returns products whose name equals one of names.
	LookupByNames(ctx context.Context, names []string) ([]model.Product, error)

	// Backend names the implementation for logging.
	Backend() string
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
