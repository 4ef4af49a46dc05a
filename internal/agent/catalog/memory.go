package catalog

import (
	"context"
	"sort"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

// MemoryStore is the tabular backend: the whole catalog held in memory.
type MemoryStore struct {
	products []model.Product
	byID     map[string]int
}

// NewMemoryStore copies products into a read-only store.
func NewMemoryStore(products []model.Product) *MemoryStore {
	s := &MemoryStore{
		products: make([]model.Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	copy(s.products, products)
	for i, p := range s.products {
		if _, ok := s.byID[p.ID]; !ok {
			s.byID[p.ID] = i
		}
	}
	return s
}

func (s *MemoryStore) Backend() string { return model.CatalogBackendTable }

// Len returns the number of products held.
func (s *MemoryStore) Len() int { return len(s.products) }

func (s *MemoryStore) Filter(ctx context.Context, f model.Filter) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []model.Product{}
	for _, p := range s.products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) LookupByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []model.Product{}
	for _, id := range dedupe(ids) {
		if i, ok := s.byID[id]; ok {
			out = append(out, s.products[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) LookupByNames(ctx context.Context, names []string) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}

	out := []model.Product{}
	for _, p := range s.products {
		if _, ok := wanted[p.Name]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
