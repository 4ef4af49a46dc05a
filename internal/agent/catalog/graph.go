package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
	errx "github.com/Chative-shopping-guide/server/internal/core/error"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

// Graph schema.
const (
	LabelProduct     = "Product"
	LabelCategory    = "Category"
	LabelSkinType    = "SkinType"
	RelBelongsTo     = "BELONGS_TO"
	RelSuitableFor   = "SUITABLE_FOR"
	defaultGraphWait = 5 * time.Second
)

// cypherRunner executes one statement and returns every record.
type cypherRunner func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error)

func driverRunner(driver neo4j.DriverWithContext, database string, readOnly bool) cypherRunner {
	return func(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
		var opts []neo4j.ExecuteQueryConfigurationOption
		if database != "" {
			opts = append(opts, neo4j.ExecuteQueryWithDatabase(database))
		}
		if readOnly {
			opts = append(opts, neo4j.ExecuteQueryWithReadersRouting())
		}
		res, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, opts...)
		if err != nil {
			return nil, errx.WrapGraph(err)
		}
		return res.Records, nil
	}
}

// projection shared by every read; category and skin type come from the
// linked nodes, everything else from Product properties.
const productProjection = `
RETURN p.product_id AS product_id, p.name AS name, c.name AS category, p.price AS price,
       s.name AS suitable_for, p.budget_range AS budget_range, p.parameters AS parameters,
       p.advantages AS advantages, p.disadvantages AS disadvantages,
       p.coupon_id AS coupon_id, p.coupon_amount AS coupon_amount, p.coupon_condition AS coupon_condition`

const filterCypher = `
MATCH (p:Product)-[:BELONGS_TO]->(c:Category {name: $category})
MATCH (p)-[:SUITABLE_FOR]->(s:SkinType)
WHERE p.price >= $min_price AND p.price <= $max_price AND s.name CONTAINS $suitability` +
	productProjection + `
ORDER BY p.price ASC`

const lookupByIDsCypher = `
UNWIND range(0, size($ids) - 1) AS i
MATCH (p:Product {product_id: $ids[i]})
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
OPTIONAL MATCH (p)-[:SUITABLE_FOR]->(s:SkinType)
WITH i, p, head(collect(c)) AS c, head(collect(s)) AS s` +
	productProjection + `
ORDER BY i`

const lookupByNamesCypher = `
MATCH (p:Product)
WHERE p.name IN $names
OPTIONAL MATCH (p)-[:BELONGS_TO]->(c:Category)
OPTIONAL MATCH (p)-[:SUITABLE_FOR]->(s:SkinType)
WITH p, head(collect(c)) AS c, head(collect(s)) AS s` +
	productProjection + `
ORDER BY p.product_id`

// GraphStore is the Neo4j backend. Every query is bounded by a timeout.
type GraphStore struct {
	run     cypherRunner
	timeout time.Duration
}

// NewGraphStore queries driver with reader routing against database.
func NewGraphStore(driver neo4j.DriverWithContext, database string, timeout time.Duration) *GraphStore {
	return newGraphStore(driverRunner(driver, database, true), timeout)
}

func newGraphStore(run cypherRunner, timeout time.Duration) *GraphStore {
	if timeout <= 0 {
		timeout = defaultGraphWait
	}
	return &GraphStore{run: run, timeout: timeout}
}

func (s *GraphStore) Backend() string { return model.CatalogBackendGraph }

func (s *GraphStore) Filter(ctx context.Context, f model.Filter) ([]model.Product, error) {
	cypher := filterCypher
	params := map[string]any{
		"category":    f.Category,
		"min_price":   f.MinPrice,
		"max_price":   f.MaxPrice,
		"suitability": f.Suitability,
	}
	if f.Limit > 0 {
		cypher += "\nLIMIT $limit"
		params["limit"] = int64(f.Limit)
	}
	return s.query(ctx, "filter", cypher, params)
}

func (s *GraphStore) LookupByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	return s.query(ctx, "lookup_by_ids", lookupByIDsCypher, map[string]any{"ids": dedupe(ids)})
}

func (s *GraphStore) LookupByNames(ctx context.Context, names []string) ([]model.Product, error) {
	if len(names) == 0 {
		return []model.Product{}, nil
	}
	return s.query(ctx, "lookup_by_names", lookupByNamesCypher, map[string]any{"names": dedupe(names)})
}

func (s *GraphStore) query(ctx context.Context, op, cypher string, params map[string]any) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", op, err)
	}

	out := make([]model.Product, 0, len(records))
	for i, rec := range records {
		p, err := productFromRecord(rec)
		if err != nil {
			logx.Warn().Err(err).Str("op", op).Int("record", i).Msg("Skipping malformed product node")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func productFromRecord(rec *neo4j.Record) (model.Product, error) {
	if rec == nil {
		return model.Product{}, fmt.Errorf("nil record")
	}
	id := recordString(rec, "product_id")
	name := recordString(rec, "name")
	if id == "" || name == "" {
		return model.Product{}, fmt.Errorf("product node without id or name")
	}
	price, ok := recordFloat(rec, "price")
	if !ok || price < 0 {
		return model.Product{}, fmt.Errorf("product %s has no valid price", id)
	}

	p := model.Product{
		ID:              id,
		Name:            name,
		Category:        recordString(rec, "category"),
		Price:           price,
		BudgetRange:     recordString(rec, "budget_range"),
		SuitableFor:     recordString(rec, "suitable_for"),
		Parameters:      recordString(rec, "parameters"),
		Advantages:      recordString(rec, "advantages"),
		Disadvantages:   recordString(rec, "disadvantages"),
		CouponID:        recordString(rec, "coupon_id"),
		CouponCondition: recordString(rec, "coupon_condition"),
	}
	if amount, ok := recordFloat(rec, "coupon_amount"); ok {
		p.CouponAmount = &amount
	}
	p.ApplyDefaults()
	return p, nil
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func recordFloat(rec *neo4j.Record, key string) (float64, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		return parseNonNegative(t)
	default:
		return 0, false
	}
}

var _ Store = (*GraphStore)(nil)
