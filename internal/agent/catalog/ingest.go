package catalog

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const DefaultIngestBatchSize = 100

var schemaStatements = []string{
	"CREATE CONSTRAINT product_id_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.product_id IS UNIQUE",
	"CREATE CONSTRAINT category_name_unique IF NOT EXISTS FOR (c:Category) REQUIRE c.name IS UNIQUE",
	"CREATE CONSTRAINT skin_type_name_unique IF NOT EXISTS FOR (s:SkinType) REQUIRE s.name IS UNIQUE",
}

// Products are merged by product_id and their edges replaced, so running the
// import twice leaves the graph unchanged.
const upsertCypher = `
UNWIND $rows AS row
MERGE (p:Product {product_id: row.product_id})
SET p += row.props
WITH p, row
OPTIONAL MATCH (p)-[old:BELONGS_TO|SUITABLE_FOR]->()
DELETE old
WITH DISTINCT p, row
MERGE (c:Category {name: row.category})
MERGE (s:SkinType {name: row.suitable_for})
MERGE (p)-[:BELONGS_TO]->(c)
MERGE (p)-[:SUITABLE_FOR]->(s)
RETURN count(p) AS upserted`

// IngestStats summarises a graph import.
type IngestStats struct {
	Products int
	Batches  int
}

// Ingester writes catalog rows into the product graph.
type Ingester struct {
	run       cypherRunner
	batchSize int
}

func NewIngester(driver neo4j.DriverWithContext, database string, batchSize int) *Ingester {
	return newIngester(driverRunner(driver, database, false), batchSize)
}

func newIngester(run cypherRunner, batchSize int) *Ingester {
	if batchSize <= 0 {
		batchSize = DefaultIngestBatchSize
	}
	return &Ingester{run: run, batchSize: batchSize}
}

// Ingest creates the uniqueness constraints and upserts products in batches.
// A failed batch aborts the import; earlier batches stay committed.
func (in *Ingester) Ingest(ctx context.Context, products []model.Product) (IngestStats, error) {
	var stats IngestStats

	for _, stmt := range schemaStatements {
		if _, err := in.run(ctx, stmt, nil); err != nil {
			return stats, fmt.Errorf("ensure graph schema: %w", err)
		}
	}

	for start := 0; start < len(products); start += in.batchSize {
		end := min(start+in.batchSize, len(products))
		rows := make([]map[string]any, 0, end-start)
		for _, p := range products[start:end] {
			rows = append(rows, ingestRow(p))
		}

		if _, err := in.run(ctx, upsertCypher, map[string]any{"rows": rows}); err != nil {
			return stats, fmt.Errorf("upsert batch starting at row %d: %w", start, err)
		}
		stats.Batches++
		stats.Products += len(rows)

		logx.Debug().Int("batch", stats.Batches).Int("products", stats.Products).Msg("Graph batch committed")
	}
	return stats, nil
}

func ingestRow(p model.Product) map[string]any {
	p.ApplyDefaults()
	var coupon any
	if p.CouponAmount != nil {
		coupon = *p.CouponAmount
	}
	return map[string]any{
		"product_id":   p.ID,
		"category":     p.Category,
		"suitable_for": p.SuitableFor,
		"props": map[string]any{
			"name":             p.Name,
			"price":            p.Price,
			"budget_range":     p.BudgetRange,
			"parameters":       p.Parameters,
			"advantages":       p.Advantages,
			"disadvantages":    p.Disadvantages,
			"coupon_id":        p.CouponID,
			"coupon_amount":    coupon,
			"coupon_condition": p.CouponCondition,
		},
	}
}
