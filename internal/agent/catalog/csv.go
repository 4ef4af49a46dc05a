package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
	errx "github.com/Chative-shopping-guide/server/internal/core/error"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

// Catalog CSV columns.
const (
	ColProductID       = "product_id"
	ColName            = "name"
	ColCategory        = "category"
	ColPrice           = "price"
	ColBudgetRange     = "budget_range"
	ColSuitableFor     = "suitable_for"
	ColParameters      = "parameters"
	ColAdvantages      = "advantages"
	ColDisadvantages   = "disadvantages"
	ColCouponID        = "coupon_id"
	ColCouponAmount    = "coupon_amount"
	ColCouponCondition = "coupon_condition"
)

var requiredColumns = []string{ColProductID, ColName, ColCategory, ColPrice}

// ErrEmptyCatalog is returned when no row survives validation.
var ErrEmptyCatalog = errors.New("catalog has no valid rows")

// LoadStats summarises a CSV load.
type LoadStats struct {
	Rows       int
	Loaded     int
	Dropped    int
	Duplicates int
}

// LoadCSV reads the catalog file at path. Any error is fatal for startup.
func LoadCSV(path string) ([]model.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errx.WrapCatalog(fmt.Errorf("open catalog %q: %w", path, err))
	}
	defer f.Close()

	products, stats, err := ReadCSV(f)
	if err != nil {
		return nil, errx.WrapCatalog(fmt.Errorf("read catalog %q: %w", path, err))
	}

	logx.Info().
		Str("path", path).
		Int("rows", stats.Rows).
		Int("loaded", stats.Loaded).
		Int("dropped", stats.Dropped).
		Int("duplicates", stats.Duplicates).
		Msg("Catalog loaded")
	return products, nil
}

// ReadCSV parses catalog rows. Rows without product_id, name, or a parseable
// non-negative price are dropped; optional descriptive fields get defaults.
func ReadCSV(r io.Reader) ([]model.Product, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, fmt.Errorf("missing header: %w", ErrEmptyCatalog)
		}
		return nil, stats, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[strings.ToLower(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, stats, fmt.Errorf("missing required column %q", col)
		}
	}

	seen := make(map[string]struct{})
	var products []model.Product
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		p, ok := productFromFields(field)
		if !ok {
			stats.Dropped++
			logx.Debug().Int("row", stats.Rows).Msg("Dropping catalog row without id, name or valid price")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			stats.Duplicates++
			logx.Warn().Str("product_id", p.ID).Int("row", stats.Rows).Msg("Duplicate product id; keeping first row")
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}

	stats.Loaded = len(products)
	if len(products) == 0 {
		return nil, stats, ErrEmptyCatalog
	}
	return products, stats, nil
}

func productFromFields(field func(string) string) (model.Product, bool) {
	id, name := field(ColProductID), field(ColName)
	if id == "" || name == "" {
		return model.Product{}, false
	}
	price, ok := parseNonNegative(field(ColPrice))
	if !ok {
		return model.Product{}, false
	}

	p := model.Product{
		ID:              id,
		Name:            name,
		Category:        field(ColCategory),
		Price:           price,
		BudgetRange:     field(ColBudgetRange),
		SuitableFor:     field(ColSuitableFor),
		Parameters:      field(ColParameters),
		Advantages:      field(ColAdvantages),
		Disadvantages:   field(ColDisadvantages),
		CouponID:        field(ColCouponID),
		CouponCondition: field(ColCouponCondition),
	}
	if amount, ok := parseFinite(field(ColCouponAmount)); ok {
		p.CouponAmount = &amount
	}
	p.ApplyDefaults()
	return p, true
}

func parseNonNegative(s string) (float64, bool) {
	v, ok := parseFinite(s)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// parseFinite accepts any finite number. Negative coupon amounts are kept so
// the coupon line is still shown at the original price.
func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
