package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-shopping-guide/server/internal/agent/catalog"
	"github.com/Chative-shopping-guide/server/internal/agent/extract"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const (
	DefaultResultLimit = 3
	defaultSubject     = "商品"

	RetrievalFailedMessage = "商品检索失败，请稍后再试～"
)

// Retriever turns a shopping request into a short product list.
type Retriever struct {
	store     catalog.Store
	extractor *extract.Extractor
	limit     int
}

func NewRetriever(store catalog.Store, extractor *extract.Extractor, limit int) *Retriever {
	if limit <= 0 {
		limit = DefaultResultLimit
	}
	return &Retriever{store: store, extractor: extractor, limit: limit}
}

// Retrieve never fails: store errors and panics yield the fixed retry message
// and an empty id set.
func (r *Retriever) Retrieve(ctx context.Context, text string) (res model.RetrievalResult) {
	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Interface("panic", rec).Str("backend", r.store.Backend()).Msg("Product retrieval panicked")
			res = failedRetrieval()
		}
	}()

	c := r.extractor.Extract(text)
	products, err := r.store.Filter(ctx, model.Filter{Constraint: c, Limit: r.limit})
	if err != nil {
		logx.Error().Err(err).Str("backend", r.store.Backend()).Msg("Product retrieval failed")
		return failedRetrieval()
	}
	if len(products) > r.limit {
		products = products[:r.limit]
	}

	logx.Debug().
		Str("category", c.Category).
		Str("suitability", c.Suitability).
		Float64("min_price", c.MinPrice).
		Float64("max_price", c.MaxPrice).
		Int("matched", len(products)).
		Msg("Products retrieved")

	subject := Subject(text)
	if len(products) == 0 {
		return model.RetrievalResult{
			ProductIDs: []string{},
			Content:    fmt.Sprintf("未找到符合条件的%s，可调整预算再尝试～", subject),
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "为你推荐以下符合需求的%s：\n", subject)
	ids := make([]string, 0, len(products))
	for i, p := range products {
		fmt.Fprintf(&b, "%d. %s～原价¥%s，折后¥%s", i+1, p.Name, formatPrice(p.Price), formatPrice(p.DiscountPrice()))
		if p.HasCoupon() {
			fmt.Fprintf(&b, "（满%s减%s元）", p.CouponCondition, formatPrice(p.CouponValue()))
		}
		fmt.Fprintf(&b, "～优势：%s～\n", p.Advantages)
		ids = append(ids, p.ID)
	}
	return model.RetrievalResult{ProductIDs: ids, Content: b.String()}
}

// Subject is the wording after the first "买" up to the next one, e.g. "粉底液"
// in "想买粉底液". It falls back to "商品".
func Subject(text string) string {
	_, after, found := strings.Cut(text, "买")
	if !found {
		return defaultSubject
	}
	if i := strings.Index(after, "买"); i >= 0 {
		after = after[:i]
	}
	after = strings.TrimSpace(after)
	if after == "" {
		return defaultSubject
	}
	return after
}

func failedRetrieval() model.RetrievalResult {
	return model.RetrievalResult{ProductIDs: []string{}, Content: RetrievalFailedMessage}
}
