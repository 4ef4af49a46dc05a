package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-shopping-guide/server/internal/agent/catalog"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const (
	CompareNotFoundMessage = "未找到对应商品，无法对比～"
	CompareHintMessage     = "\n可输入2款商品名称进行对比（如：粉底液A和B哪个好）"
	compareTableHeader     = "| 商品 | 价格 | 适合肤质 | 优点 | 缺点 |\n| --- | --- | --- | --- | --- |\n"
)

// Comparator renders a markdown table for products looked up by exact name.
type Comparator struct {
	store catalog.Store
}

func NewComparator(store catalog.Store) *Comparator {
	return &Comparator{store: store}
}

func (c *Comparator) Compare(ctx context.Context, names []string) (out string) {
	if len(names) == 0 {
		return CompareNotFoundMessage
	}

	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Interface("panic", rec).Msg("Product comparison panicked")
			out = CompareNotFoundMessage
		}
	}()

	products, err := c.store.LookupByNames(ctx, names)
	if err != nil {
		logx.Error().Err(err).Str("backend", c.store.Backend()).Strs("names", names).Msg("Product comparison lookup failed")
		return CompareNotFoundMessage
	}
	if len(products) == 0 {
		return CompareNotFoundMessage
	}

	var b strings.Builder
	b.WriteString(compareTableHeader)
	for _, p := range products {
		fmt.Fprintf(&b, "| %s | ¥%s | %s | %s | %s |\n",
			p.Name, formatPrice(p.Price), p.SuitableFor, p.Advantages, p.Disadvantages)
	}

	if len(products) < 2 {
		b.WriteString(CompareHintMessage)
		return b.String()
	}

	// the recommendation names the first two requested names as given
	first, second := products[0].Name, products[1].Name
	if len(names) >= 2 {
		first, second = names[0], names[1]
	}
	fmt.Fprintf(&b, "\n总结：%s和%s各有优势，可根据你的肤质/预算选择～", first, second)
	return b.String()
}
