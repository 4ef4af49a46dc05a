package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-shopping-guide/server/internal/agent/catalog"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const (
	NoCouponInfoMessage    = "当前无可用优惠券信息～"
	NoProductCouponMessage = "当前商品暂无可用优惠券～"
	CouponFailedMessage    = "优惠券查询失败，请稍后再试～"
)

// CouponResolver summarises the coupons attached to retrieved products.
type CouponResolver struct {
	store catalog.Store
}

func NewCouponResolver(store catalog.Store) *CouponResolver {
	return &CouponResolver{store: store}
}

func (c *CouponResolver) Resolve(ctx context.Context, ids []string) (res model.CouponResult) {
	if len(ids) == 0 {
		return model.CouponResult{Content: NoCouponInfoMessage}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logx.Error().Interface("panic", rec).Str("backend", c.store.Backend()).Msg("Coupon lookup panicked")
			res = model.CouponResult{Content: CouponFailedMessage}
		}
	}()

	products, err := c.store.LookupByIDs(ctx, ids)
	if err != nil {
		logx.Error().Err(err).Str("backend", c.store.Backend()).Strs("product_ids", ids).Msg("Coupon lookup failed")
		return model.CouponResult{Content: CouponFailedMessage}
	}

	var lines strings.Builder
	for _, p := range products {
		if !p.HasCoupon() {
			continue
		}
		fmt.Fprintf(&lines, "- %s：满%s减%s元，折后¥%s\n",
			p.Name, p.CouponCondition, formatPrice(p.CouponValue()), formatPrice(p.DiscountPrice()))
	}
	if lines.Len() == 0 {
		return model.CouponResult{Content: NoProductCouponMessage}
	}
	return model.CouponResult{Content: "🎫 可用优惠券汇总：\n" + lines.String()}
}
