package model

import "strings"

// Defaults applied to optional catalog columns at load time.
const (
	DefaultSuitableFor   = "通用肤质"
	DefaultAdvantages    = "暂无"
	DefaultDisadvantages = "暂无"
)

// Product is one immutable catalog row.
type Product struct {
	ID              string   `json:"product_id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Price           float64  `json:"price"`
	BudgetRange     string   `json:"budget_range,omitempty"`
	SuitableFor     string   `json:"suitable_for"`
	Parameters      string   `json:"parameters,omitempty"`
	Advantages      string   `json:"advantages"`
	Disadvantages   string   `json:"disadvantages"`
	CouponID        string   `json:"coupon_id,omitempty"`
	CouponAmount    *float64 `json:"coupon_amount,omitempty"`
	CouponCondition string   `json:"coupon_condition,omitempty"`
}

// HasCoupon reports whether a coupon amount is attached to the product.
func (p Product) HasCoupon() bool {
	return p.CouponAmount != nil
}

// DiscountPrice is the price after the coupon. A missing or negative amount
// leaves the original price; the result is never below zero.
func (p Product) DiscountPrice() float64 {
	price := p.Price
	if price < 0 {
		price = 0
	}
	if p.CouponAmount == nil || *p.CouponAmount < 0 {
		return price
	}
	if d := price - *p.CouponAmount; d > 0 {
		return d
	}
	return 0
}

// CouponValue is the displayed coupon amount; negative amounts show as zero.
func (p Product) CouponValue() float64 {
	if p.CouponAmount == nil || *p.CouponAmount < 0 {
		return 0
	}
	return *p.CouponAmount
}

// ApplyDefaults fills the optional descriptive fields that were left empty.
func (p *Product) ApplyDefaults() {
	if p.SuitableFor == "" {
		p.SuitableFor = DefaultSuitableFor
	}
	if p.Advantages == "" {
		p.Advantages = DefaultAdvantages
	}
	if p.Disadvantages == "" {
		p.Disadvantages = DefaultDisadvantages
	}
}

// Constraint is the structured filter parsed from one user message.
type Constraint struct {
	MinPrice    float64
	MaxPrice    float64
	Category    string
	Suitability string
}

// Filter is a Constraint plus the result cap handed to a catalog store.
type Filter struct {
	Constraint
	Limit int
}

// Matches reports whether p satisfies every predicate of f. Category is an
// exact match and suitability a substring match against SuitableFor.
func (f Filter) Matches(p Product) bool {
	if p.Category != f.Category {
		return false
	}
	if p.Price < f.MinPrice || p.Price > f.MaxPrice {
		return false
	}
	return strings.Contains(p.SuitableFor, f.Suitability)
}
