package model

// RetrievalResult is the outcome of one product retrieval.
type RetrievalResult struct {
	ProductIDs []string `json:"product_ids"`
	Content    string   `json:"content"`
}

// CouponResult is the outcome of one coupon lookup.
type CouponResult struct {
	Content string `json:"content"`
}
