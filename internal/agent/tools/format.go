// Package tools implements the deterministic shopping tools the assistant
// appends to generated replies: product retrieval, coupon summary and
// side-by-side comparison.
package tools

import "strconv"

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
