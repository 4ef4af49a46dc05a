// Package extract turns a free-text shopping request into a structured
// catalog constraint using ordered keyword rules and price patterns.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

const (
	// DefaultMaxPrice is used when the message carries no budget.
	DefaultMaxPrice = 1000

	DefaultSuitability = "通用"
	DefaultCategory    = "美妆"
)

var (
	// single upper bound: "500元", "500以内", "不超过500"
	maxPricePattern = regexp.MustCompile(`(\d+)元|(\d+)以内|不超过(\d+)`)
	// range: "300-500元"
	rangePattern = regexp.MustCompile(`(\d+)-(\d+)元`)
)

// Rule maps any of its keywords to Value. Rules are evaluated in order and
// the first rule with a keyword contained in the text wins.
type Rule struct {
	Keywords []string
	Value    string
}

var DefaultSuitabilityRules = []Rule{
	{Keywords: []string{"油性", "油皮"}, Value: "油性"},
	{Keywords: []string{"干性", "干皮"}, Value: "干性"},
	{Keywords: []string{"混合"}, Value: "混合性"},
	{Keywords: []string{"干燥", "干唇"}, Value: "干燥唇部"},
	{Keywords: []string{"浅唇"}, Value: "浅唇"},
}

var DefaultCategoryRules = []Rule{
	{Keywords: []string{"口红", "唇釉"}, Value: "美妆-口红"},
	{Keywords: []string{"粉底液"}, Value: "美妆-粉底液"},
	{Keywords: []string{"面霜"}, Value: "美妆-面霜"},
}

// Extractor parses constraints. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	defaultMaxPrice  float64
	suitabilityRules []Rule
	categoryRules    []Rule
}

type Option func(*Extractor)

// WithSuitabilityRules replaces the suitability rule list.
func WithSuitabilityRules(rules []Rule) Option {
	return func(e *Extractor) { e.suitabilityRules = rules }
}

// WithCategoryRules replaces the category rule list.
func WithCategoryRules(rules []Rule) Option {
	return func(e *Extractor) { e.categoryRules = rules }
}

// New creates an Extractor. A non-positive defaultMaxPrice selects DefaultMaxPrice.
func New(defaultMaxPrice float64, opts ...Option) *Extractor {
	if defaultMaxPrice <= 0 {
		defaultMaxPrice = DefaultMaxPrice
	}
	e := &Extractor{
		defaultMaxPrice:  defaultMaxPrice,
		suitabilityRules: DefaultSuitabilityRules,
		categoryRules:    DefaultCategoryRules,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: fields that cannot be derived keep their defaults.
func (e *Extractor) Extract(text string) model.Constraint {
	c := model.Constraint{
		MinPrice:    0,
		MaxPrice:    e.defaultMaxPrice,
		Suitability: firstMatch(e.suitabilityRules, text, DefaultSuitability),
		Category:    firstMatch(e.categoryRules, text, DefaultCategory),
	}

	if m := maxPricePattern.FindStringSubmatch(text); m != nil {
		for _, g := range m[1:] {
			if g == "" {
				continue
			}
			if v, ok := parseAmount(g); ok {
				c.MaxPrice = v
			}
			break
		}
	}

	// a range overrides the single bound
	if m := rangePattern.FindStringSubmatch(text); m != nil {
		lo, okLo := parseAmount(m[1])
		hi, okHi := parseAmount(m[2])
		if okLo && okHi {
			c.MinPrice, c.MaxPrice = lo, hi
		}
	}

	return c
}

func firstMatch(rules []Rule, text, fallback string) string {
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				return r.Value
			}
		}
	}
	return fallback
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
