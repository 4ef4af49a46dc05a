package nodes

import (
	"strings"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

// IntentClassifier routes a message by keyword. Off-topic is checked before
// after-sales; anything else is conversational.
type IntentClassifier struct {
	offTopic   []string
	afterSales []string
	tool       []string
}

func NewIntentClassifier(cfg model.IntentConfig) *IntentClassifier {
	return &IntentClassifier{
		offTopic:   cleanKeywords(cfg.OffTopicKeywords, false),
		afterSales: cleanKeywords(cfg.AfterSalesKeywords, false),
		tool:       cleanKeywords(cfg.ToolKeywords, true),
	}
}

func (c *IntentClassifier) Classify(text string) model.Intent {
	switch {
	case containsAny(text, c.offTopic):
		return model.IntentOffTopic
	case containsAny(text, c.afterSales):
		return model.IntentAfterSales
	default:
		return model.IntentConversational
	}
}

// WantsTools reports whether the message asks for a recommendation or a
// comparison. Matching is case-insensitive.
func (c *IntentClassifier) WantsTools(text string) bool {
	return containsAny(strings.ToLower(text), c.tool)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func cleanKeywords(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if lower {
			kw = strings.ToLower(kw)
		}
		out = append(out, kw)
	}
	return out
}
