package model

// Intent is the classification of one user message.
type Intent string

const (
	IntentOffTopic       Intent = "off_topic"
	IntentAfterSales     Intent = "after_sales"
	IntentConversational Intent = "conversational"
)

// ChatInput is the input of the orchestration graph.
type ChatInput struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// Turn carries a message and its draft reply between graph nodes.
type Turn struct {
	SessionID string
	Query     string
	Intent    Intent
	Reply     string
	// Terminal is set when the reply must not be augmented any further,
	// e.g. the reply generator failed.
	Terminal bool
	// Augmented reports that retrieval and coupon content was appended.
	Augmented bool
}

// TurnState stores per-invocation state for the orchestration graph.
// It is registered via compose.WithGenLocalState and only touched inside
// state handlers, which eino serializes.
type TurnState struct {
	SessionID string
	Route     []string
}
