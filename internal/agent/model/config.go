package model

import "time"

// ================ Config ================
type CatalogConfig struct {
	Backend         string  `envconfig:"CATALOG_BACKEND" default:"table"`
	Path            string  `envconfig:"CATALOG_PATH" default:"data/product_data.csv"`
	DefaultMaxPrice float64 `envconfig:"CATALOG_DEFAULT_MAX_PRICE" default:"1000"`
	ResultLimit     int     `envconfig:"CATALOG_RESULT_LIMIT" default:"3"`
}

const (
	CatalogBackendTable = "table"
	CatalogBackendGraph = "graph"
)

type IntentConfig struct {
	OffTopicKeywords   []string `envconfig:"INTENT_OFF_TOPIC_KEYWORDS" default:"天气,星期,时间,吃饭,游戏,电影"`
	AfterSalesKeywords []string `envconfig:"INTENT_AFTER_SALES_KEYWORDS" default:"退换货,保质期,售后,保修"`
	ToolKeywords       []string `envconfig:"INTENT_TOOL_KEYWORDS" default:"推荐,对比,哪个好,选哪个"`
}

type ResponseConfig struct {
	MaxLength int `envconfig:"RESPONSE_MAX_LENGTH" default:"250"`
}

type ConversationConfig struct {
	TTL      time.Duration `envconfig:"CONVERSATION_TTL" default:"30m"`
	MaxTurns int           `envconfig:"CONVERSATION_MAX_TURNS" default:"10"`
}

type ReplyModelConfig struct {
	Model       string        `envconfig:"REPLY_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int           `envconfig:"REPLY_MAX_TOKENS" default:"1024"`
	Temperature float32       `envconfig:"REPLY_TEMPERATURE" default:"0.7"`
	Timeout     time.Duration `envconfig:"REPLY_TIMEOUT" default:"20s"`
	MaxRetries  int           `envconfig:"REPLY_MAX_RETRIES" default:"2"`
	// ThinkingBudget caps Gemini thinking tokens; negative leaves the model default.
	ThinkingBudget int32 `envconfig:"REPLY_THINKING_BUDGET" default:"0"`
}

type PromptConfig struct {
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"小智"`
	BusinessName  string `envconfig:"PROMPT_BUSINESS_NAME" default:"电商商城"`
}

type ServerConfig struct {
	Port            string        `envconfig:"HTTP_PORT" default:"8080"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"5s"`
}
