package observers

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageOf(t *testing.T) {
	t.Run("token usage field", func(t *testing.T) {
		out := &model.CallbackOutput{TokenUsage: &model.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}
		usage := usageOf(out)
		require.NotNil(t, usage)
		assert.Equal(t, 15, usage.TotalTokens)
	})

	t.Run("response meta fallback", func(t *testing.T) {
		out := &model.CallbackOutput{Message: &schema.Message{
			Role:         schema.Assistant,
			ResponseMeta: &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}},
		}}
		usage := usageOf(out)
		require.NotNil(t, usage)
		assert.Equal(t, 4, usage.CompletionTokens)
	})

	t.Run("no usage", func(t *testing.T) {
		assert.Nil(t, usageOf(&model.CallbackOutput{Message: schema.AssistantMessage("你好", nil)}))
	})
}

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("system"),
		schema.UserMessage(" 第一句 "),
		schema.AssistantMessage("回复", nil),
		nil,
		schema.UserMessage(" 推荐粉底液 "),
		schema.AssistantMessage("好的", nil),
	}
	assert.Equal(t, "推荐粉底液", lastUserContent(msgs))
	assert.Empty(t, lastUserContent(nil))
}

func TestNewAllCallbacks(t *testing.T) {
	h := NewAllCallbacks("gemini-2.5-flash")
	require.NotNil(t, h)

	ctx := context.Background()
	modelInfo := &einocb.RunInfo{Name: "ReplyModel", Type: "Gemini", Component: components.ComponentOfChatModel}
	promptInfo := &einocb.RunInfo{Name: "ReplyPrompt", Component: components.ComponentOfPrompt}

	assert.NotPanics(t, func() {
		ctx = h.OnStart(ctx, modelInfo, &model.CallbackInput{Messages: []*schema.Message{schema.UserMessage("hi")}})
		ctx = h.OnEnd(ctx, modelInfo, &model.CallbackOutput{
			Message:    schema.AssistantMessage("你好", nil),
			TokenUsage: &model.TokenUsage{PromptTokens: 1000, CompletionTokens: 200, TotalTokens: 1200},
		})
		ctx = h.OnError(ctx, modelInfo, errors.New("quota exceeded"))

		ctx = h.OnStart(ctx, promptInfo, &prompt.CallbackInput{Variables: map[string]any{"input": "hi"}})
		ctx = h.OnEnd(ctx, promptInfo, &prompt.CallbackOutput{Result: []*schema.Message{schema.UserMessage("hi")}})
	})
	assert.NotNil(t, ctx)
}
