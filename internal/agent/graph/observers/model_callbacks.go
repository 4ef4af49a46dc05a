package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	agentmodel "github.com/Chative-shopping-guide/server/internal/agent/model"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

// newModelHandler logs model calls and the token usage cost of each call.
func newModelHandler(modelName string) *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", string(info.Type)).Str("name", info.Name)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages)).Str("user", lastUserContent(input.Messages))
			}
			ev.Msg("Model call started")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			name := modelName
			if output.Config != nil && output.Config.Model != "" {
				name = output.Config.Model
			}

			ev := logx.Debug().Str("component", string(info.Type)).Str("model", name)
			if output.Message != nil {
				ev = ev.Int("reply_chars", len([]rune(strings.TrimSpace(output.Message.Content))))
			}
			if usage := usageOf(output); usage != nil {
				inC, outC, totalC := agentmodel.ComputeCost(usage, agentmodel.ResolvePricing(name))
				ev = ev.
					Int("prompt_tokens", usage.PromptTokens).
					Int("completion_tokens", usage.CompletionTokens).
					Int("total_tokens", usage.TotalTokens).
					Float64("input_cost_usd", inC).
					Float64("output_cost_usd", outC).
					Float64("total_cost_usd", totalC)
			}
			ev.Msg("LLM usage")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Warn().Err(err).Str("component", string(info.Type)).Str("name", info.Name).Msg("Model call failed")
			return ctx
		},
	}
}

func usageOf(output *model.CallbackOutput) *schema.TokenUsage {
	if output.TokenUsage != nil {
		return &schema.TokenUsage{
			PromptTokens:     output.TokenUsage.PromptTokens,
			CompletionTokens: output.TokenUsage.CompletionTokens,
			TotalTokens:      output.TokenUsage.TotalTokens,
		}
	}
	if output.Message != nil && output.Message.ResponseMeta != nil {
		return output.Message.ResponseMeta.Usage
	}
	return nil
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}
