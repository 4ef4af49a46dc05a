package prompts

import (
	_ "embed"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

//go:embed template/agent_prompt.txt
var agentSystemPrompt string

// Template variables.
const (
	VarAssistantName = "assistant_name"
	VarBusinessName  = "business_name"
	VarHistory       = "history"
	VarInput         = "input"
)

const agentUserPrompt = "对话历史：{history}\n用户当前输入：{input}\n你的回复："

// NewAgentTemplate builds the reply prompt: the shopping-guide system prompt
// followed by the rendered dialogue history and the current input.
func NewAgentTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(agentSystemPrompt),
		schema.UserMessage(agentUserPrompt),
	)
}

// AgentVariables returns the template variables for one turn.
func AgentVariables(cfg model.PromptConfig, history, input string) map[string]any {
	return map[string]any{
		VarAssistantName: cfg.AssistantName,
		VarBusinessName:  cfg.BusinessName,
		VarHistory:       history,
		VarInput:         input,
	}
}
