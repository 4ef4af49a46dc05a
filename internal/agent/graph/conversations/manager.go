package conversations

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

const (
	UserPrefix      = "用户"
	AssistantPrefix = "小智"
)

// MessagesManager renders and records one session's dialogue buffer.
type MessagesManager struct {
	conversationRepo model.ConversationRepository
	maxTurns         int
	assistantPrefix  string
}

func NewMessagesManager(conversationRepo model.ConversationRepository, config model.ConversationConfig) *MessagesManager {
	return &MessagesManager{
		conversationRepo: conversationRepo,
		maxTurns:         config.MaxTurns,
		assistantPrefix:  AssistantPrefix,
	}
}

// WithAssistantName changes the prefix used for assistant lines.
func (cm *MessagesManager) WithAssistantName(name string) *MessagesManager {
	if name != "" {
		cm.assistantPrefix = name
	}
	return cm
}

// RenderHistory returns the most recent messages as "用户：…" / "小智：…" lines.
func (cm *MessagesManager) RenderHistory(ctx context.Context, sessionID string) (string, error) {
	history, err := cm.conversationRepo.LoadHistory(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, msg := range trimTail(history.Messages, cm.maxTurns) {
		if msg == nil || msg.Content == "" {
			continue
		}
		switch msg.Role {
		case schema.User:
			b.WriteString(UserPrefix + "：" + msg.Content + "\n")
		case schema.Assistant:
			b.WriteString(cm.assistantPrefix + "：" + msg.Content + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// SaveTurn appends the user message and the generated reply.
func (cm *MessagesManager) SaveTurn(ctx context.Context, sessionID, query, reply string) error {
	if err := cm.conversationRepo.AddMessage(ctx, sessionID, schema.UserMessage(query)); err != nil {
		return err
	}
	return cm.conversationRepo.AddMessage(ctx, sessionID, schema.AssistantMessage(reply, nil))
}

// Clear drops the buffer of sessionID only.
func (cm *MessagesManager) Clear(ctx context.Context, sessionID string) error {
	return cm.conversationRepo.ClearHistory(ctx, sessionID)
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
