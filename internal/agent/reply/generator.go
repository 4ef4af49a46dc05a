package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/Chative-shopping-guide/server/internal/agent/graph/conversations"
	"github.com/Chative-shopping-guide/server/internal/agent/graph/observers"
	"github.com/Chative-shopping-guide/server/internal/agent/graph/prompts"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
	errx "github.com/Chative-shopping-guide/server/internal/core/error"
	logx "github.com/Chative-shopping-guide/server/pkg/logger"
)

const (
	replyTemplateNodeKey = "reply_template"
	replyModelNodeKey    = "reply_model"
	defaultReplyTimeout  = 20 * time.Second
)

// ErrEmptyReply is returned when the model answers with blank content.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Config holds everything the generator needs besides the chat model.
type Config struct {
	Model  model.ReplyModelConfig
	Prompt model.PromptConfig
}

// Generator renders the agent prompt with the session history, calls the chat
// model with bounded retries and records the turn in conversation memory.
type Generator struct {
	runnable   compose.Runnable[map[string]any, *schema.Message]
	memory     *conversations.MessagesManager
	prompt     model.PromptConfig
	modelName  string
	timeout    time.Duration
	maxRetries int
	newBackOff func() backoff.BackOff
	callbacks  []einocb.Handler
}

type Option func(*Generator)

// WithBackOff overrides the retry schedule.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(g *Generator) { g.newBackOff = fn }
}

// WithCallbacks replaces the default observers.
func WithCallbacks(handlers ...einocb.Handler) Option {
	return func(g *Generator) { g.callbacks = handlers }
}

func NewGenerator(ctx context.Context, chatModel einomodel.BaseChatModel, memory *conversations.MessagesManager, cfg Config, opts ...Option) (*Generator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if memory == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(prompts.NewAgentTemplate(), compose.WithNodeKey(replyTemplateNodeKey))
	chain.AppendChatModel(chatModel, compose.WithNodeKey(replyModelNodeKey))

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile reply chain: %w", err)
	}

	g := &Generator{
		runnable:   runnable,
		memory:     memory,
		prompt:     cfg.Prompt,
		modelName:  cfg.Model.Model,
		timeout:    cfg.Model.Timeout,
		maxRetries: cfg.Model.MaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	if g.timeout <= 0 {
		g.timeout = defaultReplyTimeout
	}
	if g.maxRetries < 0 {
		g.maxRetries = 0
	}
	g.callbacks = []einocb.Handler{observers.NewAllCallbacks(g.modelName)}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate returns the model reply for query. Memory read/write failures are
// logged and do not fail the turn; model failures do.
func (g *Generator) Generate(ctx context.Context, sessionID, query string) (string, error) {
	history, err := g.memory.RenderHistory(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Conversation history unavailable; replying without it")
		history = ""
	}
	vars := prompts.AgentVariables(g.prompt, history, query)

	attempt := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.maxRetries)), ctx)
	msg, err := backoff.RetryWithData(func() (*schema.Message, error) {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		out, err := g.runnable.Invoke(attemptCtx, vars, compose.WithCallbacks(g.callbacks...))
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			logx.Warn().Err(err).Str("session_id", sessionID).Int("attempt", attempt).Msg("Reply attempt failed")
			return nil, err
		}
		if out == nil || strings.TrimSpace(out.Content) == "" {
			return nil, ErrEmptyReply
		}
		return out, nil
	}, policy)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Int("attempts", attempt).Msg("Reply generation failed")
		return "", errx.WrapReply(err)
	}

	reply := strings.TrimSpace(msg.Content)
	if err := g.memory.SaveTurn(ctx, sessionID, query, reply); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to save turn to conversation memory")
	}
	return reply, nil
}

// Reset clears the conversation memory of sessionID.
func (g *Generator) Reset(ctx context.Context, sessionID string) error {
	return g.memory.Clear(ctx, sessionID)
}
