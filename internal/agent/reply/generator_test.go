package reply

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chative-shopping-guide/server/internal/agent/graph/conversations"
	"github.com/Chative-shopping-guide/server/internal/agent/model"
	"github.com/Chative-shopping-guide/server/internal/agent/repo"
	errx "github.com/Chative-shopping-guide/server/internal/core/error"
)

// fakeChatModel answers with scripted replies, one per call.
type fakeChatModel struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	delay   time.Duration
	inputs  [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	i := len(f.inputs)
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.replies) {
		content = f.replies[i]
	}
	return schema.AssistantMessage(content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeChatModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func newTestGenerator(t *testing.T, cm einomodel.BaseChatModel, cfg model.ReplyModelConfig) (*Generator, *conversations.MessagesManager) {
	t.Helper()
	mm := conversations.NewMessagesManager(repo.NewMemoryConversationRepository(0), model.ConversationConfig{MaxTurns: 10})
	g, err := NewGenerator(context.Background(), cm, mm, Config{
		Model:  cfg,
		Prompt: model.PromptConfig{AssistantName: "小智", BusinessName: "电商商城"},
	}, WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	require.NoError(t, err)
	return g, mm
}

func TestGeneratorGenerate(t *testing.T) {
	cm := &fakeChatModel{replies: []string{" 好的，想要什么价位的呢？ ", "这款很适合你～"}}
	g, mm := newTestGenerator(t, cm, model.ReplyModelConfig{Model: "gemini-2.5-flash", Timeout: time.Second})
	ctx := context.Background()

	got, err := g.Generate(ctx, "s1", "推荐粉底液")
	require.NoError(t, err)
	assert.Equal(t, "好的，想要什么价位的呢？", got)

	_, err = g.Generate(ctx, "s1", "300元以内")
	require.NoError(t, err)

	require.Equal(t, 2, cm.calls())
	second := cm.inputs[1]
	require.Len(t, second, 2)
	assert.Equal(t, schema.System, second[0].Role)
	assert.Contains(t, second[1].Content, "对话历史：用户：推荐粉底液\n小智：好的，想要什么价位的呢？")
	assert.Contains(t, second[1].Content, "用户当前输入：300元以内")

	history, err := mm.RenderHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Contains(t, history, "小智：这款很适合你～")
}

func TestGeneratorRetriesTransientFailures(t *testing.T) {
	cm := &fakeChatModel{
		errs:    []error{errors.New("503 unavailable"), nil},
		replies: []string{"", "您好～"},
	}
	g, _ := newTestGenerator(t, cm, model.ReplyModelConfig{MaxRetries: 2, Timeout: time.Second})

	got, err := g.Generate(context.Background(), "s1", "你好")
	require.NoError(t, err)
	assert.Equal(t, "您好～", got)
	assert.Equal(t, 2, cm.calls())
}

func TestGeneratorGivesUpAfterRetries(t *testing.T) {
	boom := errors.New("quota exceeded")
	cm := &fakeChatModel{errs: []error{boom, boom, boom, boom}}
	g, mm := newTestGenerator(t, cm, model.ReplyModelConfig{MaxRetries: 2, Timeout: time.Second})

	_, err := g.Generate(context.Background(), "s1", "你好")
	require.Error(t, err)
	assert.Contains(t, err.Error(), boom.Error())
	assert.Equal(t, http.StatusServiceUnavailable, errx.StatusOf(err))
	assert.Equal(t, 3, cm.calls())

	history, err := mm.RenderHistory(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, history, "failed turns are not remembered")
}

func TestGeneratorRejectsEmptyReplies(t *testing.T) {
	cm := &fakeChatModel{replies: []string{"  ", ""}}
	g, _ := newTestGenerator(t, cm, model.ReplyModelConfig{MaxRetries: 1, Timeout: time.Second})

	_, err := g.Generate(context.Background(), "s1", "你好")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestGeneratorAttemptTimeout(t *testing.T) {
	cm := &fakeChatModel{delay: time.Second, replies: []string{"late"}}
	g, _ := newTestGenerator(t, cm, model.ReplyModelConfig{MaxRetries: 0, Timeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := g.Generate(context.Background(), "s1", "你好")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGeneratorReset(t *testing.T) {
	cm := &fakeChatModel{replies: []string{"好的"}}
	g, mm := newTestGenerator(t, cm, model.ReplyModelConfig{Timeout: time.Second})
	ctx := context.Background()

	_, err := g.Generate(ctx, "s1", "推荐口红")
	require.NoError(t, err)
	require.NoError(t, g.Reset(ctx, "s1"))

	history, err := mm.RenderHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestNewGeneratorValidates(t *testing.T) {
	mm := conversations.NewMessagesManager(repo.NewMemoryConversationRepository(0), model.ConversationConfig{})
	_, err := NewGenerator(context.Background(), nil, mm, Config{})
	assert.Error(t, err)

	_, err = NewGenerator(context.Background(), &fakeChatModel{}, nil, Config{})
	assert.Error(t, err)
}
