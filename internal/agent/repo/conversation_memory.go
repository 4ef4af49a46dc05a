package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Chative-shopping-guide/server/internal/agent/model"
)

// MemoryConversationRepository is the process-local history store used when no
// Redis URL is configured. Sessions idle for longer than ttl are evicted by the
// cache's background sweep, whether or not they are accessed again. A
// non-positive ttl keeps sessions until cleared.
type MemoryConversationRepository struct {
	// mu serialises the read-modify-write of AddMessage per repository.
	mu       sync.Mutex
	sessions *expirable.LRU[string, []*schema.Message]
}

func NewMemoryConversationRepository(ttl time.Duration) *MemoryConversationRepository {
	return &MemoryConversationRepository{
		sessions: expirable.NewLRU[string, []*schema.Message](0, nil, ttl),
	}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, sessionID string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, _ := r.sessions.Get(sessionID)
	msgs := make([]*schema.Message, len(prev), len(prev)+1)
	copy(msgs, prev)
	cp := *message
	msgs = append(msgs, &cp)

	// Add refreshes the session's expiry, like EXPIRE after RPUSH.
	r.sessions.Add(sessionID, msgs)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, sessionID string) (*model.ConversationHistory, error) {
	msgs := []*schema.Message{}
	if stored, ok := r.sessions.Get(sessionID); ok {
		for _, m := range stored {
			cp := *m
			msgs = append(msgs, &cp)
		}
	}
	return &model.ConversationHistory{SessionID: sessionID, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions.Remove(sessionID)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, sessionID string) (int, error) {
	stored, ok := r.sessions.Get(sessionID)
	if !ok {
		return 0, nil
	}
	return len(stored), nil
}

// sessionCount reports the sessions still held, including expired ones the
// sweep has not reached yet.
func (r *MemoryConversationRepository) sessionCount() int {
	return r.sessions.Len()
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
