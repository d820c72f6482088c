package agent

import (
	"sync"
	"time"
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the per-conversation context read and written by each
// processing turn.
type Conversation struct {
	ID               string              `json:"id"`
	History          []Turn              `json:"history"`
	LastRequirements *Requirements       `json:"lastRequirements,omitempty"`
	LastWorkflow     *WorkflowDefinition `json:"lastWorkflow,omitempty"`
	ExecutionID      string              `json:"executionId,omitempty"`
}

// ContextStore keeps conversation context between turns. Concurrent turns on
// the same conversation id race with last-write-wins semantics; this is an
// accepted limitation, not a serialization point.
type ContextStore interface {
	Get(id string) (*Conversation, bool)
	Put(conv *Conversation)
}

// MemoryStore is a process-lifetime in-memory ContextStore.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{conversations: make(map[string]*Conversation)}
}

// Get returns a copy of the stored conversation, so a turn in progress never
// shares mutable state with the store.
func (s *MemoryStore) Get(id string) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	return copyConversation(conv), true
}

// Put stores a copy of the conversation under its id, replacing any previous
// value.
func (s *MemoryStore) Put(conv *Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = copyConversation(conv)
}

func copyConversation(conv *Conversation) *Conversation {
	c := *conv
	c.History = append([]Turn(nil), conv.History...)
	return &c
}
