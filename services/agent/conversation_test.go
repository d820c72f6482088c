package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get("nope")
	assert.False(t, ok)
}

func TestMemoryStore_PutThenGet(t *testing.T) {
	store := NewMemoryStore()
	store.Put(&Conversation{
		ID:      "c1",
		History: []Turn{{Role: "user", Content: "hello", Timestamp: time.Now()}},
	})

	conv, ok := store.Get("c1")
	require.True(t, ok)
	assert.Equal(t, "c1", conv.ID)
	require.Len(t, conv.History, 1)
	assert.Equal(t, "hello", conv.History[0].Content)
}

func TestMemoryStore_CopiesOnGet(t *testing.T) {
	store := NewMemoryStore()
	store.Put(&Conversation{ID: "c1", History: []Turn{{Role: "user", Content: "hello"}}})

	conv, _ := store.Get("c1")
	conv.History = append(conv.History, Turn{Role: "assistant", Content: "hi there"})
	conv.ExecutionID = "exec-1"

	stored, _ := store.Get("c1")
	assert.Len(t, stored.History, 1)
	assert.Empty(t, stored.ExecutionID)
}

func TestMemoryStore_CopiesOnPut(t *testing.T) {
	store := NewMemoryStore()
	conv := &Conversation{ID: "c1", History: []Turn{{Role: "user", Content: "hello"}}}
	store.Put(conv)

	conv.History[0].Content = "mutated"

	stored, _ := store.Get("c1")
	assert.Equal(t, "hello", stored.History[0].Content)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore()
	store.Put(&Conversation{ID: "c1", ExecutionID: "exec-1"})
	store.Put(&Conversation{ID: "c1", ExecutionID: "exec-2"})

	conv, _ := store.Get("c1")
	assert.Equal(t, "exec-2", conv.ExecutionID)
}
