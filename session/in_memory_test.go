package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/deepresearch/core"
)

var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_GetCreatesLazily(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.GetEvents())
	assert.Equal(t, []string{"s1"}, store.IDs())
}

func TestInMemoryStore_EmptyIDRejected(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get("")
	assert.Error(t, err)
	_, err = store.Create("")
	assert.Error(t, err)
	assert.Error(t, store.AppendEvent("", core.NewEvent("r", "a")))
}

func TestInMemoryStore_AppendEventAndCloneIsolation(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendEvent("s1", core.NewMessageEvent("run-1", "Research Manager", "hello")))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.GetEvents(), 1)

	sess.AddEvent(core.NewMessageEvent("run-1", "x", "local only"))

	again, err := store.Get("s1")
	require.NoError(t, err)
	assert.Len(t, again.GetEvents(), 1)
	assert.Equal(t, "hello", again.GetEvents()[0].Text())
}

func TestInMemoryStore_CreateOverwrites(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.AppendEvent("s1", core.NewMessageEvent("run-1", "a", "hello")))

	sess, err := store.Create("s1")
	require.NoError(t, err)
	assert.Empty(t, sess.GetEvents())

	again, _ := store.Get("s1")
	assert.Empty(t, again.GetEvents())
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.AppendEvent(fmt.Sprintf("s%d", i%5), core.NewEvent("run", "a")))
			_, _ = store.Get(fmt.Sprintf("s%d", i%5))
		}(i)
	}
	wg.Wait()

	assert.Len(t, store.IDs(), 5)
	for _, id := range store.IDs() {
		sess, err := store.Get(id)
		require.NoError(t, err)
		assert.Len(t, sess.GetEvents(), 10)
	}
}
