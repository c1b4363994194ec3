package conversation

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentloop/core"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*KVStore)(nil)
	_ Store = (*BoltStore)(nil)
)

func seedConversation(id string) *Conversation {
	conv := New(id)
	conv.Append(core.NewSystemContent("You are a helpful assistant."))
	conv.Append(core.NewUserContent("hello"))
	conv.Append(core.NewAssistantContent("Hi! How can I help?"))
	conv.SetMetadata("service_url", "https://smba.example.com")
	conv.SetMetadata("is_group", "false")
	return conv
}

// exercise runs the shared Load/Save/Reset contract against any Store.
func exercise(t *testing.T, store Store) {
	t.Helper()

	_, err := store.Load("C1")
	assert.ErrorIs(t, err, ErrNotFound)

	conv := seedConversation("C1")
	require.NoError(t, store.Save(conv))

	loaded, err := store.Load("C1")
	require.NoError(t, err)
	assert.Equal(t, "C1", loaded.ID)
	assert.Equal(t, conv.Messages(), loaded.Messages())

	url, ok := loaded.GetMetadata("service_url")
	assert.True(t, ok)
	assert.Equal(t, "https://smba.example.com", url)

	// Saving again after appending must extend, never rewrite, the prefix.
	before := loaded.Messages()
	loaded.Append(core.NewUserContent("second turn"))
	require.NoError(t, store.Save(loaded))

	reloaded, err := store.Load("C1")
	require.NoError(t, err)
	require.Equal(t, len(before)+1, reloaded.Len())
	assert.Equal(t, before, reloaded.Messages()[:len(before)])

	require.NoError(t, store.Reset("C1"))
	_, err = store.Load("C1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Resetting an unknown id is a no-op.
	assert.NoError(t, store.Reset("unknown"))
}

func TestInMemoryStore(t *testing.T) {
	exercise(t, NewInMemoryStore())
}

func TestKVStore(t *testing.T) {
	exercise(t, NewKVStore(MapKeyValue{}))
}

func TestBoltStore(t *testing.T) {
	store, err := NewBoltStore(filepath.Join(t.TempDir(), "conv.bolt"))
	require.NoError(t, err)
	defer store.Close()

	exercise(t, store)
}

func TestInMemoryStoreCloneIsolation(t *testing.T) {
	store := NewInMemoryStore()
	conv := seedConversation("C2")
	require.NoError(t, store.Save(conv))

	// Mutating the saved record must not leak into the store.
	conv.Append(core.NewUserContent("not persisted"))

	loaded, err := store.Load("C2")
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Len())
}

func TestLastSaveWins(t *testing.T) {
	store := NewInMemoryStore()

	base := seedConversation("C3")
	require.NoError(t, store.Save(base))

	// Two turns load the same snapshot without awaiting each other.
	first, err := store.Load("C3")
	require.NoError(t, err)
	second, err := store.Load("C3")
	require.NoError(t, err)

	first.Append(core.NewUserContent("from turn one"))
	second.Append(core.NewUserContent("from turn two"))

	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))

	// The second save replaces the first wholesale: a lost update, not
	// corruption.
	final, err := store.Load("C3")
	require.NoError(t, err)
	require.Equal(t, 4, final.Len())
	assert.Equal(t, "from turn two", final.Messages()[3].Text())
}
