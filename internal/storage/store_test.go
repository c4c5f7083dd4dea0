package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStores(t *testing.T) map[string]Store {
	t.Helper()

	boltStore, err := OpenBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { boltStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"bolt":   boltStore,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set("token", []byte("abc123")))

			v, ok, err := store.Get("token")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("abc123"), v)

			require.NoError(t, store.Set("token", []byte("def456")))
			v, _, _ = store.Get("token")
			assert.Equal(t, []byte("def456"), v)

			require.NoError(t, store.Delete("token"))
			_, ok, err = store.Get("token")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting an absent key is a no-op
			require.NoError(t, store.Delete("token"))
		})
	}
}

func TestStore_JSONHelpers(t *testing.T) {
	type snapshot struct {
		SessionID string `json:"sessionId"`
		Count     int    `json:"count"`
	}

	for name, store := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			var out snapshot
			ok, err := GetJSON(store, "snap", &out)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, SetJSON(store, "snap", snapshot{SessionID: "s-1", Count: 3}))

			ok, err = GetJSON(store, "snap", &out)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "s-1", out.SessionID)
			assert.Equal(t, 3, out.Count)
		})
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("guest", []byte("g-42")))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get("guest")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("g-42"), v)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.Set("k", []byte("v")), ErrClosed)
	_, _, err := store.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
}
