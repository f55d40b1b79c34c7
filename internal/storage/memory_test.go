package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privacy-node/internal/storage"
)

func TestGenerateDigestIsPure(t *testing.T) {
	value := []byte("some stored value")
	assert.Equal(t, storage.GenerateDigest(value), storage.GenerateDigest(value))
	assert.NotEqual(t, storage.GenerateDigest(value), storage.GenerateDigest([]byte("another value")))
}

func TestMemoryStorePutGet(t *testing.T) {
	store := storage.NewMemoryStore()

	value := []byte("payload bytes")
	key, err := store.Put(value)
	require.NoError(t, err)
	assert.Equal(t, storage.GenerateDigest(value), key)

	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, value, got)

	_, err = store.Get("missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStoreUpdateKeepsKey(t *testing.T) {
	store := storage.NewMemoryStore()

	key, err := store.Put([]byte("original"))
	require.NoError(t, err)

	// identity pinning: the new content lives under the old key
	require.NoError(t, store.Update(key, []byte("replacement")))
	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("replacement"), got)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := storage.NewMemoryStore()

	key, err := store.Put([]byte("doomed"))
	require.NoError(t, err)

	value, err := store.Delete(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("doomed"), value)

	_, err = store.Delete(key)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := storage.NewMemoryStore()

	value := []byte("mutable")
	key, err := store.Put(value)
	require.NoError(t, err)

	value[0] = 'X'
	got, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("mutable"), got)
}
