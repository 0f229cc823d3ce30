package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, KeyToken, "first"))
	require.NoError(t, s.Set(ctx, KeyToken, "second"))

	v, ok, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", v)

	require.NoError(t, s.Delete(ctx, KeyToken))
	_, ok, err = s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	// deleting an absent key is not an error
	require.NoError(t, s.Delete(ctx, KeyCookieConsent))
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryOpener_IsolatesClients(t *testing.T) {
	ctx := context.Background()
	o := NewMemoryOpener()

	require.NoError(t, o.Open("a").Set(ctx, KeyAnonymousID, "anon-a"))

	_, ok, _ := o.Open("b").Get(ctx, KeyAnonymousID)
	assert.False(t, ok)

	v, ok, _ := o.Open("a").Get(ctx, KeyAnonymousID)
	assert.True(t, ok)
	assert.Equal(t, "anon-a", v)
}

func TestSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	exerciseStore(t, db.Open("local"))

	ctx := context.Background()
	require.NoError(t, db.Open("local").Set(ctx, KeyCookieConsent, "accepted"))
	_, ok, err := db.Open("other").Get(ctx, KeyCookieConsent)
	require.NoError(t, err)
	assert.False(t, ok)
}
