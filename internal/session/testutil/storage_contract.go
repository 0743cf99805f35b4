package testutil

import (
	"context"
	"testing"

	"melodiapp-web/internal/session/domain/model"
	"melodiapp-web/internal/session/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTabStorageContract checks the behaviour every TabStorage driver shares.
// tabPrefix keeps concurrent runs against a shared server apart.
func RunTabStorageContract(t *testing.T, storage repository.TabStorage, tabPrefix string) {
	t.Helper()
	ctx := context.Background()
	tabA := tabPrefix + "tab-a"
	tabB := tabPrefix + "tab-b"

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, storage.Ping(ctx))
	})

	t.Run("missing key", func(t *testing.T) {
		value, ok, err := storage.GetItem(ctx, tabA, model.TokenStorageKey)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, storage.SetItem(ctx, tabA, model.TokenStorageKey, "token-a"))

		value, ok, err := storage.GetItem(ctx, tabA, model.TokenStorageKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "token-a", value)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, storage.SetItem(ctx, tabA, model.TokenStorageKey, "token-a2"))

		value, ok, err := storage.GetItem(ctx, tabA, model.TokenStorageKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "token-a2", value)
	})

	t.Run("tabs are isolated", func(t *testing.T) {
		_, ok, err := storage.GetItem(ctx, tabB, model.TokenStorageKey)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, storage.SetItem(ctx, tabB, model.TokenStorageKey, "token-b"))
		value, _, err := storage.GetItem(ctx, tabA, model.TokenStorageKey)
		require.NoError(t, err)
		assert.Equal(t, "token-a2", value)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, storage.RemoveItem(ctx, tabA, model.TokenStorageKey))

		_, ok, err := storage.GetItem(ctx, tabA, model.TokenStorageKey)
		require.NoError(t, err)
		assert.False(t, ok)

		value, ok, err := storage.GetItem(ctx, tabB, model.TokenStorageKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "token-b", value)
	})

	t.Run("remove missing key", func(t *testing.T) {
		assert.NoError(t, storage.RemoveItem(ctx, tabA, model.TokenStorageKey))
	})

	t.Run("empty tab id", func(t *testing.T) {
		assert.ErrorIs(t, storage.SetItem(ctx, "", model.TokenStorageKey, "x"), model.ErrTabIDRequired)
		_, _, err := storage.GetItem(ctx, "", model.TokenStorageKey)
		assert.ErrorIs(t, err, model.ErrTabIDRequired)
		assert.ErrorIs(t, storage.RemoveItem(ctx, "", model.TokenStorageKey), model.ErrTabIDRequired)
	})

	require.NoError(t, storage.RemoveItem(ctx, tabB, model.TokenStorageKey))
}
