// Package storetest provides the behaviour suite shared by statestore backends.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/statestore"
)

// RunContract verifies that store adheres to the statestore.Store contract.
func RunContract(t *testing.T, store statestore.Store) {
	t.Helper()

	ctx := context.Background()
	machine := "contract-" + time.Now().Format("20060102150405.000000000")
	key := statestore.Key{Machine: machine, ID: "order-1"}

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, "pending"))

		state, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "pending", state)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, "pending"))
		require.NoError(t, store.Save(ctx, key, "approved"))

		state, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "approved", state)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, statestore.Key{Machine: machine, ID: "missing"})
		assert.ErrorIs(t, err, statestore.ErrNotFound)
	})

	t.Run("Machines are isolated", func(t *testing.T) {
		other := statestore.Key{Machine: machine + "-other", ID: key.ID}
		require.NoError(t, store.Save(ctx, key, "pending"))
		require.NoError(t, store.Save(ctx, other, "shipped"))
		defer func() { _ = store.Delete(ctx, other) }()

		state, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "pending", state)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, "pending"))
		require.NoError(t, store.Delete(ctx, key))

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, statestore.ErrNotFound, "Load after Delete should return ErrNotFound")
	})

	t.Run("Delete Non-Existent", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, statestore.Key{Machine: machine, ID: "missing"}))
	})

	t.Run("List", func(t *testing.T) {
		id1 := statestore.Key{Machine: machine, ID: "list-1"}
		id2 := statestore.Key{Machine: machine, ID: "list-2"}
		require.NoError(t, store.Save(ctx, id1, "pending"))
		require.NoError(t, store.Save(ctx, id2, "approved"))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx, machine)
		require.NoError(t, err)
		assert.Contains(t, ids, "list-1")
		assert.Contains(t, ids, "list-2")
	})

	t.Run("List is sorted", func(t *testing.T) {
		listed := machine + "-sorted"
		for _, id := range []string{"c", "a", "b"} {
			k := statestore.Key{Machine: listed, ID: id}
			require.NoError(t, store.Save(ctx, k, "pending"))
			require.NoError(t, store.Save(ctx, k, "approved"))
			defer func() { _ = store.Delete(ctx, k) }()
		}

		ids, err := store.List(ctx, listed)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("Separators in id stay in their machine", func(t *testing.T) {
		scoped := machine + "-scoped"
		withColon := statestore.Key{Machine: scoped, ID: "eu:1"}
		withSlash := statestore.Key{Machine: scoped, ID: "eu/2"}
		require.NoError(t, store.Save(ctx, withColon, "pending"))
		require.NoError(t, store.Save(ctx, withSlash, "shipped"))
		defer func() {
			_ = store.Delete(ctx, withColon)
			_ = store.Delete(ctx, withSlash)
		}()

		state, err := store.Load(ctx, withColon)
		require.NoError(t, err)
		assert.Equal(t, "pending", state)

		ids, err := store.List(ctx, scoped)
		require.NoError(t, err)
		assert.Equal(t, []string{"eu/2", "eu:1"}, ids)

		ids, err = store.List(ctx, scoped+"-eu")
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Save rejects invalid key", func(t *testing.T) {
		err := store.Save(ctx, statestore.Key{Machine: machine}, "pending")
		assert.ErrorIs(t, err, statestore.ErrInvalidKey)

		err = store.Save(ctx, statestore.Key{Machine: machine + ":eu", ID: "1"}, "pending")
		assert.ErrorIs(t, err, statestore.ErrInvalidKey)
	})
}
