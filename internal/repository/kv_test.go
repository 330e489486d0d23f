package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepository_GetMissing(t *testing.T) {
	repo := NewKVRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKVRepository_PutRevisions(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository(newTestDB(t))

	rev, err := repo.Put(ctx, "k", "one", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	_, err = repo.Put(ctx, "k", "again", 0)
	assert.ErrorIs(t, err, ErrRevisionConflict, "creating an existing key conflicts")

	rev, err = repo.Put(ctx, "k", "two", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	_, err = repo.Put(ctx, "k", "stale", 1)
	assert.ErrorIs(t, err, ErrRevisionConflict)

	entry, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", entry.Value)
	assert.Equal(t, int64(2), entry.Revision)
}
