package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/templui/ecoscan/internal/config"
)

func TestLocalStorage_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "quarantine/k/1.json", strings.NewReader(`{"broken"`)))

	r, err := s.Open(ctx, "quarantine/k/1.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, `{"broken"`, string(data))

	require.NoError(t, s.Save(ctx, "quarantine/k/1.json", strings.NewReader(`[]`)))
	r, err = s.Open(ctx, "quarantine/k/1.json")
	require.NoError(t, err)
	data, _ = io.ReadAll(r)
	r.Close()
	assert.Equal(t, `[]`, string(data))

	require.NoError(t, s.Delete(ctx, "quarantine/k/1.json"))
	_, err = s.Open(ctx, "quarantine/k/1.json")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "quarantine/k/1.json"), "deleting a missing object is not an error")
}

func TestLocalStorage_RejectsEscapes(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = s.Save(context.Background(), "../outside.json", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = s.Open(context.Background(), "")
	assert.Error(t, err)
}

func TestNew_LocalWithoutBucket(t *testing.T) {
	s, err := New(&cfg.Config{ArchivePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)
}
