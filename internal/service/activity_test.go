package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/storage"
	"github.com/templui/ecoscan/internal/validation"
)

// memoryStore is an in-memory ActivityStore.
type memoryStore struct {
	logs map[string][]model.Activity
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{logs: map[string][]model.Activity{}}
}

func (m *memoryStore) Append(_ context.Context, key string, a *model.Activity) error {
	if m.err != nil {
		return m.err
	}
	a.ID = key + "-" + string(rune('a'+len(m.logs[key])))
	m.logs[key] = append(m.logs[key], *a)
	return nil
}

func (m *memoryStore) All(_ context.Context, key string) ([]model.Activity, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.Activity{}, m.logs[key]...), nil
}

func TestActivityService_Log(t *testing.T) {
	store := newMemoryStore()
	svc := NewActivityService(store, nil, "ecoscan-activities")
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	a, err := svc.Log(context.Background(), "u1", "transport", "  drove 10 km  ")
	require.NoError(t, err)

	assert.Equal(t, "drove 10 km", a.Description)
	assert.Equal(t, 1.0, a.CO2)
	assert.Equal(t, fixed, a.Timestamp)
	assert.NotEmpty(t, a.ID)
	assert.Len(t, store.logs["ecoscan-activities:u1"], 1)
}

func TestActivityService_LogValidation(t *testing.T) {
	store := newMemoryStore()
	svc := NewActivityService(store, nil, "ecoscan-activities")

	_, err := svc.Log(context.Background(), "u1", "", "drove 10 km")
	assert.ErrorIs(t, err, validation.ErrMissingCategory)

	_, err = svc.Log(context.Background(), "u1", "food", "")
	assert.ErrorIs(t, err, validation.ErrMissingDescription)

	_, err = svc.Log(context.Background(), "u1", "gardening", "planted")
	assert.ErrorIs(t, err, validation.ErrUnknownCategory)

	assert.Empty(t, store.logs, "invalid input stores nothing")
}

func TestActivityService_LogStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("disk full")
	svc := NewActivityService(store, nil, "ecoscan-activities")

	_, err := svc.Log(context.Background(), "u1", "food", "lunch")
	assert.ErrorContains(t, err, "disk full")
}

func TestActivityService_DashboardIsPerUser(t *testing.T) {
	ctx := context.Background()
	svc := NewActivityService(newMemoryStore(), nil, "ecoscan-activities")

	_, err := svc.Log(ctx, "u1", "electricity", "used 12 kwh")
	require.NoError(t, err)
	_, err = svc.Log(ctx, "u2", "food", "lunch")
	require.NoError(t, err)

	summary, err := svc.Dashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 5.4, summary.TotalCO2, 1e-9)
}

func TestActivityService_Preview(t *testing.T) {
	svc := NewActivityService(newMemoryStore(), nil, "k")

	co2, ok := svc.Preview("food", "ate dinner")
	assert.True(t, ok)
	assert.Equal(t, 0.3, co2)

	_, ok = svc.Preview("food", " ")
	assert.False(t, ok)
}

func TestActivityService_ExportArchivesCopy(t *testing.T) {
	ctx := context.Background()
	archive, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svc := NewActivityService(newMemoryStore(), archive, "ecoscan-activities")
	fixed := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return fixed }

	_, err = svc.Log(ctx, "u1", "food", "lunch")
	require.NoError(t, err)

	data, err := svc.Export(ctx, "u1")
	require.NoError(t, err)

	var export activityExport
	require.NoError(t, json.Unmarshal(data, &export))
	require.Len(t, export.Activities, 1)
	assert.Equal(t, 0.3, export.TotalCO2)

	r, err := archive.Open(ctx, "exports/u1/1700000000.json")
	require.NoError(t, err)
	defer r.Close()
	archived, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(archived))
}
