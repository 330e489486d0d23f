package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/jmoiron/sqlx"

	"github.com/templui/ecoscan/internal/model"
)

func createUser(t *testing.T, conn *sqlx.DB, email string) *model.User {
	t.Helper()

	user := &model.User{ID: uuid.New().String(), Email: email, CreatedAt: time.Now()}
	require.NoError(t, NewUserRepository(conn).Create(context.Background(), user))
	return user
}

func TestSessionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	user := createUser(t, conn, "a@example.com")
	repo := NewSessionRepository(conn)

	session := &model.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, session))
	require.NotEmpty(t, session.ID)

	got, err := repo.ByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive())

	require.NoError(t, repo.Revoke(ctx, session.ID))
	require.NoError(t, repo.Revoke(ctx, session.ID))

	got, err = repo.ByID(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive())

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	conn := newTestDB(t)
	createUser(t, conn, "a@example.com")

	dup := &model.User{ID: uuid.New().String(), Email: "a@example.com", CreatedAt: time.Now()}
	err := NewUserRepository(conn).Create(context.Background(), dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestTokenRepository_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	user := createUser(t, conn, "a@example.com")
	repo := NewTokenRepository(conn)

	require.NoError(t, repo.Create(ctx, &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeEmailVerify,
		Token:     "abc",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	tok, err := repo.Consume(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, tok.UserID)

	_, err = repo.Consume(ctx, "abc")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenRepository_RevokePendingAndCleanup(t *testing.T) {
	ctx := context.Background()
	conn := newTestDB(t)
	user := createUser(t, conn, "a@example.com")
	repo := NewTokenRepository(conn)

	create := func(token string, expires time.Time) {
		require.NoError(t, repo.Create(ctx, &model.Token{
			UserID:    user.ID,
			Type:      model.TokenTypeEmailVerify,
			Token:     token,
			ExpiresAt: expires,
		}))
	}

	create("old", time.Now().Add(time.Hour))
	require.NoError(t, repo.RevokePending(ctx, user.ID, model.TokenTypeEmailVerify))
	_, err := repo.Consume(ctx, "old")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	create("stale", time.Now().Add(-48*time.Hour))
	create("fresh", time.Now().Add(time.Hour))

	removed, err := repo.CleanupExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.Consume(ctx, "fresh")
	assert.NoError(t, err)
}
