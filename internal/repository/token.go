package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/templui/ecoscan/internal/model"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepository stores single-use email tokens. Used tokens stay as an
// audit trail until CleanupExpired removes them.
type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	Consume(ctx context.Context, token string) (*model.Token, error)
	RevokePending(ctx context.Context, userID, tokenType string) error
	CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO tokens (id, user_id, type, token, expires_at, created_at)
		VALUES (:id, :user_id, :type, :token, :expires_at, :created_at)
	`, token)
	return err
}

// Consume stamps the token as used and returns it, in one statement, so
// of two concurrent clicks on a link only one gets the token.
func (r *tokenRepository) Consume(ctx context.Context, token string) (*model.Token, error) {
	now := time.Now()

	var t model.Token
	err := r.db.GetContext(ctx, &t, `
		UPDATE tokens SET used_at = $1
		WHERE token = $2 AND used_at IS NULL AND expires_at > $1
		RETURNING *
	`, now, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// RevokePending deletes the user's unused tokens of one type, so only the
// most recently mailed link works.
func (r *tokenRepository) RevokePending(ctx context.Context, userID, tokenType string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`,
		userID, tokenType)
	return err
}

// CleanupExpired removes tokens used or expired more than olderThan ago.
func (r *tokenRepository) CleanupExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tokens WHERE used_at < $1 OR expires_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
