package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/ecoscan/internal/model"
)

var (
	ErrKeyNotFound      = errors.New("key not found")
	ErrRevisionConflict = errors.New("revision conflict")
)

// KVRepository is a string key/value table with per-key revisions.
type KVRepository interface {
	Get(ctx context.Context, key string) (*model.KVEntry, error)
	// Put writes value if the stored revision equals expected (0 for a new key)
	// and returns the new revision, or ErrRevisionConflict.
	Put(ctx context.Context, key, value string, expected int64) (int64, error)
}

type kvRepository struct {
	db *sqlx.DB
}

func NewKVRepository(db *sqlx.DB) KVRepository {
	return &kvRepository{db: db}
}

func (r *kvRepository) Get(ctx context.Context, key string) (*model.KVEntry, error) {
	entry := &model.KVEntry{}
	query := `SELECT key, value, revision, updated_at FROM kv_entries WHERE key = $1`

	err := r.db.GetContext(ctx, entry, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (r *kvRepository) Put(ctx context.Context, key, value string, expected int64) (int64, error) {
	next := expected + 1
	now := time.Now()

	var (
		result sql.Result
		err    error
	)
	if expected == 0 {
		query := `
			INSERT INTO kv_entries (key, value, revision, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key) DO NOTHING
		`
		result, err = r.db.ExecContext(ctx, query, key, value, next, now)
	} else {
		query := `
			UPDATE kv_entries
			SET value = $1, revision = $2, updated_at = $3
			WHERE key = $4 AND revision = $5
		`
		result, err = r.db.ExecContext(ctx, query, value, next, now, key, expected)
	}
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, ErrRevisionConflict
	}

	return next, nil
}
