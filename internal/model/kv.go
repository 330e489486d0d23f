package model

import (
	"time"
)

// KVEntry is one row of the key/value table backing activity logs.
type KVEntry struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	Revision  int64     `db:"revision"`
	UpdatedAt time.Time `db:"updated_at"`
}
