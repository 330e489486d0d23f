package model

import (
	"time"
)

// Session is a server-side sign-in record referenced by the auth cookie.
type Session struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}

// IsActive reports whether the session may still authorize requests.
func (s *Session) IsActive() bool {
	if s == nil {
		return false
	}
	return s.RevokedAt == nil && time.Now().Before(s.ExpiresAt)
}
