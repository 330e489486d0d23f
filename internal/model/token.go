package model

import (
	"time"
)

// TokenTypeEmailVerify tokens confirm the address given at sign-up.
const TokenTypeEmailVerify = "email_verify"

// Token is a single-use secret mailed to a user. Consuming it stamps UsedAt.
type Token struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	Type      string     `db:"type"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// IsFor reports whether t was issued for the given token type.
func (t *Token) IsFor(tokenType string) bool {
	return t != nil && t.Type == tokenType
}
