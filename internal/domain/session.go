package domain

import "time"

// Session is an opaque bearer credential. The raw token is handed out once
// at creation and never stored; only its SHA-256 hash is persisted.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"tokenHash"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session lifetime has elapsed.
func (s Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
