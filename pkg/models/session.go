package models

import "time"

// Session binds a client-presented identifier to an authenticated mail account
type Session struct {
	ID        string    `json:"session_id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	UserEmail *string   `json:"user_email" db:"user_email"` // nil until OAuth completes
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Authenticated reports whether an account email has been bound to the session
func (s *Session) Authenticated() bool {
	return s.UserEmail != nil && *s.UserEmail != ""
}

// SessionUpdate is a partial update; nil fields are left unchanged
type SessionUpdate struct {
	UserEmail *string
	IsActive  *bool
}
