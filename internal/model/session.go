package model

import "time"

// Session is a server-side login session. The ID is an opaque random
// identifier stored in the "session" cookie; all session state lives in the
// database so a session can be revoked immediately on logout.
type Session struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
