// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash holds the bcrypt hash of the user's password; the plaintext
// is never stored. CalendarToken is an opaque secret embedded in the user's
// calendar feed URL; it grants read access to the feed without a session
// and is rotated on demand, invalidating any previously issued feed URL.
//
// Both secrets are tagged `json:"-"` so they can never leak into an API
// response by accident.
type User struct {
	ID            string    `json:"id"        db:"id"`
	Email         string    `json:"email"     db:"email"`
	Name          string    `json:"name"      db:"name"`
	PasswordHash  string    `json:"-"         db:"password_hash"`
	CalendarToken string    `json:"-"         db:"calendar_token"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}
