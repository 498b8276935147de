package auth

import (
	"strings"

	"github.com/google/uuid"
)

// NewSessionID returns an opaque, unguessable session identifier.
// UUIDv4 carries 122 bits of CSPRNG-backed randomness.
func NewSessionID() string {
	return uuid.NewString()
}

// NewCalendarToken returns an opaque secret embedded in a user's calendar
// feed URL. Dashes are stripped so the token is a plain 32-char hex string,
// which survives naive URL handling in calendar clients.
func NewCalendarToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
