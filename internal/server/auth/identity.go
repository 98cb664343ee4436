package auth

import "time"

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID    string
	SessionID string
	ExpiresAt time.Time
}
