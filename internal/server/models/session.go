package models

import "time"

// Session backs one issued bearer token; its ID is the token's jti.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}
