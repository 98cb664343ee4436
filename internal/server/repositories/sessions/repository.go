// Package sessions declares the server-side repository contract for the
// sessions that back issued bearer tokens.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/productkeeper/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking sessions.
type Repository interface {
	// Create stores a new session row.
	Create(ctx context.Context, s *models.Session) error

	// Find returns the session with the given id, or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.Session, error)

	// Delete removes a session. Deleting a non-existent session is not an error.
	Delete(ctx context.Context, id string) error
}
