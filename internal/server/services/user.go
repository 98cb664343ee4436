// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, logout and resolving
// bearer tokens to an authenticated identity.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/logging"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/dmitrijs2005/productkeeper/internal/server/config"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	"github.com/dmitrijs2005/productkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/productkeeper/internal/server/sessioncache"
	"github.com/dmitrijs2005/productkeeper/internal/server/validation"
	"github.com/google/uuid"
)

// dummyHash is compared against when the email is unknown so that a failed
// login takes the same time either way.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3ZoCzgtpnIH5UP1e0Lh1d.e"

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials, open a session and sign a token
// - Logout: revoke the session behind a token
// - Authenticate: resolve a bearer token to an Identity
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	cache                 sessioncache.Cache
	revoked               *revokedSessions
	validator             *validation.Validator
	logger                logging.Logger
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cache sessioncache.Cache, cfg *config.Config, l logging.Logger) *UserService {
	if cache == nil {
		cache = sessioncache.Nop{}
	}
	return &UserService{
		db:                    db,
		repomanager:           m,
		cache:                 cache,
		revoked:               newRevokedSessions(),
		validator:             validation.New(m.Users(db)),
		logger:                l.With("module", "users"),
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register validates req and creates the user. Rule failures, including an
// email taken by a concurrent registration, are returned as *validation.Errors.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, validation.FieldError("email", "The email has already been taken.")
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials in req and, on success, opens a session and
// signs a token for it. Unknown email and wrong password both yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	if err := s.validator.Struct(ctx, req); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = auth.CheckPassword(dummyHash, req.Password)
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	sessionID := uuid.NewString()
	token, expiresAt, err := auth.GenerateToken(user.ID, sessionID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	session := &models.Session{ID: sessionID, UserID: user.ID, ExpiresAt: expiresAt}
	if err := s.repomanager.Sessions(s.db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}

	if err := s.cache.Set(ctx, sessionID, user.ID, time.Until(expiresAt)); err != nil {
		s.logger.Warn(ctx, "session cache set failed", "session_id", sessionID, "error", err)
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout revokes the session of id. The token stops working immediately:
// the session is marked revoked locally before the row is deleted, and the
// cache gets a revocation marker that outlives any cached entry.
func (s *UserService) Logout(ctx context.Context, id auth.Identity) error {
	s.revoked.add(id.SessionID, id.ExpiresAt)

	if err := s.repomanager.Sessions(s.db).Delete(ctx, id.SessionID); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	if err := s.cache.Revoke(ctx, id.SessionID, time.Until(id.ExpiresAt)); err != nil {
		s.logger.Warn(ctx, "session cache revoke failed", "session_id", id.SessionID, "error", err)
	}
	return nil
}

// Authenticate verifies token and checks that its session is still open.
// It returns common.ErrInvalidToken, common.ErrTokenExpired or
// common.ErrTokenRevoked for rejected tokens.
func (s *UserService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	id, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return auth.Identity{}, err
	}
	if s.revoked.has(id.SessionID) {
		return auth.Identity{}, common.ErrTokenRevoked
	}

	uid, ok, err := s.cache.Get(ctx, id.SessionID)
	if err != nil {
		s.logger.Warn(ctx, "session cache get failed", "session_id", id.SessionID, "error", err)
	}
	if ok && uid == id.UserID {
		return id, nil
	}

	session, err := s.repomanager.Sessions(s.db).Find(ctx, id.SessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return auth.Identity{}, common.ErrTokenRevoked
		}
		return auth.Identity{}, fmt.Errorf("error searching session: %w", err)
	}
	if session.UserID != id.UserID {
		return auth.Identity{}, common.ErrInvalidToken
	}
	if !session.ExpiresAt.After(time.Now()) {
		return auth.Identity{}, common.ErrTokenExpired
	}

	if err := s.cache.Set(ctx, id.SessionID, id.UserID, time.Until(session.ExpiresAt)); err != nil {
		s.logger.Warn(ctx, "session cache set failed", "session_id", id.SessionID, "error", err)
	}

	return id, nil
}

// CurrentUser returns the user behind id.
func (s *UserService) CurrentUser(ctx context.Context, id auth.Identity) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	return u, nil
}
