package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/dmitrijs2005/productkeeper/internal/server/models"
	"github.com/labstack/echo/v4"
)

const msgMalformedBody = "Malformed request body"

func malformed(err error) error {
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}

func (s *Server) register(c echo.Context) error {
	const op = "register"

	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return s.respond(c, op, Fail(msgMalformedBody, malformed(err)))
	}

	u, err := s.users.Register(c.Request().Context(), req)
	if err != nil {
		return s.respond(c, op, Fail("User creation failed", err))
	}

	return s.respond(c, op, OK(http.StatusCreated, "User created successfully", "user", u.Public()))
}

func (s *Server) login(c echo.Context) error {
	const op = "login"

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return s.respond(c, op, Fail(msgMalformedBody, malformed(err)))
	}

	res, err := s.users.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return s.respond(c, op, Fail("Invalid credentials", err))
		}
		return s.respond(c, op, Fail("User sign in failed", err))
	}

	return s.respond(c, op, OK(http.StatusOK, "User signed in successfully",
		"user", res.User.Public(),
		"token", res.Token,
		"token_type", "Bearer",
		"expires_at", res.ExpiresAt,
	))
}

func (s *Server) logout(c echo.Context, id auth.Identity) error {
	const op = "logout"

	if err := s.users.Logout(c.Request().Context(), id); err != nil {
		return s.respond(c, op, Fail("User sign out failed", err))
	}

	return s.respond(c, op, OK(http.StatusOK, "User signed out successfully"))
}

// currentUser writes the public user view without the envelope.
func (s *Server) currentUser(c echo.Context, id auth.Identity) error {
	const op = "current_user"

	u, err := s.users.CurrentUser(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return s.respond(c, op, Fail(msgUnauthenticated, err))
		}
		return s.respond(c, op, Fail("User fetch failed", err))
	}

	s.logger.Info(c.Request().Context(), "current user", "op", op, "user_id", u.ID)
	return c.JSON(http.StatusOK, u.Public())
}
