package httpserver

import (
	"strings"

	"github.com/dmitrijs2005/productkeeper/internal/common"
	"github.com/dmitrijs2005/productkeeper/internal/server/auth"
	"github.com/labstack/echo/v4"
)

const msgUnauthenticated = "Unauthenticated."

// authedHandler is a handler that needs the caller's identity.
type authedHandler func(c echo.Context, id auth.Identity) error

// requireAuth resolves the bearer token once and passes the identity to h.
// Missing, invalid, expired or revoked tokens are rejected with 401 before
// h runs.
func (s *Server) requireAuth(op string, h authedHandler) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return s.respond(c, op, Fail(msgUnauthenticated, common.ErrorUnauthorized))
		}

		id, err := s.users.Authenticate(c.Request().Context(), token)
		if err != nil {
			return s.respond(c, op, Fail(msgUnauthenticated, err))
		}

		return h(c, id)
	}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(common.AuthorizationHeaderName)
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}
