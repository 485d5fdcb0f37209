// Package middleware provides shared request processing for handlers.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/reelclub/movienight/internal/repository"
)

// SessionValidator resolves an opaque session token to its owning group id.
// *repository.SessionRepo satisfies it; tests substitute fakes.
type SessionValidator interface {
	Validate(ctx echo.Context) (uint64, error)
}

// sessionRepoValidator adapts SessionRepo to pull the token out of the
// request before validating it against the store.
type sessionRepoValidator struct{ sessions *repository.SessionRepo }

func (v sessionRepoValidator) Validate(c echo.Context) (uint64, error) {
	token := bearerToken(c)
	if token == "" {
		return 0, repository.ErrNotFound
	}
	return v.sessions.Validate(c.Request().Context(), token)
}

// SessionAuth returns a middleware that validates the Bearer session token
// on every request and injects the owning group id into the context under
// "group_id". Expiry is checked against the store on each call, so a
// session past its 24h window is rejected everywhere at once. Missing,
// unknown and expired tokens are indistinguishable to the caller: all 401.
func SessionAuth(sessions *repository.SessionRepo) echo.MiddlewareFunc {
	return sessionAuthWith(sessionRepoValidator{sessions: sessions})
}

func sessionAuthWith(v SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			groupID, err := v.Validate(c)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrSessionExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
			}
			c.Set("group_id", groupID)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// GroupID reads the authorized group id stored by SessionAuth. The second
// return is false when the middleware did not run on this route.
func GroupID(c echo.Context) (uint64, bool) {
	v, ok := c.Get("group_id").(uint64)
	return v, ok
}
