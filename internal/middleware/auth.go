package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/krishibandhu/krishibandhu-backend/internal/model"
)

// TokenStore is the subset of the token repository the verifier
// needs: an exact-value lookup constrained to a token kind.
type TokenStore interface {
	FindByValue(ctx context.Context, value, kind string) (model.Token, error)
}

// UserStore resolves the owning user of a verified token.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// BearerAuth returns an Echo middleware that resolves a Bearer access
// token against the token store and injects the owning user into the
// request context. Only rows with kind "access" are consulted, so a
// refresh token presented here always fails. A token whose expiry is
// strictly in the past is rejected but not deleted; cleanup is the
// sweeper's job. Handlers read the user via CurrentUser(c).
func BearerAuth(tokens TokenStore, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			tok, err := tokens.FindByValue(ctx, raw, model.TokenKindAccess)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			if tok.Expired(time.Now().UTC()) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			u, err := users.GetByID(ctx, tok.UserID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}

// CurrentUser returns the user injected by BearerAuth. The second
// return is false when the route was not wrapped by the middleware.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get("user").(model.User)
	return u, ok
}
