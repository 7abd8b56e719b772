package middleware

import (
	"net/http"
	"strings"

	"github.com/anonto42/socialposts/backend/internal/token"
	"github.com/labstack/echo/v4"
)

const (
	// TokenHeader carries the raw token.
	TokenHeader = "x-auth-token"

	userContextKey = "user"
)

// TokenVerifier verifies a raw token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// JWTAuthMiddleware rejects requests without a valid token and stores the
// verified claims in the echo context.
func JWTAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString := extractToken(c.Request())
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid").SetInternal(err)
			}

			c.Set(userContextKey, claims)
			return next(c)
		}
	}
}

// extractToken reads x-auth-token, falling back to "Authorization: Bearer".
func extractToken(r *http.Request) string {
	if t := strings.TrimSpace(r.Header.Get(TokenHeader)); t != "" {
		return t
	}

	parts := strings.Fields(r.Header.Get(echo.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// UserID returns the authenticated user's id, or "" outside the guard.
func UserID(c echo.Context) string {
	claims, ok := c.Get(userContextKey).(*token.Claims)
	if !ok || claims == nil {
		return ""
	}
	return claims.User.ID
}
