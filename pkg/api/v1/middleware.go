package apiv1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanketnighot/hookified/pkg/auth"
)

// NewUserAuthMiddleware validates the bearer JWT and stores the caller's
// user id on the request context.
func NewUserAuthMiddleware(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
			if token == "" {
				return ErrorResponse(c, http.StatusUnauthorized, "authorization required")
			}

			userId, err := auth.ParseToken(jwtSecret, token)
			if err != nil {
				return ErrorResponse(c, http.StatusUnauthorized, "invalid token")
			}

			ctx := auth.WithUserId(c.Request().Context(), userId)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
