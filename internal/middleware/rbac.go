package middleware

import (
	"net/http"

	"byggmart/internal/common"
	"byggmart/internal/services"

	"github.com/labstack/echo/v4"
)

// RequireAction rejects requests whose role may not perform the action.
// Services authorize again on their own; this gate just keeps forbidden
// requests out of the handler bodies.
func RequireAction(action services.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if err := services.Authorize(role, action); err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
