package middleware

import (
	"net/http"

	"voucherflow/internal/common"
	"voucherflow/internal/workflow"

	"github.com/labstack/echo/v4"
)

// RequireRole guards administrative surfaces with the closed role enum.
// Lifecycle events are authorized centrally inside the voucher service;
// this is only for endpoints that are not lifecycle transitions
// (rotation, batch verification, exports).
func RequireRole(allowed ...workflow.Role) echo.MiddlewareFunc {
	allowedSet := make(map[workflow.Role]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawRole, ok := common.GetRoleFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing role")
			}
			role, ok := workflow.ParseRole(rawRole)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Unknown role")
			}
			if role != workflow.RoleAdmin && !allowedSet[role] {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
