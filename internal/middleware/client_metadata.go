package middleware

import (
	"context"

	"voucherflow/internal/common"

	"github.com/labstack/echo/v4"
)

// ClientMetadata records the caller's address and user agent in the
// request context so audit entries carry them without every handler
// threading them through.
func ClientMetadata() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := context.WithValue(c.Request().Context(), common.ClientIPKey, c.RealIP())
			ctx = context.WithValue(ctx, common.UserAgentKey, c.Request().UserAgent())
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
