package middleware

import (
	"context"
	"net/http"

	"voucherflow/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTConfig builds the echo-jwt configuration for protected routes.
// Tokens are issued by the external identity provider; this core trusts
// their claims completely.
func JWTConfig(jwtSecret string) echojwt.Config {
	return echojwt.Config{
		SigningKey: []byte(jwtSecret),
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		},
	}
}

// ClaimsToContext copies the identity claims from the validated token into
// the request context. Must run after the echo-jwt middleware.
func ClaimsToContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid claims")
			}

			sub, ok := claims["sub"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing user id in token")
			}
			userID, err := uuid.Parse(sub)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user id format")
			}

			tenantClaim, ok := claims["tenant_id"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing tenant id in token")
			}
			tenantID, err := uuid.Parse(tenantClaim)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid tenant id format")
			}

			role, ok := claims["role"].(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing role in token")
			}

			ctx := context.WithValue(c.Request().Context(), common.UserIDKey, userID)
			ctx = context.WithValue(ctx, common.TenantIDKey, tenantID)
			ctx = context.WithValue(ctx, common.RoleKey, role)
			if name, ok := claims["name"].(string); ok {
				ctx = context.WithValue(ctx, common.ActorNameKey, name)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}
