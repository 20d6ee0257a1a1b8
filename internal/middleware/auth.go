package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/pkg/jwtutil"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// ClaimsKey holds the validated *jwtutil.AdminClaims
const ClaimsKey = "user"

// JWTAuthMiddleware validates the bearer token and checks that it was issued
// for the partition serving the request. It must run after TenantMiddleware.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Extract the token from the Authorization header
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			}

			t := TenantFrom(c)
			if t == nil || claims.Partition != t.SchemaName {
				log.Warn("Token issued for another partition",
					zap.String("token_partition", claims.Partition))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Token not valid for this site"})
			}

			c.Set(ClaimsKey, claims)
			log.Debug("JWT token validated successfully",
				zap.Uint("user_id", claims.UserID),
				zap.String("username", claims.Username))

			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by JWTAuthMiddleware
func ClaimsFrom(c echo.Context) *jwtutil.AdminClaims {
	claims, _ := c.Get(ClaimsKey).(*jwtutil.AdminClaims)
	return claims
}
