package middleware

import (
	"net/http"
	"strings"

	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/jwtutil"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the bearer JWT and stores the caller in the context
func AuthMiddleware(j *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing Authorization header")
				prometheus.RecordAuthAttempt("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if it's a Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid Authorization header format")
				prometheus.RecordAuthAttempt("malformed_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := j.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthAttempt("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// Store user info in context for later use
			c.Set("user_id", claims.UserID)
			c.Set("email", claims.Email)
			c.Set("logger", log.With(zap.String("user_id", claims.UserID)))

			return next(c)
		}
	}
}

// GetUserIDFromContext returns the authenticated user's ID
func GetUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get("user_id").(string)
	return id, ok
}
