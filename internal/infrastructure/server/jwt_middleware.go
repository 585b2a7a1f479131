package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const adminRole = "admin"

var (
	errMissingToken  = errors.New("missing token")
	errInvalidToken  = errors.New("invalid token")
	errInvalidClaims = errors.New("invalid claims")
)

// UserClaims are the JWT claims supplied by the external auth collaborator.
type UserClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates bearer tokens and enforces the admin role on the
// manual briefing trigger.
type AuthMiddleware struct {
	secret []byte
	logger *slog.Logger
}

// NewAuthMiddleware creates the middleware from a shared HMAC secret.
func NewAuthMiddleware(secret string, logger *slog.Logger) *AuthMiddleware {
	if secret == "" && logger != nil {
		logger.Warn("JWT secret not set, admin endpoints will deny all requests")
	}
	return &AuthMiddleware{secret: []byte(secret), logger: logger}
}

// RequireAdmin rejects unauthenticated callers with 401 and authenticated
// non-admin callers with 403, before the pipeline ever starts.
func (m *AuthMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := m.validate(c)
			if err != nil {
				switch {
				case errors.Is(err, errMissingToken):
					return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
				case errors.Is(err, errInvalidToken), errors.Is(err, errInvalidClaims):
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				default:
					if m.logger != nil {
						m.logger.Error("token validation error", "error", err)
					}
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
				}
			}

			if claims.Role != adminRole {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}

			c.Set("user", claims)
			return next(c)
		}
	}
}

func (m *AuthMiddleware) validate(c echo.Context) (*UserClaims, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, errMissingToken
	}

	if len(m.secret) == 0 {
		return nil, errInvalidToken
	}

	claims := &UserClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidToken
	}

	return claims, nil
}
