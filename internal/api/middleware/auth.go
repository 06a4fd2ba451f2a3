package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by Auth.
const (
	KeyActorID   = "actor_id"
	KeyUsername  = "username"
	KeyFirstName = "first_name"
	KeyLastName  = "last_name"
	KeyRole      = "role"
)

// Auth validates the HS256 bearer token minted by the bot gateway and stores
// the caller identity in the echo context. actor_id is the external id and is
// always stored as int64.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			actorID, ok := externalID(claims[KeyActorID])
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing actor identity")
			}

			c.Set(KeyActorID, actorID)
			for _, key := range []string{KeyUsername, KeyFirstName, KeyLastName, KeyRole} {
				s, _ := claims[key].(string)
				c.Set(key, s)
			}
			return next(c)
		}
	}
}

// externalID accepts the id as a JSON number or a decimal string.
func externalID(v any) (int64, bool) {
	switch id := v.(type) {
	case float64:
		if id <= 0 || id != float64(int64(id)) {
			return 0, false
		}
		return int64(id), true
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return n, err == nil && n > 0
	default:
		return 0, false
	}
}
