package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminChecker reports whether an external id holds administrator rights.
type AdminChecker interface {
	IsAdmin(externalID int64) bool
}

// AdminOnly rejects callers that are not on the admin allowlist.
func AdminOnly(admins AdminChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actorID, _ := c.Get(KeyActorID).(int64)
			if actorID == 0 || !admins.IsAdmin(actorID) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Admin access required."})
			}
			return next(c)
		}
	}
}
