package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// KeyActor holds the resolved *domain.Actor.
const KeyActor = "actor"

// ResolveActor loads or creates the caller's actor and refreshes its profile
// hints from the token. It must run after Auth.
func ResolveActor(actors ports.ActorService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actorID, ok := c.Get(KeyActorID).(int64)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			hints := domain.ProfileHints{}
			hints.Username, _ = c.Get(KeyUsername).(string)
			hints.FirstName, _ = c.Get(KeyFirstName).(string)
			hints.LastName, _ = c.Get(KeyLastName).(string)

			actor, err := actors.GetOrCreateActor(c.Request().Context(), actorID, hints)
			if err != nil {
				return err
			}
			c.Set(KeyActor, actor)
			return next(c)
		}
	}
}

// RegistrationGate rejects the request while the caller has an onboarding
// flow in progress. Registration routes are mounted outside the gate.
func RegistrationGate(registrations ports.RegistrationService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actorID, _ := c.Get(KeyActorID).(int64)
			pending, err := registrations.Pending(c.Request().Context(), actorID)
			if err != nil {
				return err
			}
			if pending != nil {
				return domain.ErrPendingOnboarding
			}
			return next(c)
		}
	}
}
