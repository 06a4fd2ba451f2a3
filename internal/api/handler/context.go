package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/api/middleware"
	"github.com/Davelummy/velvet-rooms-project/internal/core/command"
)

// ctxActorID returns the caller's external id set by the Auth middleware.
func ctxActorID(c echo.Context) (int64, error) {
	id, _ := c.Get(middleware.KeyActorID).(int64)
	if id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return id, nil
}

// ctxIdentity rebuilds the caller identity, profile hints included.
func ctxIdentity(c echo.Context) (command.Identity, error) {
	id, err := ctxActorID(c)
	if err != nil {
		return command.Identity{}, err
	}
	ident := command.Identity{ExternalID: id}
	ident.Hints.Username, _ = c.Get(middleware.KeyUsername).(string)
	ident.Hints.FirstName, _ = c.Get(middleware.KeyFirstName).(string)
	ident.Hints.LastName, _ = c.Get(middleware.KeyLastName).(string)
	return ident, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
