package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// RegistrationHandler exposes onboarding and role switching.
type RegistrationHandler struct {
	registrations ports.RegistrationService
	actors        ports.ActorService
}

func NewRegistrationHandler(registrations ports.RegistrationService, actors ports.ActorService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, actors: actors}
}

// Begin handles POST /v1/registrations.
//
// @Summary      Start registration for a role
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      beginRegistrationRequest  true  "Role to register as"
// @Success      202   {object}  registrationResponse
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/registrations [post]
func (h *RegistrationHandler) Begin(c echo.Context) error {
	var req beginRegistrationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	res, err := h.registrations.Begin(c.Request().Context(), actorID, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, toRegistrationResponse(res))
}

// Submit handles POST /v1/registrations/input.
//
// @Summary      Answer the current registration step
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      registrationInputRequest  true  "Email or display name"
// @Success      200   {object}  registrationResponse
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/registrations/input [post]
func (h *RegistrationHandler) Submit(c echo.Context) error {
	var req registrationInputRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	res, err := h.registrations.Submit(c.Request().Context(), actorID, req.Text)
	if err != nil {
		return err
	}
	if !res.Pending {
		return echo.NewHTTPError(http.StatusNotFound, "no registration in progress")
	}
	return c.JSON(http.StatusOK, toRegistrationResponse(res))
}

// Cancel handles DELETE /v1/registrations.
//
// @Summary      Abandon the registration in progress
// @Tags         registrations
// @Security     BearerAuth
// @Success      204
// @Router       /v1/registrations [delete]
func (h *RegistrationHandler) Cancel(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	if err := h.registrations.Cancel(c.Request().Context(), actorID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// SwitchRole handles POST /v1/me/role.
//
// @Summary      Switch between client and model
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      switchRoleRequest  true  "Target role"
// @Success      200   {object}  actorResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/me/role [post]
func (h *RegistrationHandler) SwitchRole(c echo.Context) error {
	var req switchRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	actor, err := h.actors.SwitchRole(c.Request().Context(), actorID, domain.Role(req.Role))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toActorResponse(actor))
}
