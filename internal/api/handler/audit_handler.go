package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// AuditHandler serves the admin audit log.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /v1/admin/actions.
//
// @Summary      Recent admin actions, newest first (admin only)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum rows (default 20, max 100)"
// @Success      200    {object}  listResponse[adminActionResponse]
// @Failure      403    {object}  map[string]string
// @Router       /v1/admin/actions [get]
func (h *AuditHandler) List(c echo.Context) error {
	adminID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	actions, err := h.service.ListAdminActions(c.Request().Context(), adminID, queryLimit(c))
	if err != nil {
		return err
	}

	out := make([]adminActionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, toAdminActionResponse(a))
	}
	return c.JSON(http.StatusOK, listResponse[adminActionResponse]{Items: out, Count: len(out)})
}
