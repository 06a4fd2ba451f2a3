package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/api/metrics"
	"github.com/Davelummy/velvet-rooms-project/internal/core/command"
)

// CommandRouter handles one bot message.
type CommandRouter interface {
	Handle(ctx context.Context, id command.Identity, text string) command.Reply
}

// CommandHandler relays bot-style text commands.
type CommandHandler struct {
	router CommandRouter
}

func NewCommandHandler(router CommandRouter) *CommandHandler {
	return &CommandHandler{router: router}
}

// Handle handles POST /v1/commands.
//
// Failures of the command itself are part of the reply text, so the response
// is 200 whenever the message was processed.
//
// @Summary      Run a text command
// @Tags         commands
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      commandRequest  true  "Message text, e.g. /create_session 7 video 50"
// @Success      200   {object}  commandResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/commands [post]
func (h *CommandHandler) Handle(c echo.Context) error {
	var req commandRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ident, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	reply := h.router.Handle(c.Request().Context(), ident, req.Text)

	label := reply.Command
	if label == "" {
		label = "text"
	}
	metrics.CommandsTotal.WithLabelValues(label, metrics.Outcome(reply.Err)).Inc()

	return c.JSON(http.StatusOK, commandResponse{Command: reply.Command, Reply: reply.Text})
}
