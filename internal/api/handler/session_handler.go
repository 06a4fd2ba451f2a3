package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SessionHandler handles HTTP requests for the session and escrow lifecycle.
type SessionHandler struct {
	service ports.SessionService
}

func NewSessionHandler(service ports.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// Create handles POST /v1/sessions.
//
// @Summary      Book a session and hold its price in escrow
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Replays return the session first booked with this key"
// @Param        body             body      createSessionRequest  true   "Booking"
// @Success      201              {object}  sessionResponse
// @Success      200              {object}  sessionResponse
// @Failure      403              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Failure      422              {object}  map[string]string
// @Router       /v1/sessions [post]
func (h *SessionHandler) Create(c echo.Context) error {
	var req createSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	detail, err := h.service.CreateSession(c.Request().Context(), ports.CreateSessionInput{
		ClientID:       actorID,
		ModelID:        req.ModelID,
		SessionType:    req.SessionType,
		Price:          req.Price,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if detail.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, toSessionResponse(detail))
}

// List handles GET /v1/sessions.
//
// @Summary      List the caller's sessions, newest first
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum rows (default 20, max 100)"
// @Success      200    {object}  listResponse[sessionResponse]
// @Router       /v1/sessions [get]
func (h *SessionHandler) List(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	details, err := h.service.ListSessions(c.Request().Context(), actorID, queryLimit(c))
	if err != nil {
		return err
	}

	out := make([]sessionResponse, 0, len(details))
	for i := range details {
		out = append(out, toSessionResponse(&details[i]))
	}
	return c.JSON(http.StatusOK, listResponse[sessionResponse]{Items: out, Count: len(out)})
}

// Get handles GET /v1/sessions/:ref.
//
// @Summary      Get a session with its escrow
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Session reference (e.g. sess_1a2b3c4d5e6f7a8b)"
// @Success      200  {object}  sessionResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/sessions/{ref} [get]
func (h *SessionHandler) Get(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetSession(c.Request().Context(), c.Param("ref"), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(detail))
}

// Start handles POST /v1/sessions/:ref/start.
//
// @Summary      Start a pending session (model only)
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Session reference"
// @Success      200  {object}  sessionResponse
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/sessions/{ref}/start [post]
func (h *SessionHandler) Start(c echo.Context) error {
	return h.transition(c, h.service.StartSession)
}

// End handles POST /v1/sessions/:ref/end.
//
// @Summary      Complete an active session (model only)
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Session reference"
// @Success      200  {object}  sessionResponse
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /v1/sessions/{ref}/end [post]
func (h *SessionHandler) End(c echo.Context) error {
	return h.transition(c, h.service.EndSession)
}

// Dispute handles POST /v1/sessions/:ref/dispute.
//
// @Summary      Dispute a session and freeze its escrow
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ref   path      string          true  "Session reference"
// @Param        body  body      disputeRequest  true  "Reason"
// @Success      200   {object}  sessionResponse
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/sessions/{ref}/dispute [post]
func (h *SessionHandler) Dispute(c echo.Context) error {
	var req disputeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	detail, err := h.service.DisputeSession(c.Request().Context(), c.Param("ref"), actorID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(detail))
}

// Release handles POST /v1/admin/sessions/:ref/release.
//
// @Summary      Release a session's escrow (admin only)
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        ref  path      string  true  "Session reference"
// @Success      200  {object}  sessionResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /v1/admin/sessions/{ref}/release [post]
func (h *SessionHandler) Release(c echo.Context) error {
	return h.transition(c, h.service.ReleaseEscrow)
}

func (h *SessionHandler) transition(
	c echo.Context,
	op func(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error),
) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	detail, err := op(c.Request().Context(), c.Param("ref"), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(detail))
}

// queryLimit reads ?limit, falling back to the default for missing or bad values.
func queryLimit(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return min(n, maxListLimit)
}
