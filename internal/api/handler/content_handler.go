package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// ContentHandler handles the content catalog and purchases.
type ContentHandler struct {
	service ports.ContentService
}

func NewContentHandler(service ports.ContentService) *ContentHandler {
	return &ContentHandler{service: service}
}

// Create handles POST /v1/content.
//
// @Summary      Add an item to the caller's catalog (model only)
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createContentRequest  true  "Catalog item"
// @Success      201   {object}  contentResponse
// @Failure      403   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/content [post]
func (h *ContentHandler) Create(c echo.Context) error {
	var req createContentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	content, err := h.service.CreateContent(c.Request().Context(), ports.CreateContentInput{
		ModelID:     actorID,
		Type:        req.ContentType,
		Price:       req.Price,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toContentResponse(content))
}

// ListActive handles GET /v1/content.
//
// @Summary      List active content, oldest first
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum rows (default 20, max 100)"
// @Success      200    {object}  listResponse[contentResponse]
// @Router       /v1/content [get]
func (h *ContentHandler) ListActive(c echo.Context) error {
	items, err := h.service.ListActive(c.Request().Context(), queryLimit(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContentList(items))
}

// ListMine handles GET /v1/me/content.
//
// @Summary      List the caller's own content, hidden items included (model only)
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listResponse[contentResponse]
// @Failure      403  {object}  map[string]string
// @Router       /v1/me/content [get]
func (h *ContentHandler) ListMine(c echo.Context) error {
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}
	items, err := h.service.ListByModel(c.Request().Context(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toContentList(items))
}

// Purchase handles POST /v1/content/:id/purchase.
//
// @Summary      Buy a content item (client only)
// @Tags         content
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string  false  "Replays return the purchase first recorded with this key"
// @Param        id               path      int     true   "Content id"
// @Success      201              {object}  purchaseResponse
// @Success      200              {object}  purchaseResponse
// @Failure      403              {object}  map[string]string
// @Failure      404              {object}  map[string]string
// @Router       /v1/content/{id}/purchase [post]
func (h *ContentHandler) Purchase(c echo.Context) error {
	contentID, err := pathID(c)
	if err != nil {
		return err
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	res, err := h.service.Purchase(c.Request().Context(), ports.PurchaseInput{
		ContentID:      contentID,
		ClientID:       actorID,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, purchaseResponse{
		PurchaseID:     res.Purchase.ID,
		PricePaid:      res.Purchase.PricePaid.StringFixed(2),
		PurchasedAt:    res.Purchase.PurchasedAt,
		Content:        toContentResponse(&res.Content),
		AlreadyExisted: res.AlreadyExisted,
	})
}

// Update handles PATCH /v1/content/:id.
//
// @Summary      Hide, show or reprice an item (owner only)
// @Tags         content
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Content id"
// @Param        body  body      updateContentRequest  true  "Fields to change"
// @Success      200   {object}  contentResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /v1/content/{id} [patch]
func (h *ContentHandler) Update(c echo.Context) error {
	contentID, err := pathID(c)
	if err != nil {
		return err
	}
	var req updateContentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.IsActive == nil && req.Price == "" {
		return domain.NewError(domain.ErrInvalidInput, "nothing to update")
	}
	actorID, err := ctxActorID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var content *domain.DigitalContent
	if req.Price != "" {
		if content, err = h.service.UpdatePrice(ctx, contentID, actorID, req.Price); err != nil {
			return err
		}
	}
	if req.IsActive != nil {
		if content, err = h.service.SetActive(ctx, contentID, actorID, *req.IsActive); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, toContentResponse(content))
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid content id")
	}
	return id, nil
}
