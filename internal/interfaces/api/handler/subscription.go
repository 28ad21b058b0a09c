package handler

import (
	"net/http"
	"strconv"

	"subtrack/internal/application/dto"
	"subtrack/internal/application/service"
	"subtrack/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

const maxHistoryLimit = 100

// SubscriptionHandler serves the owner-scoped subscription API.
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	log                 logger.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService, log logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		log:                 log,
	}
}

// Create handles POST /api/subscriptions.
func (h *SubscriptionHandler) Create(c echo.Context) error {
	var req dto.CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
	}

	sub, err := h.subscriptionService.Create(c.Request().Context(), currentUser(c).ID, req)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusCreated, sub, "Subscription created")
}

// List handles GET /api/subscriptions.
func (h *SubscriptionHandler) List(c echo.Context) error {
	subs, err := h.subscriptionService.List(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, subs, "")
}

// Get handles GET /api/subscriptions/:id.
func (h *SubscriptionHandler) Get(c echo.Context) error {
	sub, err := h.subscriptionService.Get(c.Request().Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, sub, "")
}

// Update handles PUT /api/subscriptions/:id. Omitted fields are left unchanged.
func (h *SubscriptionHandler) Update(c echo.Context) error {
	var req dto.UpdateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return respondFail(c, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
	}

	sub, err := h.subscriptionService.Update(c.Request().Context(), currentUser(c).ID, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, sub, "Subscription updated")
}

// Delete handles DELETE /api/subscriptions/:id.
func (h *SubscriptionHandler) Delete(c echo.Context) error {
	if err := h.subscriptionService.Delete(c.Request().Context(), currentUser(c).ID, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nil, "Subscription deleted")
}

// Stats handles GET /api/subscriptions/stats/summary.
func (h *SubscriptionHandler) Stats(c echo.Context) error {
	stats, err := h.subscriptionService.Stats(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, stats, "")
}

// History handles GET /api/subscriptions/:id/reminders?limit=N.
func (h *SubscriptionHandler) History(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			return respondFail(c, http.StatusBadRequest, "invalid_request",
				"limit must be a number between 1 and "+strconv.Itoa(maxHistoryLimit))
		}
		limit = n
	}

	entries, err := h.subscriptionService.ReminderHistory(c.Request().Context(), currentUser(c).ID, c.Param("id"), limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, entries, "")
}
