package handler

import (
	"net/http"

	"subtrack/internal/application/dto"
	"subtrack/internal/application/service"
	"subtrack/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// UserHandler serves the caller's own account.
type UserHandler struct {
	userService service.UserService
	log         logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// Me handles GET /api/me.
func (h *UserHandler) Me(c echo.Context) error {
	user, err := h.userService.GetUser(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, dto.UserResponse{ID: user.ID, Email: user.Email}, "")
}

// Delete handles DELETE /api/me. The account and its subscriptions are removed.
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.userService.DeleteUser(c.Request().Context(), currentUser(c).ID); err != nil {
		return respondError(c, err)
	}
	return respondOK(c, http.StatusOK, nil, "Account deleted")
}
