package handler

import (
	"errors"
	"net/http"

	appErrors "subtrack/internal/pkg/errors"

	"github.com/labstack/echo/v4"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

func respondOK(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, Response{Success: true, Data: data, Message: message})
}

func respondFail(c echo.Context, status int, errMsg, message string) error {
	return c.JSON(status, Response{Success: false, Error: errMsg, Message: message})
}

// respondError maps application errors onto HTTP statuses. Unexpected errors
// are reported without detail.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, appErrors.ErrUnauthorized):
		return respondFail(c, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, appErrors.ErrSubscriptionNotFound):
		return respondFail(c, http.StatusNotFound, "not_found", "Subscription not found")
	case errors.Is(err, appErrors.ErrUserNotFound):
		return respondFail(c, http.StatusNotFound, "not_found", "User not found")
	case errors.Is(err, appErrors.ErrInvalidSubscription):
		return respondFail(c, http.StatusBadRequest, "validation_failed", err.Error())
	default:
		return respondFail(c, http.StatusInternalServerError, "internal_error", appErrors.ErrInternalServer.Error())
	}
}
