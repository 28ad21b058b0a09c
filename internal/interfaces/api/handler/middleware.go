package handler

import (
	"fmt"

	"subtrack/internal/application/dto"
	"subtrack/internal/application/service"
	"subtrack/internal/domain/entity"
	"subtrack/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Identity headers set by the upstream authenticator.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

const userContextKey = "user"

// AuthMiddleware resolves the caller from the identity headers.
type AuthMiddleware struct {
	userService service.UserService
	log         logger.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(userService service.UserService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{userService: userService, log: log}
}

// RequireUser registers unknown callers on first use and stores the user in
// the echo context.
func (m *AuthMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity := dto.Identity{
			UserID: c.Request().Header.Get(HeaderUserID),
			Email:  c.Request().Header.Get(HeaderUserEmail),
		}
		user, err := m.userService.GetOrCreateUser(c.Request().Context(), identity)
		if err != nil {
			m.log.Warn(fmt.Sprintf("Rejected request to %s: %v", c.Path(), err))
			return respondError(c, err)
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func currentUser(c echo.Context) *entity.User {
	user, _ := c.Get(userContextKey).(*entity.User)
	return user
}
