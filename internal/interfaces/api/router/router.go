package router

import (
	"fmt"
	"net/http"

	"subtrack/internal/interfaces/api/handler"
	"subtrack/internal/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the dependencies for the router.
type Config struct {
	SubscriptionHandler *handler.SubscriptionHandler
	UserHandler         *handler.UserHandler
	HealthHandler       *handler.HealthHandler
	Auth                *handler.AuthMiddleware
	Gatherer            prometheus.Gatherer
	Logger              logger.Logger
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestID())
	// Use custom logger that integrates with our logger interface
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogHost:      true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			cfg.Logger.Info(fmt.Sprintf("REQUEST: method=%s, uri=%s, status=%d, latency=%s, req_id=%s",
				v.Method, v.URI, v.Status, v.Latency, v.RequestID,
			))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			handler.HeaderUserID, handler.HeaderUserEmail,
		},
		MaxAge: 300,
	}))

	// Routes
	e.GET("/health", cfg.HealthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))

	api := e.Group("/api", cfg.Auth.RequireUser)
	api.GET("/me", cfg.UserHandler.Me)
	api.DELETE("/me", cfg.UserHandler.Delete)

	subs := api.Group("/subscriptions")
	subs.POST("", cfg.SubscriptionHandler.Create)
	subs.GET("", cfg.SubscriptionHandler.List)
	subs.GET("/stats/summary", cfg.SubscriptionHandler.Stats)
	subs.GET("/:id", cfg.SubscriptionHandler.Get)
	subs.PUT("/:id", cfg.SubscriptionHandler.Update)
	subs.DELETE("/:id", cfg.SubscriptionHandler.Delete)
	subs.GET("/:id/reminders", cfg.SubscriptionHandler.History)

	cfg.Logger.Info("Router initialized with routes.")
	return e
}
