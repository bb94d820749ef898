package server

import (
	"context"
	"log/slog"
	"net/http"

	"cart-service/internal/handler"
	authmw "cart-service/internal/middleware"
	"cart-service/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo         *echo.Echo
	logger       *slog.Logger
	tokenService service.TokenService
	authHandler  *handler.AuthHandler
	cartHandler  *handler.CartHandler
}

func NewServer(
	logger *slog.Logger,
	authService service.AuthService,
	cartService service.CartService,
	tokenService service.TokenService,
) *Server {
	e := echo.New()
	e.HideBanner = true

	s := &Server{
		echo:         e,
		logger:       logger,
		tokenService: tokenService,
		authHandler:  handler.NewAuthHandler(authService),
		cartHandler:  handler.NewCartHandler(cartService),
	}

	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:     true,
		LogURI:        true,
		LogMethod:     true,
		LogLatency:    true,
		LogRequestID:  true,
		HandleError:   true,
		LogValuesFunc: s.logRequest,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.POST("/auth/login", s.authHandler.Login)

	// -------- carts --------
	carts := api.Group("/v1/carts/:username",
		authmw.Authenticate(s.tokenService, s.logger),
		authmw.RequireOwner("username", s.logger),
	)
	carts.GET("", s.cartHandler.GetCart)
	carts.DELETE("", s.cartHandler.ClearCart)
	carts.POST("/items", s.cartHandler.AddItem)
	carts.DELETE("/items/:itemId", s.cartHandler.RemoveItem)
}

func (s *Server) logRequest(c echo.Context, v middleware.RequestLoggerValues) error {
	attrs := []any{
		"method", v.Method,
		"uri", v.URI,
		"status", v.Status,
		"latency", v.Latency,
		"request_id", v.RequestID,
	}
	if p, ok := service.PrincipalFromContext(c.Request().Context()); ok {
		attrs = append(attrs, "subject", p.Username)
	}

	s.logger.InfoContext(c.Request().Context(), "request", attrs...)
	return nil
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
