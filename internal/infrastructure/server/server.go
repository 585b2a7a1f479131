package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"SecurityBriefing/internal/usecase"
)

// Server exposes the manual briefing trigger and the read-only query surface.
type Server struct {
	echo     *echo.Echo
	briefing *usecase.Briefing
	logger   *slog.Logger
}

// New builds the echo instance and registers all routes.
func New(briefing *usecase.Briefing, auth *AuthMiddleware, logger *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, briefing: briefing, logger: logger}

	internal := e.Group("/internal/briefing", auth.RequireAdmin())
	internal.POST("/run", s.handleRunBriefing)

	news := e.Group("/api/news")
	news.GET("", s.handleListBriefings)
	news.GET("/:date", s.handleGetBriefing)

	return s
}

// Handler returns the routed handler for use without a listener.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves HTTP until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
