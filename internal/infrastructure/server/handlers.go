package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"SecurityBriefing/internal/domain"
)

// handleRunBriefing executes the same pipeline as the scheduled trigger and
// returns the persisted document. The structured JSON shape is authoritative.
func (s *Server) handleRunBriefing(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := s.briefing.GenerateToday(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("manual briefing run failed", "error", err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "briefing generation failed")
	}

	return c.JSON(http.StatusOK, view)
}

func (s *Server) handleListBriefings(c echo.Context) error {
	var filter domain.ListFilter

	from, err := parseDateParam(c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
	}
	filter.From = from

	to, err := parseDateParam(c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
	}
	filter.To = to

	filter.Query = strings.TrimSpace(c.QueryParam("q"))

	views, err := s.briefing.List(c.Request().Context(), filter)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("list briefings failed", "error", err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "list failed")
	}

	return c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetBriefing(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.Param("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
	}

	view, err := s.briefing.GetByDate(c.Request().Context(), date)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not Found")
		}
		if s.logger != nil {
			s.logger.Error("get briefing failed", "error", err)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "lookup failed")
	}

	return c.JSON(http.StatusOK, view)
}

func parseDateParam(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
