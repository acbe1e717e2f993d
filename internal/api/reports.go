package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sqlreview/internal/jobqueue"
	"github.com/sqlreview/internal/review"
	"github.com/sqlreview/internal/store"
	"github.com/sqlreview/pkg/models"
)

// createReport handles POST /api/v1/reports (synchronous pipeline run)
func (s *Server) createReport(c echo.Context) error {
	var req review.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	result, err := s.service.GenerateReport(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// enqueueReport handles POST /api/v1/reports/enqueue
func (s *Server) enqueueReport(c echo.Context) error {
	if s.queue == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Job queue requires a configured database")
	}

	var req review.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	// Identity fields are checked here; content problems surface when the
	// worker runs and cancels the job.
	if strings.TrimSpace(req.ProjectID) == "" || strings.TrimSpace(req.Path) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and path are required")
	}

	jobID, err := s.queue.EnqueueReport(c.Request().Context(), jobqueue.ReportJobArgs{
		ProjectID: req.ProjectID,
		Path:      req.Path,
		Content:   req.Content,
		UserID:    req.UserID,
		Selection: req.Selection,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to queue report job")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"job_id": jobID,
	})
}

// getReport handles GET /api/v1/reports/:project_id/*
func (s *Server) getReport(c echo.Context) error {
	if s.reports == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Report storage requires a configured database")
	}

	projectID := c.Param("project_id")
	path := c.Param("*")
	if projectID == "" || path == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and path are required")
	}

	row, err := s.reports.Get(c.Request().Context(), projectID, path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "No stored report for this path")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load report")
	}

	return c.JSON(http.StatusOK, row)
}

// httpError maps pipeline failures onto status codes: bad input is the
// caller's fault, configuration faults are ours.
func httpError(err error) error {
	switch {
	case models.IsInputError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case models.IsConfigurationError(err):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate report")
}
