package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/marketintel/internal/service"
	"github.com/mohammad-safakhou/marketintel/models"
)

// AnalysisHandler runs the pipeline and answers questions about stored reports.
type AnalysisHandler struct {
	Service *service.Service
}

func (h *AnalysisHandler) Register(e *echo.Echo) {
	e.POST("/analyze", h.analyze)
	e.POST("/chat", h.chat)
}

// analyze runs a full pipeline and stores the report.
//
//	@Summary  Analyze an industry
//	@Tags     analysis
//	@Accept   json
//	@Produce  json
//	@Param    body body models.Query true "industry and date range"
//	@Success  200 {object} service.AnalyzeResponse
//	@Failure  400 {object} map[string]string
//	@Router   /analyze [post]
func (h *AnalysisHandler) analyze(c echo.Context) error {
	var q models.Query
	if err := c.Bind(&q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&q); err != nil {
		return err
	}
	resp, err := h.Service.Analyze(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}

// chat answers a question about a stored report. An unknown report is a
// payload-level error with status 200.
//
//	@Summary  Ask about a report
//	@Tags     analysis
//	@Accept   json
//	@Produce  json
//	@Param    body body service.ChatRequest true "report id and question"
//	@Success  200 {object} service.ChatResponse
//	@Router   /chat [post]
func (h *AnalysisHandler) chat(c echo.Context) error {
	var req service.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	resp, err := h.Service.Chat(c.Request().Context(), req)
	if errors.Is(err, models.ErrReportNotFound) {
		return c.JSON(http.StatusOK, map[string]string{"error": "Report not found"})
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, resp)
}
