package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/marketintel/internal/capability"
)

// ToolsHandler exposes the capability registry over HTTP.
type ToolsHandler struct {
	Registry *capability.Registry
}

func (h *ToolsHandler) Register(e *echo.Echo) {
	e.GET("/tools", h.list)
	e.GET("/tools/:name", h.card)
	e.POST("/tool/:name", h.call)
}

// list returns every registered tool card.
//
//	@Summary  List tool cards
//	@Tags     tools
//	@Produce  json
//	@Success  200 {array} capability.ToolCard
//	@Router   /tools [get]
func (h *ToolsHandler) list(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Registry.Cards())
}

// card returns the card of one tool.
//
//	@Summary  Describe a tool
//	@Tags     tools
//	@Produce  json
//	@Param    name path string true "tool name"
//	@Success  200 {object} capability.ToolCard
//	@Failure  404 {object} map[string]string
//	@Router   /tools/{name} [get]
func (h *ToolsHandler) card(c echo.Context) error {
	name := c.Param("name")
	card, ok := h.Registry.Tool(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "tool not found: "+name)
	}
	return c.JSON(http.StatusOK, card)
}

type callResponse struct {
	Tool   string      `json:"tool"`
	Result interface{} `json:"result"`
}

// call dispatches one tool.
//
//	@Summary  Invoke a tool
//	@Tags     tools
//	@Accept   json
//	@Produce  json
//	@Param    name path string true "tool name"
//	@Success  200 {object} callResponse
//	@Failure  400 {object} map[string]string
//	@Failure  404 {object} map[string]string
//	@Router   /tool/{name} [post]
func (h *ToolsHandler) call(c echo.Context) error {
	name := c.Param("name")
	var req capability.CallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res := h.Registry.Invoke(c.Request().Context(), name, req.Args)
	switch res.Kind {
	case capability.Success:
		return c.JSON(http.StatusOK, callResponse{Tool: name, Result: res.Value})
	case capability.NotFound:
		return echo.NewHTTPError(http.StatusNotFound, res.Reason)
	case capability.InvalidArguments:
		return echo.NewHTTPError(http.StatusBadRequest, res.Reason)
	default:
		return echo.NewHTTPError(http.StatusServiceUnavailable, res.Reason)
	}
}
