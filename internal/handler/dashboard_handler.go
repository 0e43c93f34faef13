package handler

import (
	"net/http"
	"strconv"
	"time"

	"erpcrm/internal/middleware"
	"erpcrm/internal/service"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	router.GET("/api/dashboard", auth.RequirePermission("dashboard.read"), h.GetDashboard)
}

// @Summary      Get dashboard metrics
// @Description  Ten monthly KPIs, each compared with the previous month. Defaults to the current month.
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        year   query     int  false  "Year (default: current)"
// @Param        month  query     int  false  "Month 1-12 (default: current)"
// @Success      200    {object}  response.Response
// @Failure      422    {object}  response.Response
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	now := time.Now()
	year, err := intQuery(c, "year", now.Year())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError(http.StatusUnprocessableEntity, map[string]string{"year": "must be an integer"}))
		return
	}
	month, err := intQuery(c, "month", int(now.Month()))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.ValidationError(http.StatusUnprocessableEntity, map[string]string{"month": "must be an integer"}))
		return
	}

	metrics, err := h.dashboardService.GetDashboard(c.Request.Context(), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, metrics))
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
