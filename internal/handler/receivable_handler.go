package handler

import (
	"net/http"

	"erpcrm/internal/middleware"
	"erpcrm/internal/service"
	"erpcrm/pkg/pagination"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReceivableHandler struct {
	receivableService service.ReceivableService
}

func NewReceivableHandler(receivableService service.ReceivableService) *ReceivableHandler {
	return &ReceivableHandler{receivableService: receivableService}
}

func (h *ReceivableHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	receivables := router.Group("/api/receivables")
	{
		receivables.GET("", auth.RequirePermission("receivables.read"), h.ListReceivables)
		receivables.GET("/export", auth.RequirePermission("receivables.export"), h.ExportReceivables)
		receivables.GET("/:id", auth.RequirePermission("receivables.read"), h.GetReceivable)
		receivables.POST("", auth.RequirePermission("receivables.write"), h.CreateReceivable)
		receivables.PUT("/:id", auth.RequirePermission("receivables.write"), h.UpdateReceivable)
		receivables.POST("/:id/receive", auth.RequirePermission("receivables.write"), h.MarkReceived)
		receivables.POST("/:id/cancel", auth.RequirePermission("receivables.write"), h.CancelReceivable)
		lifecycleRoutes(receivables, auth, "receivables", h.receivableService)
	}
}

// ListReceivables returns paginated accounts receivable
// @Summary      List receivables
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Param        status      query     string  false  "pending, received or cancelled"
// @Param        partner_id  query     string  false  "Filter by partner"
// @Param        overdue     query     bool    false  "Only pending receivables past their due date"
// @Param        search      query     string  false  "Search by description or document number"
// @Param        trashed     query     string  false  "with or only"
// @Success      200         {object}  response.Response
// @Router       /api/receivables [get]
func (h *ReceivableHandler) ListReceivables(c *gin.Context) {
	p := pagination.Parse(c)
	receivables, total, err := h.receivableService.List(c.Request.Context(), financeFilter(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, receivables, p.Page, p.Limit, total))
}

// @Summary      Export receivables
// @Tags         receivables
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/receivables/export [get]
func (h *ReceivableHandler) ExportReceivables(c *gin.Context) {
	table, err := h.receivableService.Export(c.Request.Context(), financeFilter(c), pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// @Summary      Get receivable
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Receivable ID"
// @Success      200  {object}  response.Response
// @Router       /api/receivables/{id} [get]
func (h *ReceivableHandler) GetReceivable(c *gin.Context) {
	receivable, err := h.receivableService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, receivable))
}

// @Summary      Create receivable
// @Tags         receivables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.FinanceRequest  true  "Receivable payload"
// @Success      201  {object}  response.Response
// @Router       /api/receivables [post]
func (h *ReceivableHandler) CreateReceivable(c *gin.Context) {
	var req service.FinanceRequest
	if !bindJSON(c, &req) {
		return
	}
	receivable, err := h.receivableService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, receivable))
}

// @Summary      Update receivable
// @Tags         receivables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Receivable ID"
// @Param        payload  body  service.FinanceRequest  true  "Receivable payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/receivables/{id} [put]
func (h *ReceivableHandler) UpdateReceivable(c *gin.Context) {
	var req service.FinanceRequest
	if !bindJSON(c, &req) {
		return
	}
	receivable, err := h.receivableService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, receivable))
}

// MarkReceived records receipt of a pending receivable and credits its bank account
// @Summary      Receive receivable
// @Tags         receivables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Receivable ID"
// @Param        payload  body  service.SettleRequest  true  "Settlement payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/receivables/{id}/receive [post]
func (h *ReceivableHandler) MarkReceived(c *gin.Context) {
	var req service.SettleRequest
	if !bindJSON(c, &req) {
		return
	}
	receivable, err := h.receivableService.Receive(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, receivable))
}

// CancelReceivable cancels a receivable, reverting the receipt movement when it was received
// @Summary      Cancel receivable
// @Tags         receivables
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Receivable ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/receivables/{id}/cancel [post]
func (h *ReceivableHandler) CancelReceivable(c *gin.Context) {
	receivable, err := h.receivableService.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, receivable))
}
