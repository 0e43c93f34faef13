package handler

import (
	"net/http"

	"erpcrm/internal/middleware"
	"erpcrm/internal/repository"
	"erpcrm/internal/service"
	"erpcrm/pkg/pagination"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type PayableHandler struct {
	payableService service.PayableService
}

func NewPayableHandler(payableService service.PayableService) *PayableHandler {
	return &PayableHandler{payableService: payableService}
}

func (h *PayableHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	payables := router.Group("/api/payables")
	{
		payables.GET("", auth.RequirePermission("payables.read"), h.ListPayables)
		payables.GET("/export", auth.RequirePermission("payables.export"), h.ExportPayables)
		payables.GET("/:id", auth.RequirePermission("payables.read"), h.GetPayable)
		payables.POST("", auth.RequirePermission("payables.write"), h.CreatePayable)
		payables.PUT("/:id", auth.RequirePermission("payables.write"), h.UpdatePayable)
		payables.POST("/:id/pay", auth.RequirePermission("payables.write"), h.PayPayable)
		payables.POST("/:id/cancel", auth.RequirePermission("payables.write"), h.CancelPayable)
		lifecycleRoutes(payables, auth, "payables", h.payableService)
	}
}

func financeFilter(c *gin.Context) repository.FinanceFilter {
	return repository.FinanceFilter{
		Status:    c.Query("status"),
		PartnerID: c.Query("partner_id"),
		Overdue:   c.Query("overdue") == "true",
	}
}

// ListPayables returns paginated accounts payable
// @Summary      List payables
// @Tags         payables
// @Security     BearerAuth
// @Produce      json
// @Param        status      query     string  false  "open, paid or cancelled"
// @Param        partner_id  query     string  false  "Filter by partner"
// @Param        overdue     query     bool    false  "Only open payables past their due date"
// @Param        search      query     string  false  "Search by description or document number"
// @Param        trashed     query     string  false  "with or only"
// @Success      200         {object}  response.Response
// @Router       /api/payables [get]
func (h *PayableHandler) ListPayables(c *gin.Context) {
	p := pagination.Parse(c)
	payables, total, err := h.payableService.List(c.Request.Context(), financeFilter(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, payables, p.Page, p.Limit, total))
}

// @Summary      Export payables
// @Tags         payables
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/payables/export [get]
func (h *PayableHandler) ExportPayables(c *gin.Context) {
	table, err := h.payableService.Export(c.Request.Context(), financeFilter(c), pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// @Summary      Get payable
// @Tags         payables
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payable ID"
// @Success      200  {object}  response.Response
// @Router       /api/payables/{id} [get]
func (h *PayableHandler) GetPayable(c *gin.Context) {
	payable, err := h.payableService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payable))
}

// @Summary      Create payable
// @Tags         payables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.FinanceRequest  true  "Payable payload"
// @Success      201  {object}  response.Response
// @Router       /api/payables [post]
func (h *PayableHandler) CreatePayable(c *gin.Context) {
	var req service.FinanceRequest
	if !bindJSON(c, &req) {
		return
	}
	payable, err := h.payableService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payable))
}

// @Summary      Update payable
// @Tags         payables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Payable ID"
// @Param        payload  body  service.FinanceRequest  true  "Payable payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/payables/{id} [put]
func (h *PayableHandler) UpdatePayable(c *gin.Context) {
	var req service.FinanceRequest
	if !bindJSON(c, &req) {
		return
	}
	payable, err := h.payableService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payable))
}

// PayPayable settles an open payable and debits its bank account
// @Summary      Pay payable
// @Tags         payables
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Payable ID"
// @Param        payload  body  service.SettleRequest  true  "Settlement payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/payables/{id}/pay [post]
func (h *PayableHandler) PayPayable(c *gin.Context) {
	var req service.SettleRequest
	if !bindJSON(c, &req) {
		return
	}
	payable, err := h.payableService.Pay(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payable))
}

// CancelPayable cancels a payable, reverting the payment movement when it was paid
// @Summary      Cancel payable
// @Tags         payables
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payable ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/payables/{id}/cancel [post]
func (h *PayableHandler) CancelPayable(c *gin.Context) {
	payable, err := h.payableService.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payable))
}
