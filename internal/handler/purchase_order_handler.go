package handler

import (
	"net/http"

	"erpcrm/internal/middleware"
	"erpcrm/internal/service"
	"erpcrm/pkg/pagination"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type PurchaseOrderHandler struct {
	orderService service.PurchaseOrderService
}

func NewPurchaseOrderHandler(orderService service.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orderService: orderService}
}

func (h *PurchaseOrderHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	orders := router.Group("/api/purchase-orders")
	{
		orders.GET("", auth.RequirePermission("purchase-orders.read"), h.ListOrders)
		orders.GET("/export", auth.RequirePermission("purchase-orders.export"), h.ExportOrders)
		orders.GET("/:id", auth.RequirePermission("purchase-orders.read"), h.GetOrder)
		orders.POST("", auth.RequirePermission("purchase-orders.write"), h.CreateOrder)
		orders.PUT("/:id", auth.RequirePermission("purchase-orders.write"), h.UpdateOrder)
		orders.POST("/:id/status", auth.RequirePermission("purchase-orders.write"), h.ChangeStatus)
		lifecycleRoutes(orders, auth, "purchase-orders", h.orderService)
	}
}

// @Summary      List purchase orders
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        status      query     string  false  "pending, received or cancelled"
// @Param        partner_id  query     string  false  "Filter by supplier"
// @Param        date_from   query     string  false  "YYYY-MM-DD"
// @Param        date_to     query     string  false  "YYYY-MM-DD"
// @Param        trashed     query     string  false  "with or only"
// @Success      200         {object}  response.Response
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	orders, total, err := h.orderService.List(c.Request.Context(), orderFilter(c, "partner_id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, orders, p.Page, p.Limit, total))
}

// @Summary      Export purchase orders
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/purchase-orders/export [get]
func (h *PurchaseOrderHandler) ExportOrders(c *gin.Context) {
	table, err := h.orderService.Export(c.Request.Context(), orderFilter(c, "partner_id"), pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// @Summary      Get purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Purchase order ID"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// @Summary      Create purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.PurchaseOrderRequest  true  "Purchase order payload"
// @Success      201  {object}  response.Response
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) CreateOrder(c *gin.Context) {
	var req service.PurchaseOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// @Summary      Update purchase order
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                        true  "Purchase order ID"
// @Param        payload  body  service.PurchaseOrderRequest  true  "Purchase order payload"
// @Success      200  {object}  response.Response
// @Router       /api/purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) UpdateOrder(c *gin.Context) {
	var req service.PurchaseOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// ChangeStatus receives or cancels a purchase order; receiving puts the items into stock
// @Summary      Change purchase order status
// @Tags         purchase-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Purchase order ID"
// @Param        payload  body  service.StatusRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/purchase-orders/{id}/status [post]
func (h *PurchaseOrderHandler) ChangeStatus(c *gin.Context) {
	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orderService.ChangeStatus(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
