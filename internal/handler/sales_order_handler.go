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

type SalesOrderHandler struct {
	orderService service.SalesOrderService
}

func NewSalesOrderHandler(orderService service.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{orderService: orderService}
}

func (h *SalesOrderHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	orders := router.Group("/api/sales-orders")
	{
		orders.GET("", auth.RequirePermission("sales-orders.read"), h.ListOrders)
		orders.GET("/export", auth.RequirePermission("sales-orders.export"), h.ExportOrders)
		orders.GET("/:id", auth.RequirePermission("sales-orders.read"), h.GetOrder)
		orders.POST("", auth.RequirePermission("sales-orders.write"), h.CreateOrder)
		orders.PUT("/:id", auth.RequirePermission("sales-orders.write"), h.UpdateOrder)
		orders.POST("/:id/status", auth.RequirePermission("sales-orders.write"), h.ChangeStatus)
		lifecycleRoutes(orders, auth, "sales-orders", h.orderService)
	}
}

// orderFilter reads the shared order list filters; party names the client or supplier query key
func orderFilter(c *gin.Context, party string) repository.OrderFilter {
	return repository.OrderFilter{
		Status:   c.Query("status"),
		PartyID:  c.Query(party),
		VendorID: c.Query("vendor_id"),
		DateFrom: dateQuery(c, "date_from"),
		DateTo:   dateQuery(c, "date_to"),
	}
}

// ListOrders returns paginated sales orders
// @Summary      List sales orders
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      json
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Param        status     query     string  false  "pending, processing, completed or cancelled"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        vendor_id  query     string  false  "Filter by vendor"
// @Param        date_from  query     string  false  "YYYY-MM-DD"
// @Param        date_to    query     string  false  "YYYY-MM-DD"
// @Param        search     query     string  false  "Search by code or notes"
// @Param        trashed    query     string  false  "with or only"
// @Success      200        {object}  response.Response
// @Router       /api/sales-orders [get]
func (h *SalesOrderHandler) ListOrders(c *gin.Context) {
	p := pagination.Parse(c)
	orders, total, err := h.orderService.List(c.Request.Context(), orderFilter(c, "client_id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, orders, p.Page, p.Limit, total))
}

// @Summary      Export sales orders
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/sales-orders/export [get]
func (h *SalesOrderHandler) ExportOrders(c *gin.Context) {
	table, err := h.orderService.Export(c.Request.Context(), orderFilter(c, "client_id"), pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// @Summary      Get sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Sales order ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sales-orders/{id} [get]
func (h *SalesOrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CreateOrder creates a pending sales order; prices default to the product sale price
// @Summary      Create sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.SalesOrderRequest  true  "Sales order payload"
// @Success      201  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/sales-orders [post]
func (h *SalesOrderHandler) CreateOrder(c *gin.Context) {
	var req service.SalesOrderRequest
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

// @Summary      Update sales order
// @Tags         sales-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                     true  "Sales order ID"
// @Param        payload  body  service.SalesOrderRequest  true  "Sales order payload"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-orders/{id} [put]
func (h *SalesOrderHandler) UpdateOrder(c *gin.Context) {
	var req service.SalesOrderRequest
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

// ChangeStatus moves a sales order through its workflow; completing it takes the items out of stock
// @Summary      Change sales order status
// @Tags         sales-orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Sales order ID"
// @Param        payload  body  service.StatusRequest  true  "Target status"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-orders/{id}/status [post]
func (h *SalesOrderHandler) ChangeStatus(c *gin.Context) {
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
