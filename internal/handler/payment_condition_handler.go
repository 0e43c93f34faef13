package handler

import (
	"net/http"

	"erpcrm/internal/middleware"
	"erpcrm/internal/service"
	"erpcrm/pkg/pagination"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentConditionHandler struct {
	conditionService service.PaymentConditionService
}

func NewPaymentConditionHandler(conditionService service.PaymentConditionService) *PaymentConditionHandler {
	return &PaymentConditionHandler{conditionService: conditionService}
}

func (h *PaymentConditionHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	conditions := router.Group("/api/payment-conditions")
	{
		conditions.GET("", auth.RequirePermission("payment-conditions.read"), h.List)
		conditions.GET("/:id", auth.RequirePermission("payment-conditions.read"), h.Get)
		conditions.POST("", auth.RequirePermission("payment-conditions.write"), h.Create)
		conditions.PUT("/:id", auth.RequirePermission("payment-conditions.write"), h.Update)
		lifecycleRoutes(conditions, auth, "payment-conditions", h.conditionService)
	}
}

// @Summary      List payment conditions
// @Tags         payment-conditions
// @Security     BearerAuth
// @Produce      json
// @Param        active   query     bool    false  "Filter by active flag"
// @Param        search   query     string  false  "Search by name"
// @Param        trashed  query     string  false  "with or only"
// @Success      200      {object}  response.Response
// @Router       /api/payment-conditions [get]
func (h *PaymentConditionHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	conditions, total, err := h.conditionService.List(c.Request.Context(), boolQuery(c, "active"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, conditions, p.Page, p.Limit, total))
}

// @Summary      Get payment condition
// @Tags         payment-conditions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment condition ID"
// @Success      200  {object}  response.Response
// @Router       /api/payment-conditions/{id} [get]
func (h *PaymentConditionHandler) Get(c *gin.Context) {
	condition, err := h.conditionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, condition))
}

// @Summary      Create payment condition
// @Tags         payment-conditions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.PaymentConditionRequest  true  "Payment condition payload"
// @Success      201  {object}  response.Response
// @Router       /api/payment-conditions [post]
func (h *PaymentConditionHandler) Create(c *gin.Context) {
	var req service.PaymentConditionRequest
	if !bindJSON(c, &req) {
		return
	}
	condition, err := h.conditionService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, condition))
}

// @Summary      Update payment condition
// @Tags         payment-conditions
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                           true  "Payment condition ID"
// @Param        payload  body  service.PaymentConditionRequest  true  "Payment condition payload"
// @Success      200  {object}  response.Response
// @Router       /api/payment-conditions/{id} [put]
func (h *PaymentConditionHandler) Update(c *gin.Context) {
	var req service.PaymentConditionRequest
	if !bindJSON(c, &req) {
		return
	}
	condition, err := h.conditionService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, condition))
}
