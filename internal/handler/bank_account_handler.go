package handler

import (
	"net/http"

	"erpcrm/internal/middleware"
	"erpcrm/internal/service"
	"erpcrm/pkg/pagination"
	"erpcrm/pkg/response"

	"github.com/gin-gonic/gin"
)

type BankAccountHandler struct {
	accountService service.BankAccountService
}

func NewBankAccountHandler(accountService service.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{accountService: accountService}
}

func (h *BankAccountHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	accounts := router.Group("/api/bank-accounts")
	{
		accounts.GET("", auth.RequirePermission("bank-accounts.read"), h.ListAccounts)
		accounts.GET("/:id", auth.RequirePermission("bank-accounts.read"), h.GetAccount)
		accounts.POST("", auth.RequirePermission("bank-accounts.write"), h.CreateAccount)
		accounts.PUT("/:id", auth.RequirePermission("bank-accounts.write"), h.UpdateAccount)
		accounts.GET("/:id/movements", auth.RequirePermission("bank-accounts.read"), h.ListMovements)
		accounts.POST("/:id/movements", auth.RequirePermission("bank-accounts.write"), h.CreateMovement)
		lifecycleRoutes(accounts, auth, "bank-accounts", h.accountService)
	}

	router.DELETE("/api/balance-movements/:id", auth.RequirePermission("bank-accounts.delete"), h.DeleteMovement)
}

// @Summary      List bank accounts
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        active   query     bool    false  "Filter by active flag"
// @Param        search   query     string  false  "Search by name, bank or account number"
// @Param        trashed  query     string  false  "with or only"
// @Success      200      {object}  response.Response
// @Router       /api/bank-accounts [get]
func (h *BankAccountHandler) ListAccounts(c *gin.Context) {
	p := pagination.Parse(c)
	accounts, total, err := h.accountService.List(c.Request.Context(), boolQuery(c, "active"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, accounts, p.Page, p.Limit, total))
}

// @Summary      Get bank account
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Bank account ID"
// @Success      200  {object}  response.Response
// @Router       /api/bank-accounts/{id} [get]
func (h *BankAccountHandler) GetAccount(c *gin.Context) {
	account, err := h.accountService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// @Summary      Create bank account
// @Tags         bank-accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.BankAccountRequest  true  "Bank account payload"
// @Success      201  {object}  response.Response
// @Router       /api/bank-accounts [post]
func (h *BankAccountHandler) CreateAccount(c *gin.Context) {
	var req service.BankAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.accountService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, account))
}

// @Summary      Update bank account
// @Tags         bank-accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                      true  "Bank account ID"
// @Param        payload  body  service.BankAccountRequest  true  "Bank account payload"
// @Success      200  {object}  response.Response
// @Router       /api/bank-accounts/{id} [put]
func (h *BankAccountHandler) UpdateAccount(c *gin.Context) {
	var req service.BankAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.accountService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, account))
}

// ListMovements returns the ledger of one account
// @Summary      List balance movements
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Bank account ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response
// @Router       /api/bank-accounts/{id}/movements [get]
func (h *BankAccountHandler) ListMovements(c *gin.Context) {
	p := pagination.Parse(c)
	movements, total, err := h.accountService.ListMovements(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, movements, p.Page, p.Limit, total))
}

// CreateMovement posts an input, output or transfer and updates the balances
// @Summary      Create balance movement
// @Tags         bank-accounts
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Bank account ID"
// @Param        payload  body  service.MovementRequest  true  "Movement payload"
// @Success      201  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/bank-accounts/{id}/movements [post]
func (h *BankAccountHandler) CreateMovement(c *gin.Context) {
	var req service.MovementRequest
	if !bindJSON(c, &req) {
		return
	}
	movement, err := h.accountService.CreateMovement(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// DeleteMovement removes a manual movement and reverts its balance effect
// @Summary      Delete balance movement
// @Tags         bank-accounts
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Movement ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/balance-movements/{id} [delete]
func (h *BankAccountHandler) DeleteMovement(c *gin.Context) {
	if err := h.accountService.DeleteMovement(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Movement deleted"}))
}
