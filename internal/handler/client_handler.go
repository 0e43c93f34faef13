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

type ClientHandler struct {
	clientService service.ClientService
}

func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	clients := router.Group("/api/clients")
	{
		clients.GET("", auth.RequirePermission("clients.read"), h.ListClients)
		clients.GET("/export", auth.RequirePermission("clients.export"), h.ExportClients)
		clients.GET("/:id", auth.RequirePermission("clients.read"), h.GetClient)
		clients.POST("", auth.RequirePermission("clients.write"), h.CreateClient)
		clients.PUT("/:id", auth.RequirePermission("clients.write"), h.UpdateClient)
		lifecycleRoutes(clients, auth, "clients", h.clientService)
	}
}

// ListClients returns paginated clients
// @Summary      List clients
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default: 1)"
// @Param        limit    query     int     false  "Items per page (default: 20)"
// @Param        active   query     bool    false  "Filter by active flag"
// @Param        search   query     string  false  "Full-text search"
// @Param        trashed  query     string  false  "with or only"
// @Success      200      {object}  response.Response
// @Router       /api/clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	p := pagination.Parse(c)
	clients, total, err := h.clientService.List(c.Request.Context(), repository.ClientFilter{Active: boolQuery(c, "active")}, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, clients, p.Page, p.Limit, total))
}

// ExportClients downloads the filtered clients as CSV
// @Summary      Export clients
// @Tags         clients
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/clients/export [get]
func (h *ClientHandler) ExportClients(c *gin.Context) {
	table, err := h.clientService.Export(c.Request.Context(), repository.ClientFilter{Active: boolQuery(c, "active")}, pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// GetClient returns one client
// @Summary      Get client
// @Tags         clients
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Client ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/clients/{id} [get]
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clientService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}

// CreateClient creates a client
// @Summary      Create client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ClientRequest  true  "Client payload"
// @Success      201  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req service.ClientRequest
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, client))
}

// UpdateClient replaces a client
// @Summary      Update client
// @Tags         clients
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Client ID"
// @Param        payload  body  service.ClientRequest  true  "Client payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	var req service.ClientRequest
	if !bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, client))
}
