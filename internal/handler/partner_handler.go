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

type PartnerHandler struct {
	partnerService service.PartnerService
}

func NewPartnerHandler(partnerService service.PartnerService) *PartnerHandler {
	return &PartnerHandler{partnerService: partnerService}
}

func (h *PartnerHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	partners := router.Group("/api/partners")
	{
		partners.GET("", auth.RequirePermission("partners.read"), h.ListPartners)
		partners.GET("/export", auth.RequirePermission("partners.export"), h.ExportPartners)
		partners.GET("/:id", auth.RequirePermission("partners.read"), h.GetPartner)
		partners.POST("", auth.RequirePermission("partners.write"), h.CreatePartner)
		partners.PUT("/:id", auth.RequirePermission("partners.write"), h.UpdatePartner)
		lifecycleRoutes(partners, auth, "partners", h.partnerService)
	}
}

func partnerFilter(c *gin.Context) repository.PartnerFilter {
	return repository.PartnerFilter{
		Type:   c.Query("type"),
		Active: boolQuery(c, "active"),
	}
}

// ListPartners returns paginated partners with optional type/search filter
// @Summary      List partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default: 1)"
// @Param        limit    query     int     false  "Items per page (default: 20)"
// @Param        type     query     string  false  "Filter by type: client, supplier, both"
// @Param        active   query     bool    false  "Filter by active flag"
// @Param        search   query     string  false  "Full-text search"
// @Param        trashed  query     string  false  "with or only"
// @Success      200      {object}  response.Response
// @Router       /api/partners [get]
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	p := pagination.Parse(c)
	partners, total, err := h.partnerService.List(c.Request.Context(), partnerFilter(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, partners, p.Page, p.Limit, total))
}

// ExportPartners downloads the filtered partners as CSV
// @Summary      Export partners
// @Tags         partners
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/partners/export [get]
func (h *PartnerHandler) ExportPartners(c *gin.Context) {
	table, err := h.partnerService.Export(c.Request.Context(), partnerFilter(c), pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// GetPartner returns one partner with its addresses
// @Summary      Get partner
// @Tags         partners
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Partner ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/partners/{id} [get]
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	partner, err := h.partnerService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}

// CreatePartner creates a new partner
// @Summary      Create partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.PartnerRequest  true  "Partner payload"
// @Success      201  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/partners [post]
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var req service.PartnerRequest
	if !bindJSON(c, &req) {
		return
	}
	partner, err := h.partnerService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, partner))
}

// UpdatePartner replaces a partner and its addresses
// @Summary      Update partner
// @Tags         partners
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Partner ID"
// @Param        payload  body  service.PartnerRequest  true  "Partner payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/partners/{id} [put]
func (h *PartnerHandler) UpdatePartner(c *gin.Context) {
	var req service.PartnerRequest
	if !bindJSON(c, &req) {
		return
	}
	partner, err := h.partnerService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, partner))
}
