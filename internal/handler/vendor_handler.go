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

type VendorHandler struct {
	vendorService service.VendorService
}

func NewVendorHandler(vendorService service.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

func (h *VendorHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	vendors := router.Group("/api/vendors")
	{
		vendors.GET("", auth.RequirePermission("vendors.read"), h.ListVendors)
		vendors.GET("/export", auth.RequirePermission("vendors.export"), h.ExportVendors)
		vendors.GET("/:id", auth.RequirePermission("vendors.read"), h.GetVendor)
		vendors.POST("", auth.RequirePermission("vendors.write"), h.CreateVendor)
		vendors.PUT("/:id", auth.RequirePermission("vendors.write"), h.UpdateVendor)
		lifecycleRoutes(vendors, auth, "vendors", h.vendorService)
	}
}

// ListVendors returns paginated vendors
// @Summary      List vendors
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default: 1)"
// @Param        limit    query     int     false  "Items per page (default: 20)"
// @Param        active   query     bool    false  "Filter by active flag"
// @Param        search   query     string  false  "Full-text search"
// @Param        trashed  query     string  false  "with or only"
// @Success      200      {object}  response.Response
// @Router       /api/vendors [get]
func (h *VendorHandler) ListVendors(c *gin.Context) {
	p := pagination.Parse(c)
	vendors, total, err := h.vendorService.List(c.Request.Context(), repository.VendorFilter{Active: boolQuery(c, "active")}, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, vendors, p.Page, p.Limit, total))
}

// ExportVendors downloads the filtered vendors as CSV
// @Summary      Export vendors
// @Tags         vendors
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/vendors/export [get]
func (h *VendorHandler) ExportVendors(c *gin.Context) {
	table, err := h.vendorService.Export(c.Request.Context(), repository.VendorFilter{Active: boolQuery(c, "active")}, pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// GetVendor returns one vendor
// @Summary      Get vendor
// @Tags         vendors
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Vendor ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/vendors/{id} [get]
func (h *VendorHandler) GetVendor(c *gin.Context) {
	vendor, err := h.vendorService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}

// CreateVendor creates a vendor
// @Summary      Create vendor
// @Tags         vendors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.VendorRequest  true  "Vendor payload"
// @Success      201  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/vendors [post]
func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req service.VendorRequest
	if !bindJSON(c, &req) {
		return
	}
	vendor, err := h.vendorService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, vendor))
}

// UpdateVendor replaces a vendor
// @Summary      Update vendor
// @Tags         vendors
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                 true  "Vendor ID"
// @Param        payload  body  service.VendorRequest  true  "Vendor payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/vendors/{id} [put]
func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	var req service.VendorRequest
	if !bindJSON(c, &req) {
		return
	}
	vendor, err := h.vendorService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendor))
}
