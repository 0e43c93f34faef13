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

type ProductHandler struct {
	productService  service.ProductService
	categoryService service.CategoryService
}

func NewProductHandler(productService service.ProductService, categoryService service.CategoryService) *ProductHandler {
	return &ProductHandler{productService: productService, categoryService: categoryService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	categories := router.Group("/api/product-categories")
	{
		categories.GET("", auth.RequirePermission("product-categories.read"), h.ListCategories)
		categories.GET("/:id", auth.RequirePermission("product-categories.read"), h.GetCategory)
		categories.POST("", auth.RequirePermission("product-categories.write"), h.CreateCategory)
		categories.PUT("/:id", auth.RequirePermission("product-categories.write"), h.UpdateCategory)
		lifecycleRoutes(categories, auth, "product-categories", h.categoryService)
	}

	products := router.Group("/api/products")
	{
		products.GET("", auth.RequirePermission("products.read"), h.ListProducts)
		products.GET("/export", auth.RequirePermission("products.export"), h.ExportProducts)
		products.GET("/:id", auth.RequirePermission("products.read"), h.GetProduct)
		products.GET("/:id/stock-movements", auth.RequirePermission("products.read"), h.ListStockMovements)
		products.POST("", auth.RequirePermission("products.write"), h.CreateProduct)
		products.PUT("/:id", auth.RequirePermission("products.write"), h.UpdateProduct)
		lifecycleRoutes(products, auth, "products", h.productService)
	}
}

// @Summary      List product categories
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Number of items per page (default 20)"
// @Param        active   query     bool    false  "Filter by active flag"
// @Param        search   query     string  false  "Search by name"
// @Param        trashed  query     string  false  "with or only"
// @Success      200      {object}  response.Response
// @Router       /api/product-categories [get]
func (h *ProductHandler) ListCategories(c *gin.Context) {
	p := pagination.Parse(c)
	categories, total, err := h.categoryService.List(c.Request.Context(), repository.CategoryFilter{Active: boolQuery(c, "active")}, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, categories, p.Page, p.Limit, total))
}

// @Summary      Get product category
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/product-categories/{id} [get]
func (h *ProductHandler) GetCategory(c *gin.Context) {
	category, err := h.categoryService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

// @Summary      Create product category
// @Description  The slug is derived from the name when omitted
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CategoryRequest  true  "Category payload"
// @Success      201  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/product-categories [post]
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categoryService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, category))
}

// @Summary      Update product category
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                   true  "Category ID"
// @Param        payload  body  service.CategoryRequest  true  "Category payload"
// @Success      200  {object}  response.Response
// @Router       /api/product-categories/{id} [put]
func (h *ProductHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.categoryService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, category))
}

func productFilter(c *gin.Context) repository.ProductFilter {
	return repository.ProductFilter{
		CategoryID: c.Query("category_id"),
		Active:     boolQuery(c, "active"),
		LowStock:   c.Query("low_stock") == "true",
	}
}

// ListProducts handles retrieving paginated products with current stock
// @Summary      List products
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        page         query     int     false  "Page number (default 1)"
// @Param        limit        query     int     false  "Number of items per page (default 20)"
// @Param        category_id  query     string  false  "Filter by category"
// @Param        low_stock    query     bool    false  "Only products at or below their minimum stock"
// @Param        search       query     string  false  "Search by name, SKU or description"
// @Param        trashed      query     string  false  "with or only"
// @Success      200          {object}  response.Response
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	products, total, err := h.productService.List(c.Request.Context(), productFilter(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, products, p.Page, p.Limit, total))
}

// @Summary      Export products
// @Tags         products
// @Security     BearerAuth
// @Produce      text/csv
// @Success      200
// @Router       /api/products/export [get]
func (h *ProductHandler) ExportProducts(c *gin.Context) {
	table, err := h.productService.Export(c.Request.Context(), productFilter(c), pagination.Parse(c))
	if err != nil {
		respondError(c, err)
		return
	}
	sendCSV(c, table)
}

// @Summary      Get product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// ListStockMovements returns the stock history of one product, newest first
// @Summary      Product stock movements
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Product ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response
// @Router       /api/products/{id}/stock-movements [get]
func (h *ProductHandler) ListStockMovements(c *gin.Context) {
	p := pagination.Parse(c)
	movements, total, err := h.productService.StockMovements(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, movements, p.Page, p.Limit, total))
}

// CreateProduct handles creating a new product; its opening stock is recorded as a movement
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.ProductRequest  true  "Product payload"
// @Success      201  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct handles updating product details; stock only changes through movements
// @Summary      Update product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                  true  "Product ID"
// @Param        payload  body  service.ProductRequest  true  "Product payload"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}
