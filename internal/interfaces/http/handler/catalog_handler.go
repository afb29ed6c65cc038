package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CatalogHandler serves public catalog reads and admin product management.
type CatalogHandler struct {
	BaseHandler
	catalog *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{BaseHandler: NewBaseHandler(log), catalog: svc}
}

// ListProducts handles GET /products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	res, err := h.catalog.ListProducts(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, res.Items, dto.MetaFrom(res.Pagination))
}

// GetProduct handles GET /products/:id.
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid product ID")
		return
	}

	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// GetProductBySlug handles GET /products/slug/:slug.
func (h *CatalogHandler) GetProductBySlug(c *gin.Context) {
	p, err := h.catalog.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListCategories handles GET /categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	res, err := h.catalog.ListCategories(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.List(c, res.Items, dto.MetaFrom(res.Pagination))
}

// CreateProduct handles POST /products (admin).
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var in catalog.CreateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	p, err := h.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// UpdateProduct handles PUT /products/:id (admin).
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid product ID")
		return
	}

	var in catalog.UpdateProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.BadRequest(c, err)
		return
	}

	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// DeleteProduct handles DELETE /products/:id (admin).
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, "INVALID_INPUT", "Invalid product ID")
		return
	}

	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Product deleted"})
}
