package handler

import (
	"ecommerce-backend/internal/adapter/http/dto"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves the catalog. Reads are public, writes are admin only.
type ProductHandler struct {
	catalogSvc ports.CatalogService
}

func NewProductHandler(catalogSvc ports.CatalogService) *ProductHandler {
	return &ProductHandler{catalogSvc: catalogSvc}
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(c *gin.Context) {
	var q dto.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	products, err := h.catalogSvc.ListProducts(c.Request.Context(), ports.ProductFilter{
		InStockOnly: q.InStock,
		Search:      q.Search,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewProductList(products))
}

// Get handles GET /api/v1/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.catalogSvc.GetProductByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewProductResponse(product))
}

// Create handles POST /api/v1/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	product, err := h.catalogSvc.CreateProduct(c.Request.Context(), ports.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewProductResponse(product))
}

// Update handles PATCH /api/v1/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ProductPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	product, err := h.catalogSvc.UpdateProduct(c.Request.Context(), id, ports.ProductUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewProductResponse(product))
}

// Delete handles DELETE /api/v1/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteProduct(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStock handles POST /api/v1/products/:id/stock.
func (h *ProductHandler) UpdateStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.StockUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	product, err := h.catalogSvc.UpdateStock(c.Request.Context(), id, req.Quantity, ports.StockOperation(req.Operation))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewProductResponse(product))
}

// BulkUpsert handles POST /api/v1/products/bulk.
func (h *ProductHandler) BulkUpsert(c *gin.Context) {
	var req dto.BulkProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	items := make([]ports.ProductInput, 0, len(req.Products))
	for _, row := range req.Products {
		items = append(items, ports.ProductInput{
			Name:          row.Name,
			Description:   row.Description,
			Price:         row.Price,
			StockQuantity: row.StockQuantity,
		})
	}

	result, err := h.catalogSvc.BulkUpsertProducts(c.Request.Context(), items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
