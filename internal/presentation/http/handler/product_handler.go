package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/application/service"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/request"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/response"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/sangkips/vendas-api/pkg/pagination"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles listing products
func (h *ProductHandler) List(c *gin.Context) {
	var filter request.ProductFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, apperror.NewBadRequestError("Invalid query parameters"))
		return
	}

	params := &repository.ProductFilterParams{
		Pagination: pagination.FromQuery(filter.Page, filter.PerPage),
		Search:     filter.Search,
		Brand:      filter.Brand,
		SortBy:     filter.SortBy,
		SortOrder:  filter.SortOrder,
	}

	result, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result)
}

// Create handles product creation
func (h *ProductHandler) Create(c *gin.Context) {
	var req request.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &service.CreateProductInput{
		Name:      req.Name,
		Brand:     req.Brand,
		CostPrice: *req.CostPrice,
		SalePrice: *req.SalePrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, product)
}

// Get handles fetching a product
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseID(c, apperror.NewNotFoundError("Product"))
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, product)
}

// Update handles product updates
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c, apperror.NewNotFoundError("Product"))
	if !ok {
		return
	}

	var req request.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &service.UpdateProductInput{
		Name:      req.Name,
		Brand:     req.Brand,
		CostPrice: req.CostPrice,
		SalePrice: req.SalePrice,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, product)
}

// Delete handles product deletion
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, apperror.NewNotFoundError("Product"))
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Product deleted successfully")
}
