package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/application/service"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/request"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/response"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/sangkips/vendas-api/pkg/pagination"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	saleService *service.SaleService
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(saleService *service.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// Create handles recording a new sale
func (h *SaleHandler) Create(c *gin.Context) {
	var req request.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	input := &service.CreateSaleInput{
		Items:         toSaleItemInputs(req.Items),
		PaymentMethod: enum.PaymentMethod(req.PaymentMethod),
		Installments:  req.Installments,
		Date:          req.Date.TimePtr(),
	}
	if req.Packaging != nil {
		input.Packaging = &service.PackagingSelection{
			PackagingID: req.Packaging.PackagingID,
			Quantity:    req.Packaging.Quantity,
		}
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, sale)
}

// List handles listing sales, newest first
func (h *SaleHandler) List(c *gin.Context) {
	var filter request.SaleFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, apperror.NewBadRequestError("Invalid query parameters"))
		return
	}

	params := &repository.SaleFilterParams{
		Pagination: pagination.FromQuery(filter.Page, filter.PerPage),
	}
	if filter.PaymentMethod != "" {
		params.PaymentMethod = enum.PaymentMethod(filter.PaymentMethod).Canonical()
	}
	if filter.StartDate != "" {
		start, err := request.ParseDate(filter.StartDate)
		if err != nil {
			response.Error(c, apperror.NewBadRequestError(err.Error()))
			return
		}
		params.StartDate = &start
	}
	if filter.EndDate != "" {
		end, err := request.ParseDate(filter.EndDate)
		if err != nil {
			response.Error(c, apperror.NewBadRequestError(err.Error()))
			return
		}
		// A bare date covers the whole day.
		if request.IsDateOnly(filter.EndDate) {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
		params.EndDate = &end
	}

	result, err := h.saleService.ListSales(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.List(c, result)
}

// Get handles fetching a single sale
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := parseID(c, apperror.ErrSaleNotFound)
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, sale)
}

// Update handles editing a sale's items, total or date
func (h *SaleHandler) Update(c *gin.Context) {
	id, ok := parseID(c, apperror.ErrSaleNotFound)
	if !ok {
		return
	}

	var req request.EditSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	input := &service.EditSaleInput{
		Total: req.Total,
		Date:  req.Date.TimePtr(),
	}
	if req.Items != nil {
		items := toSaleItemInputs(*req.Items)
		input.Items = &items
	}

	sale, err := h.saleService.EditSale(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, response.SaleEditedResponse{Message: "Sale updated successfully", Sale: sale})
}

// Delete handles removing a sale
func (h *SaleHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, apperror.ErrSaleNotFound)
	if !ok {
		return
	}

	if err := h.saleService.DeleteSale(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Sale deleted successfully")
}

func toSaleItemInputs(items []request.SaleItemRequest) []service.SaleItemInput {
	inputs := make([]service.SaleItemInput, len(items))
	for i, item := range items {
		inputs[i] = service.SaleItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Price:         item.Price,
			PackagingType: enum.PackagingType(item.PackagingType),
		}
	}
	return inputs
}
