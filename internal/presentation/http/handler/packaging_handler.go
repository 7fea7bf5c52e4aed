package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/vendas-api/internal/application/service"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/request"
	"github.com/sangkips/vendas-api/internal/presentation/http/dto/response"
	"github.com/sangkips/vendas-api/pkg/apperror"
)

// PackagingHandler handles packaging stock HTTP requests
type PackagingHandler struct {
	packagingService *service.PackagingService
}

// NewPackagingHandler creates a new packaging handler
func NewPackagingHandler(packagingService *service.PackagingService) *PackagingHandler {
	return &PackagingHandler{packagingService: packagingService}
}

// List handles listing packaging records, optionally filtered by ?type=
func (h *PackagingHandler) List(c *gin.Context) {
	packagings, err := h.packagingService.ListPackaging(c.Request.Context(), enum.PackagingType(c.Query("type")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, packagings)
}

// Create handles packaging creation
func (h *PackagingHandler) Create(c *gin.Context) {
	var req request.CreatePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	packaging, err := h.packagingService.CreatePackaging(c.Request.Context(), &service.CreatePackagingInput{
		Type:     enum.PackagingType(req.Type),
		Price:    *req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, packaging)
}

// Get handles fetching a packaging record
func (h *PackagingHandler) Get(c *gin.Context) {
	id, ok := parseID(c, apperror.NewNotFoundError("Packaging"))
	if !ok {
		return
	}

	packaging, err := h.packagingService.GetPackaging(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, packaging)
}

// Update handles packaging updates
func (h *PackagingHandler) Update(c *gin.Context) {
	id, ok := parseID(c, apperror.NewNotFoundError("Packaging"))
	if !ok {
		return
	}

	var req request.UpdatePackagingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	input := &service.UpdatePackagingInput{
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if req.Type != nil {
		t := enum.PackagingType(*req.Type)
		input.Type = &t
	}

	packaging, err := h.packagingService.UpdatePackaging(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, packaging)
}

// Delete handles packaging deletion
func (h *PackagingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, apperror.NewNotFoundError("Packaging"))
	if !ok {
		return
	}

	if err := h.packagingService.DeletePackaging(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Packaging deleted successfully")
}
