package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/vendas-api/internal/domain/entity"
	"github.com/sangkips/vendas-api/internal/domain/enum"
	"github.com/sangkips/vendas-api/internal/domain/pricing"
	"github.com/sangkips/vendas-api/internal/domain/repository"
	"github.com/sangkips/vendas-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// PackagingService manages the stocked packaging consumables
type PackagingService struct {
	packagingRepo repository.PackagingRepository
}

// NewPackagingService creates a new packaging service
func NewPackagingService(packagingRepo repository.PackagingRepository) *PackagingService {
	return &PackagingService{packagingRepo: packagingRepo}
}

// CreatePackagingInput represents the create packaging input
type CreatePackagingInput struct {
	Type     enum.PackagingType
	Price    decimal.Decimal
	Quantity int
}

// UpdatePackagingInput represents the update packaging input
type UpdatePackagingInput struct {
	Type     *enum.PackagingType
	Price    *decimal.Decimal
	Quantity *int
}

// CreatePackaging creates a new packaging record
func (s *PackagingService) CreatePackaging(ctx context.Context, input *CreatePackagingInput) (*entity.Packaging, error) {
	packaging := &entity.Packaging{
		Type:     input.Type,
		Price:    input.Price.Round(pricing.MoneyPlaces),
		Quantity: input.Quantity,
	}
	if err := validatePackaging(packaging); err != nil {
		return nil, err
	}

	if err := s.packagingRepo.Create(ctx, packaging); err != nil {
		return nil, apperror.NewStorageError(err)
	}
	return packaging, nil
}

// GetPackaging retrieves a packaging record by ID
func (s *PackagingService) GetPackaging(ctx context.Context, id uuid.UUID) (*entity.Packaging, error) {
	packaging, err := s.packagingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewStorageError(err)
	}
	if packaging == nil {
		return nil, apperror.NewNotFoundError("Packaging")
	}
	return packaging, nil
}

// ListPackaging lists packaging records, optionally of one type
func (s *PackagingService) ListPackaging(ctx context.Context, packagingType enum.PackagingType) ([]entity.Packaging, error) {
	if packagingType != "" && !packagingType.IsValid() {
		return nil, unknownPackagingType(packagingType)
	}
	packagings, err := s.packagingRepo.List(ctx, packagingType)
	if err != nil {
		return nil, apperror.NewStorageError(err)
	}
	if packagings == nil {
		packagings = []entity.Packaging{}
	}
	return packagings, nil
}

// UpdatePackaging updates the fields present in input and leaves the rest,
// stock included, as stored.
func (s *PackagingService) UpdatePackaging(ctx context.Context, id uuid.UUID, input *UpdatePackagingInput) (*entity.Packaging, error) {
	packaging, err := s.GetPackaging(ctx, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Type != nil {
		packaging.Type = *input.Type
		columns = append(columns, "type")
	}
	if input.Price != nil {
		packaging.Price = input.Price.Round(pricing.MoneyPlaces)
		columns = append(columns, "price")
	}
	if input.Quantity != nil {
		packaging.Quantity = *input.Quantity
		columns = append(columns, "quantity")
	}
	if err := validatePackaging(packaging); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return packaging, nil
	}

	if err := s.packagingRepo.Update(ctx, packaging, columns); err != nil {
		return nil, apperror.NewStorageError(err)
	}
	return s.GetPackaging(ctx, id)
}

// DeletePackaging soft-deletes a packaging record
func (s *PackagingService) DeletePackaging(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.packagingRepo.Delete(ctx, id)
	if err != nil {
		return apperror.NewStorageError(err)
	}
	if !deleted {
		return apperror.NewNotFoundError("Packaging")
	}
	return nil
}

func validatePackaging(p *entity.Packaging) error {
	if !p.Type.IsValid() {
		return unknownPackagingType(p.Type)
	}
	var fieldErrors []apperror.FieldError
	if p.Price.IsNegative() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "price", Message: "price cannot be negative"})
	}
	if p.Quantity < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "quantity", Message: "quantity cannot be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}

func unknownPackagingType(t enum.PackagingType) error {
	return apperror.ErrUnknownPackagingType.WithMessage(fmt.Sprintf("Unknown packaging type %q", string(t)))
}
